package events

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

const (
	tokenAddr = "0xb2284b8eee1e364f6bd4fa814e64303819a16ae8"
	assetAddr = "0x55d398326f99059ff775485246999027b3197955"
	pairAddr  = "0x1111111111111111111111111111111111111111"
	userAddr  = "0xf41bbb59b4291ae8711ef276ddc0a26e6ad0137c"
)

func addressTopic(addr string) string {
	return "0x" + strings.Repeat("0", 24) + strings.TrimPrefix(addr, "0x")
}

func uintWord(v *big.Int) string {
	hex := v.Text(16)
	return strings.Repeat("0", 64-len(hex)) + hex
}

func TestDecodeLaunched(t *testing.T) {
	t.Parallel()

	initPrice := new(big.Int).SetUint64(25_000_000_000_000) // 0.000025 * 1e18
	data := "0x" + uintWord(big.NewInt(42)) + uintWord(initPrice)
	topics := []string{
		TopicLaunched,
		addressTopic(tokenAddr),
		addressTopic(assetAddr),
		addressTopic(pairAddr),
	}

	evt, err := DecodeLaunched(topics, data)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, evt.Token)
	assert.Equal(t, assetAddr, evt.Asset)
	assert.Equal(t, pairAddr, evt.Pair)
	assert.Equal(t, int64(42), evt.ID)
	assert.Zero(t, initPrice.Cmp(evt.InitPrice))
}

func TestDecodeLaunched_BadShape(t *testing.T) {
	t.Parallel()

	topics := []string{
		TopicLaunched,
		addressTopic(tokenAddr),
		addressTopic(assetAddr),
		addressTopic(pairAddr),
	}

	_, err := DecodeLaunched(topics[:3], "0x"+uintWord(big.NewInt(1))+uintWord(big.NewInt(1)))
	assert.Error(t, err, "missing topic")

	_, err = DecodeLaunched(topics, "0x"+uintWord(big.NewInt(1)))
	assert.Error(t, err, "short data")

	_, err = DecodeLaunched(topics, "0x"+strings.Repeat("zz", 64))
	assert.Error(t, err, "non-hex data")
}

func TestDecodeTrade(t *testing.T) {
	t.Parallel()

	amountIn, _ := new(big.Int).SetString("100000000000000000000", 10) // 100 * 1e18
	amountOut, _ := new(big.Int).SetString("50000000000000000000", 10) // 50 * 1e18
	price, _ := new(big.Int).SetString("2000000000000000000", 10)      // 2 * 1e18

	data := "0x" + uintWord(amountIn) + uintWord(amountOut) + uintWord(price)
	topics := []string{
		TopicBought,
		addressTopic(userAddr),
		addressTopic(tokenAddr),
	}

	evt, err := DecodeTrade(topics, data, model.TradeTypeBuy)
	require.NoError(t, err)
	assert.Equal(t, userAddr, evt.User)
	assert.Equal(t, tokenAddr, evt.Token)
	assert.Zero(t, amountIn.Cmp(evt.AmountIn))
	assert.Zero(t, amountOut.Cmp(evt.AmountOut))
	assert.Zero(t, price.Cmp(evt.Price))
	assert.Equal(t, model.TradeTypeBuy, evt.Type)
}

func TestDecodeGraduated(t *testing.T) {
	t.Parallel()

	topics := []string{
		TopicGraduated,
		addressTopic(tokenAddr),
		addressTopic(pairAddr),
	}

	evt, err := DecodeGraduated(topics)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, evt.Token)
	assert.Equal(t, pairAddr, evt.Pair)
}

func TestTopicAddress_RejectsDirtyPadding(t *testing.T) {
	t.Parallel()

	// A topic whose padding bytes are non-zero is not an address word.
	dirty := "0x" + strings.Repeat("f", 64)
	_, err := topicAddress(dirty)
	assert.Error(t, err)
}

func TestEventName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Launched", EventName(TopicLaunched))
	assert.Equal(t, "InitialBuyAndUpdate", EventName(TopicInitialBuyAndUpdate))
	assert.Equal(t, "Sold", EventName(TopicSold))
	assert.Equal(t, "Bought", EventName(TopicBought))
	assert.Equal(t, "Graduated", EventName(TopicGraduated))
	assert.Empty(t, EventName("0xdeadbeef"))
}
