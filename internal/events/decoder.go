package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

const addressHexLen = 40

// DecodeError marks a log whose shape does not match its topic's event.
// Such logs are skipped rather than retried.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string { return e.err.Error() }
func (e *DecodeError) Unwrap() error { return e.err }

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{err: fmt.Errorf(format, args...)}
}

// DecodeLaunched decodes a Launched log from its topics and data payload.
func DecodeLaunched(topics []string, data string) (*Launched, error) {
	if len(topics) != 4 {
		return nil, decodeErrorf("launched: want 4 topics, got %d", len(topics))
	}
	token, err := topicAddress(topics[1])
	if err != nil {
		return nil, decodeErrorf("launched token: %w", err)
	}
	asset, err := topicAddress(topics[2])
	if err != nil {
		return nil, decodeErrorf("launched asset: %w", err)
	}
	pair, err := topicAddress(topics[3])
	if err != nil {
		return nil, decodeErrorf("launched pair: %w", err)
	}
	words, err := dataWords(data, 2)
	if err != nil {
		return nil, decodeErrorf("launched data: %w", err)
	}
	if !words[0].IsInt64() {
		return nil, decodeErrorf("launched id out of int64 range")
	}
	return &Launched{
		Token:     token,
		Asset:     asset,
		Pair:      pair,
		ID:        words[0].Int64(),
		InitPrice: words[1],
	}, nil
}

// DecodeTrade decodes a Bought, Sold or InitialBuyAndUpdate log.
// tradeType is 0 for the two buy shapes and 1 for Sold.
func DecodeTrade(topics []string, data string, tradeType model.TradeType) (*Trade, error) {
	if len(topics) != 3 {
		return nil, decodeErrorf("trade: want 3 topics, got %d", len(topics))
	}
	user, err := topicAddress(topics[1])
	if err != nil {
		return nil, decodeErrorf("trade user: %w", err)
	}
	token, err := topicAddress(topics[2])
	if err != nil {
		return nil, decodeErrorf("trade token: %w", err)
	}
	words, err := dataWords(data, 3)
	if err != nil {
		return nil, decodeErrorf("trade data: %w", err)
	}
	return &Trade{
		User:      user,
		Token:     token,
		AmountIn:  words[0],
		AmountOut: words[1],
		Price:     words[2],
		Type:      tradeType,
	}, nil
}

// DecodeGraduated decodes a Graduated log.
func DecodeGraduated(topics []string) (*Graduated, error) {
	if len(topics) != 3 {
		return nil, decodeErrorf("graduated: want 3 topics, got %d", len(topics))
	}
	token, err := topicAddress(topics[1])
	if err != nil {
		return nil, decodeErrorf("graduated token: %w", err)
	}
	pair, err := topicAddress(topics[2])
	if err != nil {
		return nil, decodeErrorf("graduated pair: %w", err)
	}
	return &Graduated{Token: token, Pair: pair}, nil
}

// topicAddress extracts the address from a 32-byte topic word.
func topicAddress(topic string) (string, error) {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(topic)), "0x")
	if len(raw) != 64 {
		return "", fmt.Errorf("topic %q is not a 32-byte word", topic)
	}
	for _, ch := range raw[:64-addressHexLen] {
		if ch != '0' {
			return "", fmt.Errorf("topic %q has non-zero address padding", topic)
		}
	}
	return "0x" + raw[64-addressHexLen:], nil
}

// dataWords splits an ABI data payload into exactly n 32-byte words.
func dataWords(data string, n int) ([]*big.Int, error) {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(data)), "0x")
	if len(raw) != n*64 {
		return nil, fmt.Errorf("want %d words (%d hex chars), got %d", n, n*64, len(raw))
	}
	words := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		word, ok := new(big.Int).SetString(raw[i*64:(i+1)*64], 16)
		if !ok {
			return nil, fmt.Errorf("word %d is not valid hex", i)
		}
		words[i] = word
	}
	return words, nil
}
