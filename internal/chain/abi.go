package chain

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Contract method signatures resolved to 4-byte selectors at first use.
const (
	sigBalanceOf             = "balanceOf(address)"
	sigTotalSupply           = "totalSupply()"
	sigDecimals              = "decimals()"
	sigLatestAnswer          = "latestAnswer()"
	sigTokenSoldAmount       = "getTokenSoldAmount(address)"
	sigTokenTotalSalesAmount = "getTokenTotalSalesAmount(address)"
)

var (
	selectorMu    sync.Mutex
	selectorCache = map[string]string{}
)

func selector(signature string) string {
	selectorMu.Lock()
	defer selectorMu.Unlock()

	if sel, ok := selectorCache[signature]; ok {
		return sel
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	sel := fmt.Sprintf("%x", h.Sum(nil)[:4])
	selectorCache[signature] = sel
	return sel
}

// encodeCall builds eth_call data: 4-byte selector followed by each
// address argument left-padded to a 32-byte word.
func encodeCall(signature string, addrArgs ...string) (string, error) {
	var b strings.Builder
	b.WriteString("0x")
	b.WriteString(selector(signature))
	for _, addr := range addrArgs {
		hex := strings.ToLower(strings.TrimPrefix(addr, "0x"))
		if len(hex) != 40 {
			return "", fmt.Errorf("invalid address argument %q", addr)
		}
		b.WriteString(strings.Repeat("0", 24))
		b.WriteString(hex)
	}
	return b.String(), nil
}

// decodeWords splits an eth_call result into n 32-byte words.
func decodeWords(result string, n int) ([]*big.Int, error) {
	hex := strings.TrimPrefix(result, "0x")
	if len(hex) != n*64 {
		return nil, fmt.Errorf("call result has %d hex chars, want %d", len(hex), n*64)
	}
	words := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		word, ok := new(big.Int).SetString(hex[i*64:(i+1)*64], 16)
		if !ok {
			return nil, fmt.Errorf("call result word %d is not hex", i)
		}
		words[i] = word
	}
	return words, nil
}

func decodeUint256(result string) (*big.Int, error) {
	words, err := decodeWords(result, 1)
	if err != nil {
		return nil, err
	}
	return words[0], nil
}
