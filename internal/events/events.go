// Package events classifies raw factory logs by topic signature and decodes
// them into typed event records.
package events

import (
	"math/big"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

// Topic_0 signatures of the factory events the indexer consumes. Logs with
// any other signature are dropped with a warning: the getLogs filter is by
// contract address too, but the factory emits more event types than these.
const (
	TopicLaunched            = "0xec774f0683e9ac48e8d835f412f9f877a8a5dee9af3170d78cf3ef33149d15e7"
	TopicInitialBuyAndUpdate = "0x1685b8781b8be9c9242e31a14f2ca289c99bf831d0ad45bf23613f6e646e480d"
	TopicSold                = "0x9be8a5ca22b7e6e81f04b5879f0248227bb770114291bd47dfaee4c3a82ad60e"
	TopicBought              = "0x7ce543d1780f3bdc3dac42da06c95da802653cd1b212b8d74ec3e3c33ad7095c"
	TopicGraduated           = "0x381d54fa425631e6266af114239150fae1d5db67bb65b4fa9ecc65013107e07e"
)

// AllTopics lists every signature the scanner subscribes to, in filter order.
func AllTopics() []string {
	return []string{
		TopicLaunched,
		TopicInitialBuyAndUpdate,
		TopicSold,
		TopicBought,
		TopicGraduated,
	}
}

// EventName returns a short name for a known topic_0, or "" if unknown.
func EventName(topic0 string) string {
	switch topic0 {
	case TopicLaunched:
		return "Launched"
	case TopicInitialBuyAndUpdate:
		return "InitialBuyAndUpdate"
	case TopicSold:
		return "Sold"
	case TopicBought:
		return "Bought"
	case TopicGraduated:
		return "Graduated"
	default:
		return ""
	}
}

// Launched is emitted once per token launch.
// Layout: topics = token, asset, pair; data = id, initPrice.
type Launched struct {
	Token     string
	Asset     string
	Pair      string
	ID        int64
	InitPrice *big.Int
}

// Trade covers Bought, Sold and InitialBuyAndUpdate, which share a layout
// and downstream handling. Layout: topics = user, token; data = amountIn,
// amountOut, price. Amounts are raw fixed-point integers: the token side is
// 18 decimals, the raised-asset side uses its own declared precision;
// price is raised-asset per token, 18 decimals.
type Trade struct {
	User      string
	Token     string
	AmountIn  *big.Int
	AmountOut *big.Int
	Price     *big.Int
	Type      model.TradeType
}

// Graduated is emitted when a token's bonding curve completes.
// Layout: topics = token, pair.
type Graduated struct {
	Token string
	Pair  string
}
