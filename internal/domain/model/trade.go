package model

import "github.com/shopspring/decimal"

// TradeType distinguishes the two trade directions emitted by the factory.
type TradeType int32

const (
	TradeTypeBuy  TradeType = 0
	TradeTypeSell TradeType = 1
)

func (t TradeType) String() string {
	if t == TradeTypeSell {
		return "sell"
	}
	return "buy"
}

// TradeLog is one normalized, USD-priced trade, recorded append-only with
// the same composite key shape as EventLog.
//
// Token0/Amount0 is always the launched token side (18 decimals on chain);
// Token1/Amount1 is the raised-asset side. Price is USD per token,
// PriceToken is raised-asset units per token.
type TradeLog struct {
	BlockNumber  int64           `db:"block_number"`
	TxnIndex     int64           `db:"txn_index"`
	LogIndex     int64           `db:"log_index"`
	BlockTime    int64           `db:"block_time"`
	TxnHash      string          `db:"txn_hash"`
	TokenAddress string          `db:"token_address"`
	UserAddress  string          `db:"user_address"`
	TradeType    TradeType       `db:"trade_type"`
	Token0       string          `db:"token0"`
	Amount0      decimal.Decimal `db:"amount0"`
	Token1       string          `db:"token1"`
	Amount1      decimal.Decimal `db:"amount1"`
	Price        decimal.Decimal `db:"price"`
	PriceToken   decimal.Decimal `db:"price_token"`
}
