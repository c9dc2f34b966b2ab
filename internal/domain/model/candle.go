package model

import "github.com/shopspring/decimal"

// Candle is one OHLCV bucket, keyed by (token_address, open_ts).
// Volume is in token units, Amount is the quote value (sum of price*volume),
// TxnNum counts the trades merged into the bucket.
type Candle struct {
	TokenAddress string          `db:"token_address"`
	OpenTs       int64           `db:"open_ts"`
	CloseTs      int64           `db:"close_ts"`
	Open         decimal.Decimal `db:"open"`
	High         decimal.Decimal `db:"high"`
	Low          decimal.Decimal `db:"low"`
	Close        decimal.Decimal `db:"close"`
	Volume       decimal.Decimal `db:"volume"`
	Amount       decimal.Decimal `db:"amount"`
	TxnNum       int64           `db:"txn_num"`
}
