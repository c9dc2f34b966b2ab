package model

import "github.com/shopspring/decimal"

// UserPosition holds a user's current on-chain balance for one token.
// Amount is the authoritative balance read from the chain at trade time,
// not an accumulated delta; every trade overwrites it (last writer wins by
// trade recency).
type UserPosition struct {
	UserAddress  string          `db:"user_address"`
	TokenAddress string          `db:"token_address"`
	Amount       decimal.Decimal `db:"amount"`
	UpdateTs     int64           `db:"update_ts"`
}
