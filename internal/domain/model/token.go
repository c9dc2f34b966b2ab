package model

import "github.com/shopspring/decimal"

// TokenSummary is the mutable per-token read state maintained by the trade
// path and the reconciliation sweeps.
//
// Invariants: MarketCap = TotalSupply * Price and
// Liquidity = LiquidityToken * Price, where Price is USD per token.
// UniswapPool stays empty until the token graduates and is set exactly once.
type TokenSummary struct {
	TokenAddress   string          `db:"token_address"`
	RaisedToken    string          `db:"raised_token"`
	PairAddress    string          `db:"pair_address"`
	Price          decimal.Decimal `db:"price"`
	PriceToken     decimal.Decimal `db:"price_token"`
	PriceRate24h   decimal.Decimal `db:"price_rate24h"`
	Volume24h      decimal.Decimal `db:"volume_24h"`
	TotalSupply    decimal.Decimal `db:"total_supply"`
	MarketCap      decimal.Decimal `db:"market_cap"`
	Liquidity      decimal.Decimal `db:"liquidity"`
	LiquidityToken decimal.Decimal `db:"liquidity_token"`
	BondingCurve   decimal.Decimal `db:"bonding_curve"`
	UniswapPool    string          `db:"uniswap_pool"`
	LastTradeTs    int64           `db:"last_trade_ts"`
}

// RaisedToken is reference data for an asset tokens can be raised in.
// Decimal is the asset's on-chain precision; Oracle is the USD price feed.
type RaisedToken struct {
	Address  string          `db:"address"`
	Name     string          `db:"name"`
	Symbol   string          `db:"symbol"`
	Decimal  int32           `db:"decimal"`
	Icon     string          `db:"icon"`
	Oracle   string          `db:"oracle"`
	Price    decimal.Decimal `db:"price"`
	CreateTs int64           `db:"create_ts"`
}

// TradeMeta is the raised-asset metadata a trade needs, resolved through
// the token_summary -> raised_token join.
type TradeMeta struct {
	RaisedDecimal int32
	RaisedAddress string
	OracleAddress string
}
