package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

var (
	// ErrAlreadyProcessed is returned when inserting an event log whose
	// (block_number, txn_index, log_index) key already exists. Callers
	// treat it as "seen before, skip", not as a failure.
	ErrAlreadyProcessed = errors.New("event already processed")

	// ErrNotFound is returned when a required row does not exist.
	ErrNotFound = errors.New("not found")
)

// TxBeginner abstracts the ability to begin a database transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// EventLogRepository records decoded on-chain logs append-only.
type EventLogRepository interface {
	// InsertTx writes the raw log row. Returns ErrAlreadyProcessed when the
	// composite key already exists.
	InsertTx(ctx context.Context, tx *sql.Tx, log *model.EventLog) error
	InsertLaunchTx(ctx context.Context, tx *sql.Tx, launch *model.LaunchLog) error
}

// TradeLogRepository records normalized trades append-only.
type TradeLogRepository interface {
	InsertTx(ctx context.Context, tx *sql.Tx, trade *model.TradeLog) error
}

// CandleRepository maintains the 5-minute OHLCV buckets.
type CandleRepository interface {
	// UpsertTradeTx merges a single-trade candle into its bucket: close is
	// overwritten, high/low extended, volume/amount/txn_num accumulated.
	UpsertTradeTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error

	// InsertEmptyTx seeds a zero-volume candle at launch so charts have an
	// origin point. Does nothing if the bucket already exists.
	InsertEmptyTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error

	// SumVolumeSinceTx sums candle volume for buckets opening at or after
	// sinceTs.
	SumVolumeSinceTx(ctx context.Context, tx *sql.Tx, tokenAddress string, sinceTs int64) (decimal.Decimal, error)

	// BaselineCloseTx returns the 24h price baseline: the close of the
	// latest candle opening at or before cutoffTs, falling back to the
	// token's earliest candle. ok is false when the token has no candles.
	BaselineCloseTx(ctx context.Context, tx *sql.Tx, tokenAddress string, cutoffTs int64) (baseline decimal.Decimal, ok bool, err error)
}

// ApplyTradeStats carries the summary columns recomputed on every trade.
// LiquidityToken is the curve's sold amount as re-read from the chain, not
// an accumulated delta.
type ApplyTradeStats struct {
	TokenAddress   string
	Price          decimal.Decimal
	PriceToken     decimal.Decimal
	PriceRate24h   decimal.Decimal
	Volume24h      decimal.Decimal
	LiquidityToken decimal.Decimal
	BondingCurve   decimal.Decimal
	LastTradeTs    int64
}

// TokenSummaryRepository maintains the per-token read state.
type TokenSummaryRepository interface {
	InsertTx(ctx context.Context, tx *sql.Tx, s *model.TokenSummary) error

	// TradeMetaForUpdateTx locks the token's summary row for the duration
	// of the transaction and resolves its raised-asset metadata.
	TradeMetaForUpdateTx(ctx context.Context, tx *sql.Tx, tokenAddress string) (*model.TradeMeta, error)

	// GetForUpdateTx locks and returns the summary row.
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, tokenAddress string) (*model.TokenSummary, error)

	ApplyTradeStatsTx(ctx context.Context, tx *sql.Tx, stats ApplyTradeStats) error

	// SetGraduatedTx records the pool address exactly once; repeated calls
	// for the same token are no-ops.
	SetGraduatedTx(ctx context.Context, tx *sql.Tx, tokenAddress, poolAddress string) error

	// UpdatePricesByRaisedTokenTx reprices every summary raised in the
	// given asset from its stored token price and the new oracle price,
	// keeping market_cap and liquidity consistent. Returns rows updated.
	UpdatePricesByRaisedTokenTx(ctx context.Context, tx *sql.Tx, raisedAddress string, oraclePrice decimal.Decimal) (int64, error)

	UpdateRateStatsTx(ctx context.Context, tx *sql.Tx, tokenAddress string, priceRate24h, volume24h decimal.Decimal) error

	// ListAddresses returns every token with a summary row.
	ListAddresses(ctx context.Context) ([]string, error)
}

// UserPositionRepository tracks authoritative per-user token balances.
type UserPositionRepository interface {
	UpsertTx(ctx context.Context, tx *sql.Tx, p *model.UserPosition) error
}

// RaisedTokenRepository reads and reprices the raised-asset reference data.
type RaisedTokenRepository interface {
	List(ctx context.Context) ([]model.RaisedToken, error)
	UpdatePriceTx(ctx context.Context, tx *sql.Tx, address string, price decimal.Decimal) error
}

// TokenInfoRepository binds launched tokens to their off-chain metadata.
type TokenInfoRepository interface {
	// BindLaunchTx attaches the on-chain token address and pair to the
	// pre-created token_info row. Returns ErrNotFound when no row exists
	// for tokenID.
	BindLaunchTx(ctx context.Context, tx *sql.Tx, tokenID int64, tokenAddress, pairAddress string, launchTs int64) error
	// MarkGraduatedTx raises the launched flag and records the graduation
	// time. Returns ErrNotFound when no row carries tokenAddress.
	MarkGraduatedTx(ctx context.Context, tx *sql.Tx, tokenAddress string, graduatedTs int64) error
}

// CursorStore persists the scanner's last processed block.
type CursorStore interface {
	// Get returns the cursor; ok is false when no cursor has been written.
	Get(ctx context.Context) (block uint64, ok bool, err error)
	Set(ctx context.Context, block uint64) error
}
