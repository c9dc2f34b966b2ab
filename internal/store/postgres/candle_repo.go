package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

type CandleRepo struct {
	db *DB
}

func NewCandleRepo(db *DB) *CandleRepo {
	return &CandleRepo{db: db}
}

// UpsertTradeTx merges a single-trade candle into its bucket. The stored
// open survives, close is overwritten by the newest trade, high/low are
// extended and volume/amount/txn_num accumulate.
func (r *CandleRepo) UpsertTradeTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO kline_5m (token_address, open_ts, close_ts, open, high, low, close, volume, amount, txn_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (token_address, open_ts) DO UPDATE SET
			close = EXCLUDED.close,
			high = GREATEST(kline_5m.high, EXCLUDED.high),
			low = LEAST(kline_5m.low, EXCLUDED.low),
			volume = kline_5m.volume + EXCLUDED.volume,
			amount = kline_5m.amount + EXCLUDED.amount,
			txn_num = kline_5m.txn_num + EXCLUDED.txn_num
	`, c.TokenAddress, c.OpenTs, c.CloseTs, c.Open, c.High, c.Low, c.Close, c.Volume, c.Amount, c.TxnNum)
	if err != nil {
		return fmt.Errorf("upsert candle: %w", err)
	}
	return nil
}

func (r *CandleRepo) InsertEmptyTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO kline_5m (token_address, open_ts, close_ts, open, high, low, close, volume, amount, txn_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (token_address, open_ts) DO NOTHING
	`, c.TokenAddress, c.OpenTs, c.CloseTs, c.Open, c.High, c.Low, c.Close, c.Volume, c.Amount, c.TxnNum)
	if err != nil {
		return fmt.Errorf("insert empty candle: %w", err)
	}
	return nil
}

func (r *CandleRepo) SumVolumeSinceTx(ctx context.Context, tx *sql.Tx, tokenAddress string, sinceTs int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(volume), 0)
		FROM kline_5m
		WHERE token_address = $1 AND open_ts >= $2
	`, tokenAddress, sinceTs).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum candle volume: %w", err)
	}
	return sum, nil
}

// BaselineCloseTx resolves the price baseline for 24h rate computation:
// the close of the latest bucket opening at or before cutoffTs, or the
// token's earliest close when no bucket is that old yet.
func (r *CandleRepo) BaselineCloseTx(ctx context.Context, tx *sql.Tx, tokenAddress string, cutoffTs int64) (decimal.Decimal, bool, error) {
	var baseline decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		SELECT close
		FROM kline_5m
		WHERE token_address = $1 AND open_ts <= $2
		ORDER BY open_ts DESC
		LIMIT 1
	`, tokenAddress, cutoffTs).Scan(&baseline)
	if err == nil {
		return baseline, true, nil
	}
	if err != sql.ErrNoRows {
		return decimal.Zero, false, fmt.Errorf("baseline close: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		SELECT close
		FROM kline_5m
		WHERE token_address = $1
		ORDER BY open_ts ASC
		LIMIT 1
	`, tokenAddress).Scan(&baseline)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("earliest close: %w", err)
	}
	return baseline, true, nil
}
