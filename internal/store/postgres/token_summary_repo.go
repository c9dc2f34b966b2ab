package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

type TokenSummaryRepo struct {
	db *DB
}

func NewTokenSummaryRepo(db *DB) *TokenSummaryRepo {
	return &TokenSummaryRepo{db: db}
}

func (r *TokenSummaryRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.TokenSummary) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO token_summary (token_address, raised_token, pair_address, price, price_token, price_rate24h, volume_24h, total_supply, market_cap, liquidity, liquidity_token, bonding_curve, uniswap_pool, last_trade_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (token_address) DO NOTHING
	`, s.TokenAddress, s.RaisedToken, s.PairAddress, s.Price, s.PriceToken, s.PriceRate24h,
		s.Volume24h, s.TotalSupply, s.MarketCap, s.Liquidity, s.LiquidityToken,
		s.BondingCurve, s.UniswapPool, s.LastTradeTs)
	if err != nil {
		return fmt.Errorf("insert token summary: %w", err)
	}
	return nil
}

// TradeMetaForUpdateTx locks the summary row until the transaction ends,
// serializing concurrent writers on the same token, and resolves the
// raised asset's decimals and oracle in the same round trip.
func (r *TokenSummaryRepo) TradeMetaForUpdateTx(ctx context.Context, tx *sql.Tx, tokenAddress string) (*model.TradeMeta, error) {
	var meta model.TradeMeta
	err := tx.QueryRowContext(ctx, `
		SELECT rt.decimal, rt.address, rt.oracle
		FROM token_summary ts
		JOIN raised_token rt ON rt.address = ts.raised_token
		WHERE ts.token_address = $1
		FOR UPDATE OF ts
	`, tokenAddress).Scan(&meta.RaisedDecimal, &meta.RaisedAddress, &meta.OracleAddress)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("trade meta for %s: %w", tokenAddress, err)
	}
	return &meta, nil
}

func (r *TokenSummaryRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, tokenAddress string) (*model.TokenSummary, error) {
	var s model.TokenSummary
	err := tx.QueryRowContext(ctx, `
		SELECT token_address, raised_token, pair_address, price, price_token, price_rate24h, volume_24h, total_supply, market_cap, liquidity, liquidity_token, bonding_curve, uniswap_pool, last_trade_ts
		FROM token_summary
		WHERE token_address = $1
		FOR UPDATE
	`, tokenAddress).Scan(
		&s.TokenAddress, &s.RaisedToken, &s.PairAddress, &s.Price, &s.PriceToken,
		&s.PriceRate24h, &s.Volume24h, &s.TotalSupply, &s.MarketCap,
		&s.Liquidity, &s.LiquidityToken, &s.BondingCurve, &s.UniswapPool, &s.LastTradeTs,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token summary %s: %w", tokenAddress, err)
	}
	return &s, nil
}

// ApplyTradeStatsTx folds one trade into the summary. market_cap and
// liquidity are recomputed in SQL from the same values being written, so
// the row can never carry a price that disagrees with its derived columns.
func (r *TokenSummaryRepo) ApplyTradeStatsTx(ctx context.Context, tx *sql.Tx, stats store.ApplyTradeStats) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE token_summary SET
			price = $2,
			price_token = $3,
			price_rate24h = $4,
			volume_24h = $5,
			liquidity_token = $6,
			liquidity = $6 * $2,
			market_cap = total_supply * $2,
			bonding_curve = $7,
			last_trade_ts = $8
		WHERE token_address = $1
	`, stats.TokenAddress, stats.Price, stats.PriceToken, stats.PriceRate24h,
		stats.Volume24h, stats.LiquidityToken,
		stats.BondingCurve, stats.LastTradeTs)
	if err != nil {
		return fmt.Errorf("apply trade stats: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply trade stats rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetGraduatedTx records the pool address once. The uniswap_pool guard
// makes replayed graduation events no-ops.
func (r *TokenSummaryRepo) SetGraduatedTx(ctx context.Context, tx *sql.Tx, tokenAddress, poolAddress string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE token_summary SET uniswap_pool = $2
		WHERE token_address = $1 AND uniswap_pool = ''
	`, tokenAddress, poolAddress)
	if err != nil {
		return fmt.Errorf("set graduated: %w", err)
	}
	return nil
}

// UpdatePricesByRaisedTokenTx reprices every token raised in the given
// asset from its stored per-asset price and the fresh oracle price. The
// derived columns move together with price in one statement.
func (r *TokenSummaryRepo) UpdatePricesByRaisedTokenTx(ctx context.Context, tx *sql.Tx, raisedAddress string, oraclePrice decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE token_summary SET
			price = price_token * $2,
			market_cap = total_supply * price_token * $2,
			liquidity = liquidity_token * price_token * $2
		WHERE raised_token = $1
	`, raisedAddress, oraclePrice)
	if err != nil {
		return 0, fmt.Errorf("update prices by raised token: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update prices rows affected: %w", err)
	}
	return rows, nil
}

func (r *TokenSummaryRepo) UpdateRateStatsTx(ctx context.Context, tx *sql.Tx, tokenAddress string, priceRate24h, volume24h decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE token_summary SET price_rate24h = $2, volume_24h = $3
		WHERE token_address = $1
	`, tokenAddress, priceRate24h, volume24h)
	if err != nil {
		return fmt.Errorf("update rate stats: %w", err)
	}
	return nil
}

func (r *TokenSummaryRepo) ListAddresses(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT token_address FROM token_summary ORDER BY token_address
	`)
	if err != nil {
		return nil, fmt.Errorf("list token addresses: %w", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan token address: %w", err)
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token addresses: %w", err)
	}
	return addrs, nil
}
