//go:build integration

package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maxfuntrading/maxfun-evt/internal/aggregate"
	"github.com/maxfuntrading/maxfun-evt/internal/chain/rpc"
	"github.com/maxfuntrading/maxfun-evt/internal/reconcile"
	"github.com/maxfuntrading/maxfun-evt/internal/store/postgres"
)

const (
	swToken  = "0xb2284b8eee1e364f6bd4fa814e64303819a16ae8"
	swRaised = "0x55d398326f99059ff775485246999027b3197955"
	swOracle = "0xcccccccccccccccccccccccccccccccccccccccc"
)

type fakeChain struct {
	oraclePrice decimal.Decimal
}

func (f *fakeChain) GetBlockNumber(context.Context) (uint64, error)      { return 0, nil }
func (f *fakeChain) GetBlockTime(context.Context, uint64) (int64, error) { return 0, nil }
func (f *fakeChain) GetLogs(context.Context, rpc.LogFilter) ([]*rpc.Log, error) {
	return nil, nil
}
func (f *fakeChain) BalanceOf(context.Context, string, string, int32) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeChain) TotalSupply(context.Context, string, int32) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeChain) OraclePrice(context.Context, string) (decimal.Decimal, error) {
	return f.oraclePrice, nil
}
func (f *fakeChain) CurveProgress(context.Context, string) (decimal.Decimal, decimal.Decimal, error) {
	return decimal.Zero, decimal.Zero, nil
}

func setupDB(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "store", "postgres", "migrations")

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("test_maxfun_evt"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.New(postgres.Config{
		URL:             connStr,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(migrationsDir))
	return db
}

func seed(t *testing.T, db *postgres.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO raised_token (address, name, symbol, decimal, oracle, price, create_ts)
		VALUES ($1, 'Tether USD', 'USDT', 18, $2, 1, 1700000000)
	`, swRaised, swOracle)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO token_summary (token_address, raised_token, price, price_token, total_supply, market_cap, liquidity_token, liquidity)
		VALUES ($1, $2, 0.5, 0.5, 1000, 500, 40, 20)
	`, swToken, swRaised)
	require.NoError(t, err)
}

func TestPriceSweep_RepricesSummaries(t *testing.T) {
	db := setupDB(t)
	seed(t, db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sweep := reconcile.NewPriceSweep(db, &fakeChain{oraclePrice: decimal.NewFromInt(2)},
		postgres.NewRaisedTokenRepo(db), postgres.NewTokenSummaryRepo(db), logger)

	require.NoError(t, sweep.Run(context.Background()))

	var raisedPrice decimal.Decimal
	require.NoError(t, db.QueryRow(`SELECT price FROM raised_token WHERE address = $1`, swRaised).Scan(&raisedPrice))
	assert.True(t, raisedPrice.Equal(decimal.NewFromInt(2)))

	var price, marketCap, liquidity decimal.Decimal
	require.NoError(t, db.QueryRow(`
		SELECT price, market_cap, liquidity FROM token_summary WHERE token_address = $1
	`, swToken).Scan(&price, &marketCap, &liquidity))
	assert.True(t, price.Equal(decimal.NewFromInt(1)), "0.5 price_token at oracle 2, got %s", price)
	assert.True(t, marketCap.Equal(decimal.NewFromInt(1000)), "market_cap tracks the new price, got %s", marketCap)
	assert.True(t, liquidity.Equal(decimal.NewFromInt(40)), "liquidity_token 40 at the new USD price 1, got %s", liquidity)
}

func TestRateSweep_RefreshesRollingStats(t *testing.T) {
	db := setupDB(t)
	seed(t, db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	now := int64(1700090000)
	cutoff := (now/300)*300 - 86400

	// One candle inside the 24h window, one stale candle before it.
	_, err := db.Exec(`
		INSERT INTO kline_5m (token_address, open_ts, close_ts, open, high, low, close, volume, amount, txn_num)
		VALUES ($1, $2, $2 + 299, 0.25, 0.25, 0.25, 0.25, 30, 7.5, 3),
		       ($1, $3, $3 + 299, 0.4, 0.5, 0.4, 0.5, 100, 50, 9)
	`, swToken, cutoff-600, cutoff+600)
	require.NoError(t, err)

	sweep := reconcile.NewRateSweep(db, postgres.NewTokenSummaryRepo(db),
		aggregate.NewEngine(postgres.NewCandleRepo(db)), logger)
	sweep.SetNow(func() int64 { return now })

	require.NoError(t, sweep.Run(context.Background()))

	var rate, volume decimal.Decimal
	require.NoError(t, db.QueryRow(`
		SELECT price_rate24h, volume_24h FROM token_summary WHERE token_address = $1
	`, swToken).Scan(&rate, &volume))

	// Baseline is the stale candle's close 0.25; summary price is 0.5.
	assert.True(t, rate.Equal(decimal.NewFromInt(1)), "got %s", rate)
	assert.True(t, volume.Equal(decimal.NewFromInt(100)), "only in-window candles count, got %s", volume)
}
