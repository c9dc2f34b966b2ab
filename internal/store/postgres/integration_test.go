//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
	"github.com/maxfuntrading/maxfun-evt/internal/store/postgres"
)

const (
	itToken  = "0xb2284b8eee1e364f6bd4fa814e64303819a16ae8"
	itRaised = "0x55d398326f99059ff775485246999027b3197955"
	itOracle = "0xcccccccccccccccccccccccccccccccccccccccc"
	itUser   = "0xf41bbb59b4291ae8711ef276ddc0a26e6ad0137c"
)

func inTx(t *testing.T, db *postgres.DB, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func seedRaisedToken(t *testing.T, db *postgres.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO raised_token (address, name, symbol, decimal, oracle, price, create_ts)
		VALUES ($1, 'Tether USD', 'USDT', 18, $2, 1, 1700000000)
		ON CONFLICT (address) DO NOTHING
	`, itRaised, itOracle)
	require.NoError(t, err)
}

func seedSummary(t *testing.T, db *postgres.DB) {
	t.Helper()
	seedRaisedToken(t, db)
	repo := postgres.NewTokenSummaryRepo(db)
	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.InsertTx(context.Background(), tx, &model.TokenSummary{
			TokenAddress: itToken,
			RaisedToken:  itRaised,
			Price:        decimal.RequireFromString("0.000025"),
			PriceToken:   decimal.RequireFromString("0.000025"),
			TotalSupply:  decimal.NewFromInt(1_000_000_000),
			MarketCap:    decimal.RequireFromString("25000"),
		}))
	})
}

func TestEventLogRepo_DuplicateInsert(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewEventLogRepo(db)
	ctx := context.Background()

	log := &model.EventLog{
		BlockNumber: 100, TxnIndex: 3, LogIndex: 7,
		BlockTime: 1700000100, TxnHash: "0xabc", Address: itToken,
		Topic0: "0xdeadbeef",
	}

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.InsertTx(ctx, tx, log))
	})
	inTx(t, db, func(tx *sql.Tx) {
		err := repo.InsertTx(ctx, tx, log)
		assert.ErrorIs(t, err, store.ErrAlreadyProcessed)
	})
}

func TestCandleRepo_MergeSemantics(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewCandleRepo(db)
	ctx := context.Background()

	first := &model.Candle{
		TokenAddress: itToken, OpenTs: 1700000100, CloseTs: 1700000399,
		Open:  decimal.NewFromInt(10),
		High:  decimal.NewFromInt(10),
		Low:   decimal.NewFromInt(10),
		Close: decimal.NewFromInt(10),
		Volume: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50), TxnNum: 1,
	}
	second := &model.Candle{
		TokenAddress: itToken, OpenTs: 1700000100, CloseTs: 1700000399,
		Open:  decimal.NewFromInt(12),
		High:  decimal.NewFromInt(12),
		Low:   decimal.NewFromInt(8),
		Close: decimal.NewFromInt(8),
		Volume: decimal.NewFromInt(3), Amount: decimal.NewFromInt(30), TxnNum: 1,
	}

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.UpsertTradeTx(ctx, tx, first))
		require.NoError(t, repo.UpsertTradeTx(ctx, tx, second))
	})

	var open, high, low, close_, volume, amount decimal.Decimal
	var txnNum int64
	err := db.QueryRow(`
		SELECT open, high, low, close, volume, amount, txn_num
		FROM kline_5m WHERE token_address = $1 AND open_ts = $2
	`, itToken, int64(1700000100)).Scan(&open, &high, &low, &close_, &volume, &amount, &txnNum)
	require.NoError(t, err)

	assert.True(t, open.Equal(decimal.NewFromInt(10)), "open is first write")
	assert.True(t, high.Equal(decimal.NewFromInt(12)))
	assert.True(t, low.Equal(decimal.NewFromInt(8)))
	assert.True(t, close_.Equal(decimal.NewFromInt(8)), "close is last write")
	assert.True(t, volume.Equal(decimal.NewFromInt(8)))
	assert.True(t, amount.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, int64(2), txnNum)
}

func TestCandleRepo_BaselineFallsBackToEarliest(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewCandleRepo(db)
	ctx := context.Background()

	token := "0x2222222222222222222222222222222222222222"
	mk := func(openTs int64, close int64) *model.Candle {
		c := decimal.NewFromInt(close)
		return &model.Candle{
			TokenAddress: token, OpenTs: openTs, CloseTs: openTs + 299,
			Open: c, High: c, Low: c, Close: c,
		}
	}

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.UpsertTradeTx(ctx, tx, mk(1700000400, 7)))
		require.NoError(t, repo.UpsertTradeTx(ctx, tx, mk(1700000700, 9)))
	})

	inTx(t, db, func(tx *sql.Tx) {
		// Cutoff before any candle: earliest close is the baseline.
		baseline, ok, err := repo.BaselineCloseTx(ctx, tx, token, 1700000000)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, baseline.Equal(decimal.NewFromInt(7)))

		// Cutoff between the two: latest candle at or before it wins.
		baseline, ok, err = repo.BaselineCloseTx(ctx, tx, token, 1700000500)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, baseline.Equal(decimal.NewFromInt(7)))

		// Unknown token has no baseline.
		_, ok, err = repo.BaselineCloseTx(ctx, tx, "0x3333333333333333333333333333333333333333", 1700000500)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestTokenSummaryRepo_ApplyTradeStats(t *testing.T) {
	db := testDB(t)
	seedSummary(t, db)
	repo := postgres.NewTokenSummaryRepo(db)
	ctx := context.Background()

	inTx(t, db, func(tx *sql.Tx) {
		meta, err := repo.TradeMetaForUpdateTx(ctx, tx, itToken)
		require.NoError(t, err)
		assert.Equal(t, int32(18), meta.RaisedDecimal)
		assert.Equal(t, itOracle, meta.OracleAddress)

		require.NoError(t, repo.ApplyTradeStatsTx(ctx, tx, store.ApplyTradeStats{
			TokenAddress:   itToken,
			Price:          decimal.RequireFromString("0.00003"),
			PriceToken:     decimal.RequireFromString("0.00003"),
			PriceRate24h:   decimal.RequireFromString("0.2"),
			Volume24h:      decimal.NewFromInt(1000),
			LiquidityToken: decimal.NewFromInt(100000),
			BondingCurve:   decimal.RequireFromString("0.25"),
			LastTradeTs:    1700000500,
		}))
	})

	inTx(t, db, func(tx *sql.Tx) {
		s, err := repo.GetForUpdateTx(ctx, tx, itToken)
		require.NoError(t, err)
		assert.True(t, s.Price.Equal(decimal.RequireFromString("0.00003")))
		assert.True(t, s.MarketCap.Equal(decimal.NewFromInt(30000)), "market_cap = total_supply * price, got %s", s.MarketCap)
		assert.True(t, s.LiquidityToken.Equal(decimal.NewFromInt(100000)), "sold amount is overwritten, got %s", s.LiquidityToken)
		assert.True(t, s.Liquidity.Equal(decimal.NewFromInt(3)), "liquidity = liquidity_token * price, got %s", s.Liquidity)
		assert.Equal(t, int64(1700000500), s.LastTradeTs)
	})
}

func TestTokenSummaryRepo_GraduationIsSticky(t *testing.T) {
	db := testDB(t)
	seedSummary(t, db)
	repo := postgres.NewTokenSummaryRepo(db)
	ctx := context.Background()

	pool1 := "0x4444444444444444444444444444444444444444"
	pool2 := "0x5555555555555555555555555555555555555555"

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.SetGraduatedTx(ctx, tx, itToken, pool1))
		require.NoError(t, repo.SetGraduatedTx(ctx, tx, itToken, pool2))
	})

	inTx(t, db, func(tx *sql.Tx) {
		s, err := repo.GetForUpdateTx(ctx, tx, itToken)
		require.NoError(t, err)
		assert.Equal(t, pool1, s.UniswapPool, "first pool wins")
	})
}

func TestTokenSummaryRepo_RepriceByRaisedToken(t *testing.T) {
	db := testDB(t)
	seedSummary(t, db)
	repo := postgres.NewTokenSummaryRepo(db)
	ctx := context.Background()

	inTx(t, db, func(tx *sql.Tx) {
		rows, err := repo.UpdatePricesByRaisedTokenTx(ctx, tx, itRaised, decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rows, int64(1))
	})

	inTx(t, db, func(tx *sql.Tx) {
		s, err := repo.GetForUpdateTx(ctx, tx, itToken)
		require.NoError(t, err)
		assert.True(t, s.Price.Equal(s.PriceToken.Mul(decimal.NewFromInt(2))))
		assert.True(t, s.MarketCap.Equal(s.TotalSupply.Mul(s.Price)), "market_cap must track price")
		assert.True(t, s.Liquidity.Equal(s.LiquidityToken.Mul(s.Price)), "liquidity must track price")
	})
}

func TestUserPositionRepo_LastWriterWins(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewUserPositionRepo(db)
	ctx := context.Background()

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.UpsertTx(ctx, tx, &model.UserPosition{
			UserAddress: itUser, TokenAddress: itToken,
			Amount: decimal.NewFromInt(100), UpdateTs: 1700000100,
		}))
		require.NoError(t, repo.UpsertTx(ctx, tx, &model.UserPosition{
			UserAddress: itUser, TokenAddress: itToken,
			Amount: decimal.NewFromInt(40), UpdateTs: 1700000200,
		}))
	})

	var amount decimal.Decimal
	var updateTs int64
	err := db.QueryRow(`
		SELECT amount, update_ts FROM user_summary WHERE user_address = $1 AND token_address = $2
	`, itUser, itToken).Scan(&amount, &updateTs)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(40)), "balance is overwritten, not accumulated")
	assert.Equal(t, int64(1700000200), updateTs)
}

func TestTokenInfoRepo_BindLaunch(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewTokenInfoRepo(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO token_info (id) VALUES (42) ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.BindLaunchTx(ctx, tx, 42, itToken, "0x6666666666666666666666666666666666666666", 1700000100))

		err := repo.BindLaunchTx(ctx, tx, 999, itToken, "", 1700000100)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	var launched bool
	var addr string
	require.NoError(t, db.QueryRow(`SELECT is_launched, token_address FROM token_info WHERE id = 42`).Scan(&launched, &addr))
	assert.False(t, launched, "binding does not open the pool")
	assert.Equal(t, itToken, addr)

	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.MarkGraduatedTx(ctx, tx, itToken, 1700000500))

		err := repo.MarkGraduatedTx(ctx, tx, "0x7777777777777777777777777777777777777777", 1700000500)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	var launchTs int64
	require.NoError(t, db.QueryRow(`SELECT is_launched, launch_ts FROM token_info WHERE id = 42`).Scan(&launched, &launchTs))
	assert.True(t, launched)
	assert.Equal(t, int64(1700000500), launchTs)
}
