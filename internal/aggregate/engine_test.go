package aggregate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

type fakeCandles struct {
	volume      decimal.Decimal
	baseline    decimal.Decimal
	hasBaseline bool

	sumSinceTs     int64
	baselineCutoff int64
	upserted       []*model.Candle
	seeded         []*model.Candle
}

func (f *fakeCandles) UpsertTradeTx(_ context.Context, _ *sql.Tx, c *model.Candle) error {
	f.upserted = append(f.upserted, c)
	return nil
}

func (f *fakeCandles) InsertEmptyTx(_ context.Context, _ *sql.Tx, c *model.Candle) error {
	f.seeded = append(f.seeded, c)
	return nil
}

func (f *fakeCandles) SumVolumeSinceTx(_ context.Context, _ *sql.Tx, _ string, sinceTs int64) (decimal.Decimal, error) {
	f.sumSinceTs = sinceTs
	return f.volume, nil
}

func (f *fakeCandles) BaselineCloseTx(_ context.Context, _ *sql.Tx, _ string, cutoffTs int64) (decimal.Decimal, bool, error) {
	f.baselineCutoff = cutoffTs
	return f.baseline, f.hasBaseline, nil
}

func TestTradeCandle(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("0.000025")
	c := TradeCandle("0xabc", price, decimal.NewFromInt(100), decimal.RequireFromString("0.0025"), 1702696269)

	assert.Equal(t, int64(1702696200), c.OpenTs)
	assert.Equal(t, int64(1702696499), c.CloseTs)
	assert.True(t, c.Open.Equal(price))
	assert.True(t, c.High.Equal(price))
	assert.True(t, c.Low.Equal(price))
	assert.True(t, c.Close.Equal(price))
	assert.True(t, c.Volume.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), c.TxnNum)
}

func TestEmptyCandle(t *testing.T) {
	t.Parallel()

	c := EmptyCandle("0xabc", 1702696269)
	assert.Equal(t, int64(1702696200), c.OpenTs)
	assert.Equal(t, int64(1702696499), c.CloseTs)
	assert.True(t, c.Open.IsZero())
	assert.True(t, c.High.IsZero())
	assert.True(t, c.Low.IsZero())
	assert.True(t, c.Close.IsZero())
	assert.True(t, c.Volume.IsZero())
	assert.True(t, c.Amount.IsZero())
	assert.Equal(t, int64(0), c.TxnNum)
}

func TestRate24h(t *testing.T) {
	t.Parallel()

	fake := &fakeCandles{
		volume:      decimal.NewFromInt(100),
		baseline:    decimal.NewFromInt(10),
		hasBaseline: true,
	}
	engine := NewEngine(fake)

	now := int64(1702696269)
	rate, volume, err := engine.Rate24h(context.Background(), nil, "0xabc",
		decimal.NewFromInt(12), now, decimal.NewFromInt(5))
	require.NoError(t, err)

	// Cutoff snaps to the 5-minute boundary before subtracting 24h.
	wantCutoff := int64(1702696200 - 86400)
	assert.Equal(t, wantCutoff, fake.sumSinceTs)
	assert.Equal(t, wantCutoff, fake.baselineCutoff)

	assert.True(t, rate.Equal(decimal.RequireFromString("0.2")), "got %s", rate)
	assert.True(t, volume.Equal(decimal.NewFromInt(105)), "extra volume is counted, got %s", volume)
}

func TestRate24h_NoBaselineUsesEpsilon(t *testing.T) {
	t.Parallel()

	fake := &fakeCandles{hasBaseline: false}
	engine := NewEngine(fake)

	price := decimal.RequireFromString("0.5")
	rate, _, err := engine.Rate24h(context.Background(), nil, "0xabc", price, 1702696269, decimal.Zero)
	require.NoError(t, err)

	want := price.Sub(Epsilon).Div(Epsilon)
	assert.True(t, rate.Equal(want), "got %s", rate)
}

func TestRate24h_ZeroBaselineUsesEpsilon(t *testing.T) {
	t.Parallel()

	fake := &fakeCandles{hasBaseline: true, baseline: decimal.Zero}
	engine := NewEngine(fake)

	rate, _, err := engine.Rate24h(context.Background(), nil, "0xabc", decimal.NewFromInt(1), 1702696269, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, rate.IsPositive())
	assert.True(t, rate.GreaterThan(decimal.NewFromInt(1)))
}
