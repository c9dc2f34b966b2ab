package aggregate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// Epsilon replaces a zero or missing price baseline so rate division never
// blows up; a token trading at any real price against it shows an extreme
// positive rate instead of an error.
var Epsilon = decimal.New(1, -18)

const day = 24 * 60 * 60

// Engine computes the derived market stats: OHLCV candle merging and the
// rolling 24h volume and price change rate.
type Engine struct {
	candles store.CandleRepository
}

func NewEngine(candles store.CandleRepository) *Engine {
	return &Engine{candles: candles}
}

// TradeCandle builds the single-trade candle for a trade at ts: all four
// price points are the trade price, volume/amount carry the trade's size.
func TradeCandle(tokenAddress string, price, volume, amount decimal.Decimal, ts int64) *model.Candle {
	openTs := PeriodM5.OpenTs(ts)
	return &model.Candle{
		TokenAddress: tokenAddress,
		OpenTs:       openTs,
		CloseTs:      PeriodM5.CloseTs(openTs),
		Open:         price,
		High:         price,
		Low:          price,
		Close:        price,
		Volume:       volume,
		Amount:       amount,
		TxnNum:       1,
	}
}

// EmptyCandle builds the all-zero origin candle written at launch. The
// token's chart starts flat at zero until its first trade merges in.
func EmptyCandle(tokenAddress string, ts int64) *model.Candle {
	openTs := PeriodM5.OpenTs(ts)
	return &model.Candle{
		TokenAddress: tokenAddress,
		OpenTs:       openTs,
		CloseTs:      PeriodM5.CloseTs(openTs),
	}
}

func (e *Engine) UpsertTradeTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error {
	return e.candles.UpsertTradeTx(ctx, tx, c)
}

func (e *Engine) SeedCandleTx(ctx context.Context, tx *sql.Tx, c *model.Candle) error {
	return e.candles.InsertEmptyTx(ctx, tx, c)
}

// Rate24h computes the rolling 24h stats against the candle history.
//
// The cutoff is the current 5-minute bucket boundary minus 24h, so every
// caller inside one bucket sees the same window. extraVolume lets the trade
// path count the in-flight trade whose candle merge happens after the
// summary update in the same transaction; sweeps pass zero.
func (e *Engine) Rate24h(ctx context.Context, tx *sql.Tx, tokenAddress string, currentPrice decimal.Decimal, now int64, extraVolume decimal.Decimal) (rate, volume24h decimal.Decimal, err error) {
	cutoff := PeriodM5.OpenTs(now) - day

	volume, err := e.candles.SumVolumeSinceTx(ctx, tx, tokenAddress, cutoff)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("volume 24h for %s: %w", tokenAddress, err)
	}
	volume = volume.Add(extraVolume)

	baseline, ok, err := e.candles.BaselineCloseTx(ctx, tx, tokenAddress, cutoff)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("baseline for %s: %w", tokenAddress, err)
	}
	if !ok || baseline.IsZero() {
		baseline = Epsilon
	}

	rate = currentPrice.Sub(baseline).Div(baseline)
	return rate, volume, nil
}
