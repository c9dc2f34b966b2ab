package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/aggregate"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// RateSweep recomputes the rolling 24h volume and price change rate for
// every token, so stats decay even when a token stops trading. Each token
// runs in its own transaction holding the summary row lock, serializing
// against the trade path.
type RateSweep struct {
	db        store.TxBeginner
	summaries store.TokenSummaryRepository
	engine    *aggregate.Engine
	logger    *slog.Logger

	// now is swappable for tests.
	now func() int64
}

func NewRateSweep(
	db store.TxBeginner,
	summaries store.TokenSummaryRepository,
	engine *aggregate.Engine,
	logger *slog.Logger,
) *RateSweep {
	return &RateSweep{
		db:        db,
		summaries: summaries,
		engine:    engine,
		logger:    logger.With("sweep", "rate"),
		now:       func() int64 { return time.Now().Unix() },
	}
}

func (s *RateSweep) Name() string { return "rate" }

// SetNow overrides the sweep's clock. Tests only.
func (s *RateSweep) SetNow(now func() int64) { s.now = now }

func (s *RateSweep) Run(ctx context.Context) error {
	addrs, err := s.summaries.ListAddresses(ctx)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}

	now := s.now()
	var errs []error
	for _, addr := range addrs {
		if err := s.refresh(ctx, addr, now); err != nil {
			s.logger.Warn("rate refresh failed", "token", addr, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		}
	}

	s.logger.Debug("rate sweep finished", "tokens", len(addrs), "failed", len(errs))
	return errors.Join(errs...)
}

func (s *RateSweep) refresh(ctx context.Context, tokenAddress string, now int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate tx: %w", err)
	}
	defer tx.Rollback()

	summary, err := s.summaries.GetForUpdateTx(ctx, tx, tokenAddress)
	if err != nil {
		return err
	}

	rate, volume24h, err := s.engine.Rate24h(ctx, tx, tokenAddress, summary.Price, now, decimal.Zero)
	if err != nil {
		return err
	}

	if err := s.summaries.UpdateRateStatsTx(ctx, tx, tokenAddress, rate, volume24h); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rate tx: %w", err)
	}
	return nil
}
