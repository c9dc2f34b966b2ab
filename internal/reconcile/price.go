package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxfuntrading/maxfun-evt/internal/chain"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// PriceSweep refreshes every raised asset's USD price from its oracle and
// reprices the token summaries raised in that asset. Each asset commits
// independently: one unreachable oracle does not block the others.
type PriceSweep struct {
	db        store.TxBeginner
	chain     chain.Client
	raised    store.RaisedTokenRepository
	summaries store.TokenSummaryRepository
	logger    *slog.Logger
}

func NewPriceSweep(
	db store.TxBeginner,
	chainClient chain.Client,
	raised store.RaisedTokenRepository,
	summaries store.TokenSummaryRepository,
	logger *slog.Logger,
) *PriceSweep {
	return &PriceSweep{
		db:        db,
		chain:     chainClient,
		raised:    raised,
		summaries: summaries,
		logger:    logger.With("sweep", "price"),
	}
}

func (s *PriceSweep) Name() string { return "price" }

func (s *PriceSweep) Run(ctx context.Context) error {
	assets, err := s.raised.List(ctx)
	if err != nil {
		return fmt.Errorf("list raised tokens: %w", err)
	}

	var errs []error
	for _, asset := range assets {
		if err := s.reprice(ctx, asset.Address, asset.Oracle); err != nil {
			s.logger.Warn("repricing failed", "raised_token", asset.Address, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", asset.Symbol, err))
		}
	}
	return errors.Join(errs...)
}

func (s *PriceSweep) reprice(ctx context.Context, raisedAddress, oracleAddress string) error {
	price, err := s.chain.OraclePrice(ctx, oracleAddress)
	if err != nil {
		return fmt.Errorf("oracle price: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin price tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.raised.UpdatePriceTx(ctx, tx, raisedAddress, price); err != nil {
		return err
	}
	updated, err := s.summaries.UpdatePricesByRaisedTokenTx(ctx, tx, raisedAddress, price)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit price tx: %w", err)
	}

	s.logger.Info("raised token repriced",
		"raised_token", raisedAddress,
		"price", price.String(),
		"summaries_updated", updated)
	return nil
}
