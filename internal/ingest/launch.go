package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxfuntrading/maxfun-evt/internal/aggregate"
	"github.com/maxfuntrading/maxfun-evt/internal/chain"
	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/events"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// LaunchProcessor materializes a new token: the summary row, the audit log,
// the off-chain metadata binding and the chart's origin candle. Every
// monetary field starts at zero; the token's first trade writes the real
// price, market cap and candle values.
type LaunchProcessor struct {
	db        store.TxBeginner
	chain     chain.Client
	eventLogs store.EventLogRepository
	summaries store.TokenSummaryRepository
	tokenInfo store.TokenInfoRepository
	engine    *aggregate.Engine
	logger    *slog.Logger
}

func NewLaunchProcessor(
	db store.TxBeginner,
	chainClient chain.Client,
	eventLogs store.EventLogRepository,
	summaries store.TokenSummaryRepository,
	tokenInfo store.TokenInfoRepository,
	engine *aggregate.Engine,
	logger *slog.Logger,
) *LaunchProcessor {
	return &LaunchProcessor{
		db:        db,
		chain:     chainClient,
		eventLogs: eventLogs,
		summaries: summaries,
		tokenInfo: tokenInfo,
		engine:    engine,
		logger:    logger.With("component", "launch"),
	}
}

func (p *LaunchProcessor) Handle(ctx context.Context, evtLog *model.EventLog, evt *events.Launched) error {
	totalSupply, err := p.chain.TotalSupply(ctx, evt.Token, 18)
	if err != nil {
		return fmt.Errorf("total supply for %s: %w", evt.Token, err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin launch tx: %w", err)
	}
	defer tx.Rollback()

	if err := p.eventLogs.InsertTx(ctx, tx, evtLog); err != nil {
		return err
	}

	if err := p.eventLogs.InsertLaunchTx(ctx, tx, &model.LaunchLog{
		BlockNumber:   evtLog.BlockNumber,
		TxnIndex:      evtLog.TxnIndex,
		LogIndex:      evtLog.LogIndex,
		BlockTime:     evtLog.BlockTime,
		TxnHash:       evtLog.TxnHash,
		TokenAddress:  evt.Token,
		RaisedAddress: evt.Asset,
		PairAddress:   evt.Pair,
		TokenID:       evt.ID,
		InitPrice:     evt.InitPrice.String(),
	}); err != nil {
		return err
	}

	if err := p.summaries.InsertTx(ctx, tx, &model.TokenSummary{
		TokenAddress: evt.Token,
		RaisedToken:  evt.Asset,
		PairAddress:  evt.Pair,
		TotalSupply:  totalSupply,
		LastTradeTs:  evtLog.BlockTime,
	}); err != nil {
		return err
	}

	if err := p.tokenInfo.BindLaunchTx(ctx, tx, evt.ID, evt.Token, evt.Pair, evtLog.BlockTime); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		// A launch this deployment has no metadata for is still indexed.
		p.logger.Warn("no token_info row for launch", "token_id", evt.ID, "token", evt.Token)
	}

	if err := p.engine.SeedCandleTx(ctx, tx, aggregate.EmptyCandle(evt.Token, evtLog.BlockTime)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit launch tx: %w", err)
	}

	p.logger.Info("token launched",
		"token", evt.Token,
		"raised_token", evt.Asset,
		"token_id", evt.ID,
		"total_supply", totalSupply.String(),
		"block", evtLog.BlockNumber)
	return nil
}
