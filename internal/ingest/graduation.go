package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/events"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// GraduationProcessor records a token leaving its bonding curve for the
// external pool. The pool address is written once; replays are no-ops.
type GraduationProcessor struct {
	db        store.TxBeginner
	eventLogs store.EventLogRepository
	summaries store.TokenSummaryRepository
	tokenInfo store.TokenInfoRepository
	logger    *slog.Logger
}

func NewGraduationProcessor(
	db store.TxBeginner,
	eventLogs store.EventLogRepository,
	summaries store.TokenSummaryRepository,
	tokenInfo store.TokenInfoRepository,
	logger *slog.Logger,
) *GraduationProcessor {
	return &GraduationProcessor{
		db:        db,
		eventLogs: eventLogs,
		summaries: summaries,
		tokenInfo: tokenInfo,
		logger:    logger.With("component", "graduation"),
	}
}

func (p *GraduationProcessor) Handle(ctx context.Context, evtLog *model.EventLog, evt *events.Graduated) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin graduation tx: %w", err)
	}
	defer tx.Rollback()

	if err := p.eventLogs.InsertTx(ctx, tx, evtLog); err != nil {
		return err
	}

	if err := p.tokenInfo.MarkGraduatedTx(ctx, tx, evt.Token, evtLog.BlockTime); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		p.logger.Warn("graduation for token without metadata row", "token", evt.Token)
	}

	if err := p.summaries.SetGraduatedTx(ctx, tx, evt.Token, evt.Pair); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit graduation tx: %w", err)
	}

	p.logger.Info("token graduated", "token", evt.Token, "pool", evt.Pair, "block", evtLog.BlockNumber)
	return nil
}
