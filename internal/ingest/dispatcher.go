package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxfuntrading/maxfun-evt/internal/chain/rpc"
	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/events"
	"github.com/maxfuntrading/maxfun-evt/internal/metrics"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// Dispatcher classifies raw factory logs by topic_0 and routes them to the
// launch, trade and graduation processors. Every failure stops at this
// boundary: decode failures and unknown topics are counted and skipped,
// and a processor failure rolls back only that event's transaction before
// the event is dropped. A bad event never stalls the scanning window; only
// context cancellation propagates to the scanner.
type Dispatcher struct {
	launch     *LaunchProcessor
	trade      *TradeProcessor
	graduation *GraduationProcessor
	logger     *slog.Logger
}

func NewDispatcher(launch *LaunchProcessor, trade *TradeProcessor, graduation *GraduationProcessor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		launch:     launch,
		trade:      trade,
		graduation: graduation,
		logger:     logger.With("component", "dispatcher"),
	}
}

// Dispatch processes one log. blockTime is the timestamp of the log's block.
func (d *Dispatcher) Dispatch(ctx context.Context, log *rpc.Log, blockTime int64) error {
	evtLog, err := toEventLog(log, blockTime)
	if err != nil {
		metrics.EventsSkippedTotal.WithLabelValues("malformed_log").Inc()
		d.logger.Warn("skipping malformed log", "txn_hash", log.TransactionHash, "error", err)
		return nil
	}

	topic0 := evtLog.Topic0
	name := events.EventName(topic0)
	if name == "" {
		metrics.EventsUnknownTotal.Inc()
		d.logger.Warn("unknown event topic", "topic_0", topic0, "txn_hash", evtLog.TxnHash)
		return nil
	}

	err = d.route(ctx, topic0, evtLog, log)
	if err == nil {
		metrics.EventsDecodedTotal.WithLabelValues(name).Inc()
		return nil
	}
	if errors.Is(err, store.ErrAlreadyProcessed) {
		metrics.EventsDuplicateTotal.Inc()
		d.logger.Debug("event already processed",
			"event", name,
			"block", evtLog.BlockNumber, "txn_index", evtLog.TxnIndex, "log_index", evtLog.LogIndex)
		return nil
	}

	var decodeErr *events.DecodeError
	if errors.As(err, &decodeErr) {
		metrics.EventsSkippedTotal.WithLabelValues("decode_error").Inc()
		d.logger.Warn("skipping undecodable event",
			"event", name, "txn_hash", evtLog.TxnHash, "error", err)
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("process %s event: %w", name, err)
	}

	// The event's transaction has already rolled back. Retrying the window
	// would replay the same failure and pin the cursor, so the event is
	// dropped here and the reconciliation sweeps repair any drift.
	metrics.EventsFailedTotal.WithLabelValues(name).Inc()
	d.logger.Error("dropping event after processing failure",
		"event", name,
		"block", evtLog.BlockNumber, "txn_index", evtLog.TxnIndex, "log_index", evtLog.LogIndex,
		"txn_hash", evtLog.TxnHash,
		"error", err)
	return nil
}

func (d *Dispatcher) route(ctx context.Context, topic0 string, evtLog *model.EventLog, log *rpc.Log) error {
	switch topic0 {
	case events.TopicLaunched:
		evt, err := events.DecodeLaunched(log.Topics, log.Data)
		if err != nil {
			return err
		}
		return d.launch.Handle(ctx, evtLog, evt)

	case events.TopicInitialBuyAndUpdate, events.TopicBought:
		evt, err := events.DecodeTrade(log.Topics, log.Data, model.TradeTypeBuy)
		if err != nil {
			return err
		}
		return d.trade.Handle(ctx, evtLog, evt)

	case events.TopicSold:
		evt, err := events.DecodeTrade(log.Topics, log.Data, model.TradeTypeSell)
		if err != nil {
			return err
		}
		return d.trade.Handle(ctx, evtLog, evt)

	case events.TopicGraduated:
		evt, err := events.DecodeGraduated(log.Topics)
		if err != nil {
			return err
		}
		return d.graduation.Handle(ctx, evtLog, evt)
	}
	return fmt.Errorf("no processor for topic %s", topic0)
}

// toEventLog converts a wire-format log into the storage row.
func toEventLog(log *rpc.Log, blockTime int64) (*model.EventLog, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}

	blockNumber, err := rpc.ParseHexUint64(log.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	txnIndex, err := rpc.ParseHexUint64(log.TransactionIndex)
	if err != nil {
		return nil, fmt.Errorf("txn index: %w", err)
	}
	logIndex, err := rpc.ParseHexUint64(log.LogIndex)
	if err != nil {
		return nil, fmt.Errorf("log index: %w", err)
	}

	evtLog := &model.EventLog{
		BlockNumber: int64(blockNumber),
		TxnIndex:    int64(txnIndex),
		LogIndex:    int64(logIndex),
		BlockTime:   blockTime,
		TxnHash:     log.TransactionHash,
		Address:     log.Address,
		Topic0:      log.Topics[0],
	}
	if len(log.Topics) > 1 {
		evtLog.Topic1 = &log.Topics[1]
	}
	if len(log.Topics) > 2 {
		evtLog.Topic2 = &log.Topics[2]
	}
	if len(log.Topics) > 3 {
		evtLog.Topic3 = &log.Topics[3]
	}
	if log.Data != "" {
		evtLog.Data = &log.Data
	}
	return evtLog, nil
}
