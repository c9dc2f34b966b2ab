package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maxfuntrading/maxfun-evt/internal/alert"
	"github.com/maxfuntrading/maxfun-evt/internal/chain"
	"github.com/maxfuntrading/maxfun-evt/internal/chain/rpc"
	"github.com/maxfuntrading/maxfun-evt/internal/events"
	"github.com/maxfuntrading/maxfun-evt/internal/metrics"
	"github.com/maxfuntrading/maxfun-evt/internal/retry"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// LogDispatcher consumes the logs of a scanned window in order.
type LogDispatcher interface {
	Dispatch(ctx context.Context, log *rpc.Log, blockTime int64) error
}

type Config struct {
	FactoryAddr string
	// InitBlock seeds the cursor on first start; ignored once a cursor exists.
	InitBlock uint64
	// PollInterval is the idle sleep when the head has not advanced enough.
	PollInterval time.Duration
	// MaxBlockRange bounds a single eth_getLogs span.
	MaxBlockRange uint64
	// CatchupGap keeps the scanner in back-to-back window mode while the
	// cursor lags the head by at least this many blocks.
	CatchupGap uint64

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// Scanner walks the chain in bounded block windows, feeding every factory
// log to the dispatcher and advancing the cursor only after a window fully
// succeeds. A window is never skipped: failures retry with capped backoff
// and page the operator once the attempt budget is spent.
type Scanner struct {
	chain      chain.Client
	cursor     store.CursorStore
	dispatcher LogDispatcher
	alerter    alert.Alerter
	cfg        Config
	logger     *slog.Logger
}

func New(chainClient chain.Client, cursor store.CursorStore, dispatcher LogDispatcher, alerter alert.Alerter, cfg Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		chain:      chainClient,
		cursor:     cursor,
		dispatcher: dispatcher,
		alerter:    alerter,
		cfg:        cfg,
		logger:     logger.With("component", "scanner"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	last, err := s.loadCursor(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("scanner starting", "cursor", last, "factory", s.cfg.FactoryAddr)

	for {
		var head uint64
		err := s.withRetry(ctx, "get head", func() error {
			var err error
			head, err = s.chain.GetBlockNumber(ctx)
			return err
		})
		if err != nil {
			return err
		}
		metrics.ScannerHeadBlock.Set(float64(head))

		for head > last {
			from := last + 1
			to := from + s.cfg.MaxBlockRange - 1
			if to > head {
				to = head
			}

			if err := s.scanWindow(ctx, from, to); err != nil {
				return err
			}

			if err := s.withRetry(ctx, "save cursor", func() error {
				return s.cursor.Set(ctx, to)
			}); err != nil {
				return err
			}
			last = to
			metrics.ScannerCursorBlock.Set(float64(last))
			metrics.ScannerWindowsTotal.Inc()

			// Stay in catch-up while the gap is wide; otherwise fall back
			// to the poll cadence.
			if head-last < s.cfg.CatchupGap {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

func (s *Scanner) loadCursor(ctx context.Context) (uint64, error) {
	var last uint64
	var ok bool
	err := s.withRetry(ctx, "load cursor", func() error {
		var err error
		last, ok, err = s.cursor.Get(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if ok {
		return last, nil
	}

	last = s.cfg.InitBlock
	if err := s.withRetry(ctx, "seed cursor", func() error {
		return s.cursor.Set(ctx, last)
	}); err != nil {
		return 0, err
	}
	s.logger.Info("cursor seeded", "block", last)
	return last, nil
}

// scanWindow fetches and dispatches the logs of [from, to]. Block
// timestamps are fetched once per distinct block within the window.
func (s *Scanner) scanWindow(ctx context.Context, from, to uint64) error {
	return s.withRetry(ctx, fmt.Sprintf("window %d-%d", from, to), func() error {
		start := time.Now()
		defer func() {
			metrics.ScannerWindowDuration.Observe(time.Since(start).Seconds())
		}()

		logs, err := s.chain.GetLogs(ctx, rpc.LogFilter{
			FromBlock: rpc.FormatHexUint64(from),
			ToBlock:   rpc.FormatHexUint64(to),
			Address:   []string{s.cfg.FactoryAddr},
			Topics:    [][]string{events.AllTopics()},
		})
		if err != nil {
			return fmt.Errorf("get logs: %w", err)
		}

		blockTimes := make(map[uint64]int64)
		for _, log := range logs {
			blockNumber, err := rpc.ParseHexUint64(log.BlockNumber)
			if err != nil {
				return retry.Terminal(fmt.Errorf("log block number %q: %w", log.BlockNumber, err))
			}

			blockTime, ok := blockTimes[blockNumber]
			if !ok {
				blockTime, err = s.chain.GetBlockTime(ctx, blockNumber)
				if err != nil {
					return fmt.Errorf("block time for %d: %w", blockNumber, err)
				}
				blockTimes[blockNumber] = blockTime
			}

			if err := s.dispatcher.Dispatch(ctx, log, blockTime); err != nil {
				return fmt.Errorf("dispatch log %s/%s: %w", log.TransactionHash, log.LogIndex, err)
			}
		}

		if len(logs) > 0 {
			s.logger.Info("window scanned", "from", from, "to", to, "logs", len(logs))
		} else {
			s.logger.Debug("window scanned", "from", from, "to", to, "logs", 0)
		}
		return nil
	})
}

// withRetry keeps running fn until it succeeds or ctx ends. Progress is
// never abandoned: after the attempt budget is spent an alert goes out and
// retries continue at the capped delay.
func (s *Scanner) withRetry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	alerted := false
	for {
		err := fn()
		if err == nil {
			if alerted {
				s.alerter.Send(ctx, alert.Alert{
					Type:      alert.AlertTypeRecovery,
					Component: "scanner",
					Title:     "Scanner recovered",
					Message:   fmt.Sprintf("%s succeeded after %d attempts", op, attempt+1),
				})
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		metrics.ScannerWindowRetries.Inc()
		decision := retry.Classify(err)
		delay := retry.Backoff(attempt, s.cfg.RetryBaseDelay, s.cfg.RetryMaxDelay)

		s.logger.Warn("scan step failed",
			"op", op,
			"attempt", attempt,
			"class", string(decision.Class),
			"reason", decision.Reason,
			"delay", delay.String(),
			"error", err)

		if attempt == s.cfg.RetryMaxAttempts && !alerted {
			alerted = true
			s.alerter.Send(ctx, alert.Alert{
				Type:      alert.AlertTypeScanStall,
				Component: "scanner",
				Title:     "Scanner stalled",
				Message:   fmt.Sprintf("%s failing after %d attempts: %v", op, attempt, err),
				Fields:    map[string]string{"reason": decision.Reason},
			})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
