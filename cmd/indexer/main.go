package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/maxfuntrading/maxfun-evt/internal/aggregate"
	"github.com/maxfuntrading/maxfun-evt/internal/alert"
	"github.com/maxfuntrading/maxfun-evt/internal/chain"
	"github.com/maxfuntrading/maxfun-evt/internal/chain/ratelimit"
	"github.com/maxfuntrading/maxfun-evt/internal/chain/rpc"
	"github.com/maxfuntrading/maxfun-evt/internal/config"
	"github.com/maxfuntrading/maxfun-evt/internal/ingest"
	"github.com/maxfuntrading/maxfun-evt/internal/reconcile"
	"github.com/maxfuntrading/maxfun-evt/internal/scanner"
	"github.com/maxfuntrading/maxfun-evt/internal/store/postgres"
	redisstore "github.com/maxfuntrading/maxfun-evt/internal/store/redis"
)

func main() {
	logLevel := slog.LevelInfo

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting maxfun-evt",
		"rpc", cfg.Chain.RPCURL,
		"factory", cfg.Chain.FactoryAddr,
		"init_block", cfg.Scanner.InitBlock,
		"max_block_range", cfg.Scanner.MaxBlockRange,
		"poll_interval", cfg.Scanner.PollInterval.String(),
	)

	// Connect to PostgreSQL
	db, err := postgres.New(postgres.Config{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := db.RunMigrations(cfg.DB.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err, "dir", cfg.DB.MigrationsDir)
		os.Exit(1)
	}

	cursor, err := redisstore.NewCursorStore(cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err, "redis_url", cfg.Redis.URL)
		os.Exit(1)
	}
	defer cursor.Close()

	var limiter *ratelimit.Limiter
	if cfg.Chain.RateLimitRPS > 0 {
		limiter = ratelimit.NewLimiter(cfg.Chain.RateLimitRPS, cfg.Chain.RateLimitBurst)
	}
	rpcClient := rpc.NewClient(cfg.Chain.RPCURL, limiter, logger)
	chainSvc := chain.NewService(rpcClient, cfg.Chain.FactoryAddr, logger)

	eventLogs := postgres.NewEventLogRepo(db)
	tradeLogs := postgres.NewTradeLogRepo(db)
	candles := postgres.NewCandleRepo(db)
	summaries := postgres.NewTokenSummaryRepo(db)
	positions := postgres.NewUserPositionRepo(db)
	raised := postgres.NewRaisedTokenRepo(db)
	tokenInfo := postgres.NewTokenInfoRepo(db)

	engine := aggregate.NewEngine(candles)

	alerter := buildAlerter(cfg.Alert, logger)

	launch := ingest.NewLaunchProcessor(db, chainSvc, eventLogs, summaries, tokenInfo, engine, logger)
	trade := ingest.NewTradeProcessor(db, chainSvc, eventLogs, tradeLogs, summaries, positions, engine, logger)
	graduation := ingest.NewGraduationProcessor(db, eventLogs, summaries, tokenInfo, logger)
	dispatcher := ingest.NewDispatcher(launch, trade, graduation, logger)

	scan := scanner.New(chainSvc, cursor, dispatcher, alerter, scanner.Config{
		FactoryAddr:      cfg.Chain.FactoryAddr,
		InitBlock:        cfg.Scanner.InitBlock,
		PollInterval:     cfg.Scanner.PollInterval,
		MaxBlockRange:    cfg.Scanner.MaxBlockRange,
		CatchupGap:       cfg.Scanner.CatchupGapBlocks,
		RetryMaxAttempts: cfg.Scanner.RetryMaxAttempts,
		RetryBaseDelay:   cfg.Scanner.RetryBaseDelay,
		RetryMaxDelay:    cfg.Scanner.RetryMaxDelay,
	}, logger)

	priceSweep := reconcile.NewPriceSweep(db, chainSvc, raised, summaries, logger)
	rateSweep := reconcile.NewRateSweep(db, summaries, engine, logger)

	// Context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// Health check and metrics server
	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server.MetricsPort, logger)
	})

	g.Go(func() error {
		return scan.Run(gCtx)
	})

	g.Go(func() error {
		return reconcile.RunPeriodic(gCtx, priceSweep, cfg.Reconcile.PriceInterval, alerter, logger)
	})

	g.Go(func() error {
		return reconcile.RunPeriodic(gCtx, rateSweep, cfg.Reconcile.RateInterval, alerter, logger)
	})

	// Signal handler
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("indexer exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("indexer shut down gracefully")
}

func buildAlerter(cfg config.AlertConfig, logger *slog.Logger) alert.Alerter {
	channels := make([]alert.Alerter, 0, 2)
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, alert.NewSlackAlerter(cfg.SlackWebhookURL))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, alert.NewWebhookAlerter(cfg.WebhookURL))
	}
	if len(channels) == 0 {
		logger.Warn("no alert channels configured, alerts will be dropped")
		return &alert.NoopAlerter{}
	}
	return alert.NewMultiAlerter(cfg.Cooldown, logger, channels...)
}

func runHealthServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server listening", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
