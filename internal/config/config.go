package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	Chain     ChainConfig
	Scanner   ScannerConfig
	Reconcile ReconcileConfig
	Alert     AlertConfig
	Server    ServerConfig
	Log       LogConfig
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

type ChainConfig struct {
	RPCURL      string
	FactoryAddr string
	// RateLimitRPS caps outgoing JSON-RPC calls; 0 disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

type ScannerConfig struct {
	InitBlock        uint64
	PollInterval     time.Duration
	MaxBlockRange    uint64
	CatchupGapBlocks uint64
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

type ReconcileConfig struct {
	PriceInterval time.Duration
	RateInterval  time.Duration
}

type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
	Cooldown        time.Duration
}

type ServerConfig struct {
	MetricsPort int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		DB: DBConfig{
			URL:             getEnv("PG_URL", ""),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(env.Int("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
			MigrationsDir:   getEnv("MIGRATIONS_DIR", "internal/store/postgres/migrations"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Chain: ChainConfig{
			RPCURL:         getEnv("RPC_URL", ""),
			FactoryAddr:    getEnv("FACTORY_CONTRACT_ADDR", ""),
			RateLimitRPS:   env.Float("RPC_RATE_LIMIT_RPS", 0),
			RateLimitBurst: env.Int("RPC_RATE_LIMIT_BURST", 1),
		},
		Scanner: ScannerConfig{
			InitBlock:        env.Uint64("INIT_BLOCK", 0),
			PollInterval:     time.Duration(env.Int("POLL_INTERVAL_SEC", 2)) * time.Second,
			MaxBlockRange:    env.Uint64("MAX_BLOCK_RANGE", 10000),
			CatchupGapBlocks: env.Uint64("CATCHUP_GAP_BLOCKS", 5),
			RetryMaxAttempts: env.Int("RETRY_MAX_ATTEMPTS", 5),
			RetryBaseDelay:   time.Duration(env.Int("RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,
			RetryMaxDelay:    time.Duration(env.Int("RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
		},
		Reconcile: ReconcileConfig{
			PriceInterval: time.Duration(env.Int("PRICE_SWEEP_INTERVAL_SEC", 600)) * time.Second,
			RateInterval:  time.Duration(env.Int("RATE_SWEEP_INTERVAL_SEC", 3600)) * time.Second,
		},
		Alert: AlertConfig{
			SlackWebhookURL: getEnv("ALERT_SLACK_WEBHOOK_URL", ""),
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			Cooldown:        time.Duration(env.Int("ALERT_COOLDOWN_SEC", 300)) * time.Second,
		},
		Server: ServerConfig{
			MetricsPort: env.Int("METRICS_PORT", 8080),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("PG_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.Chain.FactoryAddr == "" {
		return fmt.Errorf("FACTORY_CONTRACT_ADDR is required")
	}
	if os.Getenv("INIT_BLOCK") == "" {
		return fmt.Errorf("INIT_BLOCK is required")
	}
	if c.Scanner.MaxBlockRange == 0 {
		return fmt.Errorf("MAX_BLOCK_RANGE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses environment values and remembers the first bad one, so
// a typo fails process start instead of silently running on a default.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func (r *envReader) Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return i
}

func (r *envReader) Uint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return u
}

func (r *envReader) Float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return f
}
