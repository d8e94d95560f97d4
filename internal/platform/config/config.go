package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	pstrings "landlocked/pkg/platform/strings"
)

// EnvPrefix namespaces environment overrides, e.g. LANDLOCKED_SERVER_ADDR.
const EnvPrefix = "LANDLOCKED"

// Config is the full node configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Replay    ReplayConfig    `mapstructure:"replay"`
	Receipt   ReceiptConfig   `mapstructure:"receipt"`
	Audit     AuditConfig     `mapstructure:"audit"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MinReplayTTL is the shortest replay window that still covers the default
// validity of a signed transaction.
const MinReplayTTL = 10 * time.Minute

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendLevelDB  = "leveldb"
	BackendPostgres = "postgres"
)

type LedgerConfig struct {
	ProgramName    string        `mapstructure:"program_name"`
	Backend        string        `mapstructure:"backend"`
	DataDir        string        `mapstructure:"data_dir"`
	BaseRecordCost uint64        `mapstructure:"base_record_cost"`
	CostPerByte    uint64        `mapstructure:"cost_per_byte"`
	TxTimeout      time.Duration `mapstructure:"tx_timeout"`
	// Genesis maps hex identity addresses to their initial balance.
	Genesis map[string]uint64 `mapstructure:"genesis"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig configures the optional Redis connection. An empty URL disables it.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ReplayConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ReceiptConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// Audit sinks.
const (
	AuditSinkLog   = "log"
	AuditSinkKafka = "kafka"
)

type AuditConfig struct {
	Sink      string   `mapstructure:"sink"`
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	QueueSize int      `mapstructure:"queue_size"`
}

// RateLimitConfig bounds transaction submissions per client IP. The counters
// live in Redis when redis.url is set.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`

	// TrustForwardedHeaders keys clients by X-Forwarded-For. Only safe behind
	// a proxy that overwrites the header.
	TrustForwardedHeaders bool `mapstructure:"trust_forwarded_headers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ledger.program_name", "landlocked")
	v.SetDefault("ledger.backend", BackendMemory)
	v.SetDefault("ledger.data_dir", "./data")
	v.SetDefault("ledger.base_record_cost", 890_880)
	v.SetDefault("ledger.cost_per_byte", 6_960)
	v.SetDefault("ledger.tx_timeout", 5*time.Second)
	v.SetDefault("ledger.genesis", map[string]uint64{})

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("replay.backend", BackendMemory)
	v.SetDefault("replay.ttl", 24*time.Hour)

	// Use a default for development - should be overridden in production
	v.SetDefault("receipt.signing_key", "dev-receipt-key-change-in-production")
	v.SetDefault("receipt.issuer", "landlocked")
	v.SetDefault("receipt.ttl", 24*time.Hour)

	v.SetDefault("audit.sink", AuditSinkLog)
	v.SetDefault("audit.brokers", []string{})
	v.SetDefault("audit.topic", "landlocked.audit")
	v.SetDefault("audit.queue_size", 1024)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.trust_forwarded_headers", false)
}

// Load builds the configuration from defaults, an optional file at path
// (YAML, JSON or TOML by extension) and LANDLOCKED_* environment variables,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Audit.Brokers = pstrings.SplitList(cfg.Audit.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the node cannot start with.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendMemory, BackendLevelDB:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for the postgres ledger backend")
		}
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	switch c.Replay.Backend {
	case BackendMemory:
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("config: redis.url is required for the redis replay backend")
		}
	default:
		return fmt.Errorf("config: unknown replay backend %q", c.Replay.Backend)
	}
	if c.Replay.TTL < MinReplayTTL {
		return fmt.Errorf("config: replay.ttl must be at least %s", MinReplayTTL)
	}
	switch c.Audit.Sink {
	case AuditSinkLog:
	case AuditSinkKafka:
		if len(c.Audit.Brokers) == 0 {
			return errors.New("config: audit.brokers is required for the kafka audit sink")
		}
	default:
		return fmt.Errorf("config: unknown audit sink %q", c.Audit.Sink)
	}
	if c.Receipt.SigningKey == "" {
		return errors.New("config: receipt.signing_key is required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("config: rate_limit.requests and rate_limit.window must be positive")
	}
	if c.Ledger.ProgramName == "" {
		return errors.New("config: ledger.program_name is required")
	}
	return nil
}
