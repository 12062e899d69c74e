package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Bank      BankConfig      `mapstructure:"bank"`
	Saga      SagaConfig      `mapstructure:"saga"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BankConfig describes the local bank and its replay filter sizing.
type BankConfig struct {
	Prefix               string  `mapstructure:"prefix"`
	Currency             string  `mapstructure:"currency"`
	SeedAccounts         int     `mapstructure:"seed_accounts"`
	SeedBalance          int64   `mapstructure:"seed_balance"`
	ReplayFilterCapacity uint    `mapstructure:"replay_filter_capacity"`
	ReplayFilterFPRate   float64 `mapstructure:"replay_filter_fp_rate"`
}

// SagaConfig tunes transfer processing.
type SagaConfig struct {
	MaxAttempts    int  `mapstructure:"max_attempts"`
	Workers        int  `mapstructure:"workers"`
	StartSuspended bool `mapstructure:"start_suspended"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// AdminConfig guards the administrative routes. With an empty KeyHash the
// admin routes are open.
type AdminConfig struct {
	Username  string        `mapstructure:"username"`
	KeyHash   string        `mapstructure:"key_hash"` // Argon2id, see cmd/api -hash-key
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
}

// Enabled reports whether admin authentication is configured.
func (a AdminConfig) Enabled() bool {
	return a.KeyHash != ""
}

type RateLimitConfig struct {
	TransfersPerWindow int           `mapstructure:"transfers_per_window"` // 0 disables
	Window             time.Duration `mapstructure:"window"`
}

// NotifyConfig enables signed settlement webhooks when WebhookURL is set.
type NotifyConfig struct {
	WebhookURL     string          `mapstructure:"webhook_url"`
	WebhookSecret  string          `mapstructure:"webhook_secret"`
	RetryIntervals []time.Duration `mapstructure:"retry_intervals"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if len(c.Bank.Currency) != 3 || strings.ToUpper(c.Bank.Currency) != c.Bank.Currency {
		errs = append(errs, fmt.Errorf("bank.currency must be a 3-letter upper-case code, got %q", c.Bank.Currency))
	}
	if c.Bank.Prefix == "" {
		errs = append(errs, errors.New("bank.prefix must not be empty"))
	}
	if c.Bank.ReplayFilterFPRate <= 0 || c.Bank.ReplayFilterFPRate >= 1 {
		errs = append(errs, fmt.Errorf("bank.replay_filter_fp_rate must be in (0,1), got %v", c.Bank.ReplayFilterFPRate))
	}
	if c.Saga.MaxAttempts < 1 {
		errs = append(errs, errors.New("saga.max_attempts must be at least 1"))
	}
	if c.Saga.Workers < 1 {
		errs = append(errs, errors.New("saga.workers must be at least 1"))
	}
	if c.Admin.Enabled() && c.Admin.JWTSecret == "" {
		errs = append(errs, errors.New("admin.jwt_secret is required when admin.key_hash is set"))
	}
	if c.RateLimit.TransfersPerWindow > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BANK_.
// Nested keys use underscore: BANK_SAGA_MAX_ATTEMPTS, BANK_ADMIN_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5050)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 64*1024)
	v.SetDefault("bank.prefix", "REV")
	v.SetDefault("bank.currency", "PLN")
	v.SetDefault("bank.seed_accounts", 2)
	v.SetDefault("bank.seed_balance", 1000)
	v.SetDefault("bank.replay_filter_capacity", 1000)
	v.SetDefault("bank.replay_filter_fp_rate", 0.01)
	v.SetDefault("saga.max_attempts", 10)
	v.SetDefault("saga.workers", 32)
	v.SetDefault("saga.start_suspended", false)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "bank")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.key_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.jwt_expiry", "1h")
	v.SetDefault("admin.jwt_issuer", "bank-transfer-saga")
	v.SetDefault("ratelimit.transfers_per_window", 0)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BANK_SAGA_WORKERS -> saga.workers
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
