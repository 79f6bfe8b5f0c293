// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host's zoneinfo

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // 0 disables
	Window   time.Duration `yaml:"window"`
}

type HTTPConfig struct {
	Port           int             `yaml:"port"`
	APIKey         string          `yaml:"api_key"`
	JWTSecret      string          `yaml:"jwt_secret"`
	TokenTTL       time.Duration   `yaml:"token_ttl"`
	SecureCookie   bool            `yaml:"secure_cookie"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	MaxPeriodDays  int             `yaml:"max_period_days"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type LedgerConfig struct {
	TaxRate       float64 `yaml:"tax_rate"`
	Timezone      string  `yaml:"timezone"`
	TrackInvoices bool    `yaml:"track_invoices"`
	SeedPayments  int     `yaml:"seed_payments"` // in-memory store only
}

type SchedulerConfig struct {
	StatsInterval time.Duration `yaml:"stats_interval"`
}

type NotifyConfig struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notify    NotifyConfig    `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	// tax_rate keeps its default unless the file sets it, so 0 stays expressible.
	cfg := Config{Ledger: LedgerConfig{TaxRate: 0.10}}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.TokenTTL <= 0 {
		cfg.HTTP.TokenTTL = 30 * time.Minute
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxPeriodDays <= 0 {
		cfg.HTTP.MaxPeriodDays = 3650
	}
	if cfg.HTTP.RateLimit.Window <= 0 {
		cfg.HTTP.RateLimit.Window = time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "UTC"
	}
	if cfg.Scheduler.StatsInterval <= 0 {
		cfg.Scheduler.StatsInterval = time.Minute
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
}

func (c *Config) validate() error {
	if c.Ledger.TaxRate < 0 || c.Ledger.TaxRate > 1 {
		return errors.New("ledger.tax_rate must be within [0,1]")
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("ledger.timezone: %w", err)
	}
	if c.HTTP.APIKey != "" && len(c.HTTP.JWTSecret) < 16 {
		return errors.New("http.jwt_secret of at least 16 bytes is required when http.api_key is set")
	}
	if c.Ledger.SeedPayments < 0 {
		return errors.New("ledger.seed_payments must not be negative")
	}
	return nil
}

// TaxRateDecimal returns the configured rate as a decimal.
func (c LedgerConfig) TaxRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRate)
}

// Location returns the time zone used for day bucketing. The zone was
// checked at load time, so a failure here falls back to UTC.
func (c LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
