// Package config loads application configuration from environment variables
// and an optional config file. Configuration is loaded once at startup into
// an immutable value that workers read; nothing here mutates after Load.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Store  Store  `mapstructure:"store"`
	LLM    LLM    `mapstructure:"llm"`
	RSS    RSS    `mapstructure:"rss"`
	Batch  Batch  `mapstructure:"batch"`
	Server Server `mapstructure:"server"`
	Auth   Auth   `mapstructure:"auth"`
}

// Store holds document store configuration.
type Store struct {
	Connection string        `mapstructure:"connection"`
	Database   string        `mapstructure:"database"`
	OpTimeout  time.Duration `mapstructure:"op_timeout"`
}

// LLM holds LLM provider configuration.
type LLM struct {
	APIKey             string        `mapstructure:"api_key"`
	Model              string        `mapstructure:"model"`
	BaseURL            string        `mapstructure:"base_url"`
	RealtimeTimeout    time.Duration `mapstructure:"realtime_timeout"`
	BatchSubmitTimeout time.Duration `mapstructure:"batch_submit_timeout"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
}

// RSS holds poller configuration.
type RSS struct {
	TickSeconds     int           `mapstructure:"tick_seconds"`
	CooldownSeconds int           `mapstructure:"cooldown_seconds"`
	FeedsPerTick    int           `mapstructure:"feeds_per_tick"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
}

// Batch holds batch summarisation configuration.
type Batch struct {
	Enabled             bool `mapstructure:"enabled"`
	MaxSize             int  `mapstructure:"max_size"`
	BackfillHours       int  `mapstructure:"backfill_hours"`
	PollIntervalMinutes int  `mapstructure:"poll_interval_minutes"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Auth holds identity verification configuration. Token issuance is an
// external service; we only verify.
type Auth struct {
	Credentials string `mapstructure:"credentials"`
}

// Tick returns the poller tick interval.
func (r RSS) Tick() time.Duration { return time.Duration(r.TickSeconds) * time.Second }

// Cooldown returns the per-feed poll cooldown.
func (r RSS) Cooldown() time.Duration { return time.Duration(r.CooldownSeconds) * time.Second }

// PollInterval returns the batch worker cadence.
func (b Batch) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMinutes) * time.Minute
}

// Load reads configuration from the optional config file plus environment
// variables. A .env file in the working directory is loaded first if present,
// matching local development workflow.
func Load(cfgFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a full pipeline run cannot start without.
// Misconfiguration is fatal: the process refuses to start.
func (c *Config) Validate() error {
	if c.Store.Connection == "" {
		return fmt.Errorf("STORE_CONNECTION is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.database", "newswire")
	v.SetDefault("store.op_timeout", 15*time.Second)

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.realtime_timeout", 30*time.Second)
	v.SetDefault("llm.batch_submit_timeout", 60*time.Second)
	v.SetDefault("llm.requests_per_minute", 60)

	v.SetDefault("rss.tick_seconds", 10)
	v.SetDefault("rss.cooldown_seconds", 180)
	v.SetDefault("rss.feeds_per_tick", 3)
	v.SetDefault("rss.fetch_timeout", 10*time.Second)

	v.SetDefault("batch.enabled", true)
	v.SetDefault("batch.max_size", 500)
	v.SetDefault("batch.backfill_hours", 48)
	v.SetDefault("batch.poll_interval_minutes", 30)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
}

func bindEnv(v *viper.Viper) {
	// Explicit bindings keep the externally documented variable names.
	_ = v.BindEnv("store.connection", "STORE_CONNECTION")
	_ = v.BindEnv("store.database", "STORE_DATABASE")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = v.BindEnv("batch.enabled", "BATCH_PROCESSING_ENABLED")
	_ = v.BindEnv("batch.max_size", "BATCH_MAX_SIZE")
	_ = v.BindEnv("batch.backfill_hours", "BATCH_BACKFILL_HOURS")
	_ = v.BindEnv("batch.poll_interval_minutes", "BATCH_POLL_INTERVAL_MINUTES")
	_ = v.BindEnv("auth.credentials", "AUTH_CREDENTIALS")
	_ = v.BindEnv("rss.tick_seconds", "RSS_TICK_SECONDS")
	_ = v.BindEnv("rss.cooldown_seconds", "RSS_COOLDOWN_SECONDS")
	_ = v.BindEnv("rss.feeds_per_tick", "RSS_FEEDS_PER_TICK")
	_ = v.BindEnv("server.host", "SERVER_HOST")
	_ = v.BindEnv("server.port", "SERVER_PORT")
}
