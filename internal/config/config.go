package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL         string        `mapstructure:"api_base_url"`
	AIBaseURL          string        `mapstructure:"ai_base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	CredentialStore    string        `mapstructure:"credential_store"`
	CredentialPath     string        `mapstructure:"credential_path"`
	CredentialTTLHours int64         `mapstructure:"credential_ttl_hours"`
	CredentialTTL      time.Duration `mapstructure:"-"`
	Token              string        `mapstructure:"token"`

	RetryMaxAttempts       int           `mapstructure:"retry_max_attempts"`
	RetryInitialIntervalMS int64         `mapstructure:"retry_initial_interval_ms"`
	RetryMaxIntervalMS     int64         `mapstructure:"retry_max_interval_ms"`
	RetryInitialInterval   time.Duration `mapstructure:"-"`
	RetryMaxInterval       time.Duration `mapstructure:"-"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	EndpointsFile      string `mapstructure:"endpoints_file"`
	ExportersFile      string `mapstructure:"exporters_file"`
	EasyChairURL       string `mapstructure:"easychair_url"`
	MetricsPushgateway string `mapstructure:"metrics_pushgateway_url"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "shiksha")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("ai_base_url", "http://localhost:8000")
	v.SetDefault("http_timeout_seconds", 60)
	v.SetDefault("credential_store", "bbolt")
	v.SetDefault("credential_path", "./data/credentials.db")
	v.SetDefault("credential_ttl_hours", 7*24)
	v.SetDefault("token", "")
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_initial_interval_ms", 500)
	v.SetDefault("retry_max_interval_ms", 5000)
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("rate_limit_burst", 1)
	v.SetDefault("endpoints_file", "")
	v.SetDefault("exporters_file", "")
	v.SetDefault("easychair_url", "https://easychair.org/cfp/")
	v.SetDefault("metrics_pushgateway_url", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives the duration fields.
func (cfg *Config) finalize() error {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.AIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.AIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if cfg.AIBaseURL == "" {
		return fmt.Errorf("ai_base_url is required")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.CredentialTTLHours <= 0 {
		return fmt.Errorf("invalid credential_ttl_hours (must be positive hours)")
	}
	cfg.CredentialTTL = time.Duration(cfg.CredentialTTLHours) * time.Hour

	if cfg.RetryMaxAttempts < 1 {
		return fmt.Errorf("invalid retry_max_attempts (must be at least 1)")
	}
	if cfg.RetryInitialIntervalMS <= 0 || cfg.RetryMaxIntervalMS <= 0 {
		return fmt.Errorf("invalid retry intervals (must be positive milliseconds)")
	}
	cfg.RetryInitialInterval = time.Duration(cfg.RetryInitialIntervalMS) * time.Millisecond
	cfg.RetryMaxInterval = time.Duration(cfg.RetryMaxIntervalMS) * time.Millisecond

	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("invalid rate_limit_rps (must not be negative)")
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	return nil
}
