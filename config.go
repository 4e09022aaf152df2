package sheetrows

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL        = "https://api.smartsheet.com/2.0"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryInterval  = 1 * time.Second
	DefaultUserAgent      = "go-sheetrows"
)

// Config represents configuration for the API client
type Config struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	AccessToken    string        `mapstructure:"access_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"` // retries after the first attempt; 0 disables retries and is kept by New (default: 3)
	RetryInterval  time.Duration `mapstructure:"retry_interval" validate:"gte=0"`     // initial backoff interval (default: 1s)
	UserAgent      string        `mapstructure:"user_agent"`
	LogLevel       string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Programmatic overrides, never read from files or the environment.
	Logger      *slog.Logger       `mapstructure:"-" validate:"-"`
	HTTPClient  *http.Client       `mapstructure:"-" validate:"-"`
	TokenSource oauth2.TokenSource `mapstructure:"-" validate:"-"`
}

// DefaultConfig returns the configuration New falls back to.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryInterval:  DefaultRetryInterval,
		UserAgent:      DefaultUserAgent,
		LogLevel:       "info",
	}
}

// LoadConfig reads configuration from an optional file and from SHEETROWS_*
// environment variables. Environment variables win over file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("access_token", "")
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("max_retries", defaults.MaxRetries)
	v.SetDefault("retry_interval", defaults.RetryInterval)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("SHEETROWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: config: %v", ErrInvalidRequest, err)
	}
	return nil
}

// withDefaults fills zero values the same way DefaultConfig would, except
// MaxRetries where zero means a single attempt.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = NewLogger(c.LogLevel)
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())
