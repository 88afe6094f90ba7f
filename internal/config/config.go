// Package config loads command-line defaults from BEANBAG_* environment
// variables. Each variable also falls back to its unprefixed name, so
// KRB5_CONFIG is honoured when BEANBAG_KRB5_CONFIG is unset.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "BEANBAG"

// Config holds command-line configuration. Flags override these values.
type Config struct {
	BaseURL   string        `envconfig:"BASE_URL"`
	Ext       string        `envconfig:"EXT"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Retries   int           `envconfig:"RETRIES" default:"0"`
	RateLimit float64       `envconfig:"RATE_LIMIT" default:"0"`
	YAML      bool          `envconfig:"YAML" default:"false"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	Kerberos   bool   `envconfig:"KERBEROS" default:"false"`
	Krb5Config string `envconfig:"KRB5_CONFIG"`
	Krb5CCache string `envconfig:"KRB5_CCACHE"`

	OAuthRequestTokenURL string `envconfig:"OAUTH_REQUEST_TOKEN_URL"`
	OAuthAuthorizeURL    string `envconfig:"OAUTH_AUTHORIZE_URL"`
	OAuthAccessTokenURL  string `envconfig:"OAUTH_ACCESS_TOKEN_URL"`
	OAuthClientKey       string `envconfig:"OAUTH_CLIENT_KEY"`
	OAuthClientSecret    string `envconfig:"OAUTH_CLIENT_SECRET"`
	OAuthStore           string `envconfig:"OAUTH_STORE"`
	Passphrase           string `envconfig:"PASSPHRASE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when the environment is empty.
func Default() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		LogLevel: "warn",
	}
}

// Usage writes a table of recognised variables to w.
func Usage(w io.Writer, cfg *Config) error {
	return envconfig.Usagef(Prefix, cfg, w, envconfig.DefaultTableFormat)
}
