// Package config loads suite configuration from a file, the environment and
// flag overrides.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full suite configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Polling Polling `mapstructure:"polling"`
}

// Server describes the content-repository server under test.
type Server struct {
	// BaseURL is the root URL of the server, e.g. https://pulp.example.com.
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Insecure disables TLS certificate verification.
	Insecure bool `mapstructure:"insecure"`
	// Version is the server version, used to decide which known-defect
	// checks are testable. Empty means "assume everything is fixed".
	Version string `mapstructure:"version"`
	// Keyring is an optional path to a public keyring for verifying the
	// detached repomd.xml signature.
	Keyring string `mapstructure:"keyring"`
}

// Polling controls how task completion is observed.
type Polling struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from the given file path. An empty path falls
// back to repoverify.yaml in the working directory, and a missing fallback
// file is not an error: environment variables (REPOVERIFY_SERVER_BASE_URL
// and friends) and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.base_url", "")
	v.SetDefault("server.insecure", false)
	v.SetDefault("polling.interval", "2s")
	v.SetDefault("polling.timeout", "5m")

	v.SetEnvPrefix("repoverify")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("repoverify")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base URL is required")
	}
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server base URL must be http or https, got %q", c.Server.BaseURL)
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	if c.Polling.Timeout < c.Polling.Interval {
		return fmt.Errorf("polling timeout must be at least the polling interval")
	}
	return nil
}
