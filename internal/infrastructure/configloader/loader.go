package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL            = "https://metamon-api.radiocaca.com/usm-api"
	defaultRequestDelayMillis = 1100
	defaultMaxAttempts        = 5
	defaultTimeoutSeconds     = 30
	defaultTokenTTLMinutes    = 360
)

// APIConfig holds settings for the game API client.
type APIConfig struct {
	BaseURL               string `yaml:"baseURL"`
	RequestDelayMillis    int64  `yaml:"requestDelayMillis"`
	MaxAttempts           int    `yaml:"maxAttempts"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`
	// MaxRequestsPerMinute caps outgoing requests on top of the fixed delay. Zero disables it.
	MaxRequestsPerMinute int `yaml:"maxRequestsPerMinute"`
}

// RequestDelay returns the pause taken before every request attempt.
func (c APIConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMillis) * time.Millisecond
}

// RequestTimeout returns the per-attempt transport timeout.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// WalletsConfig holds settings for reading the wallet table.
type WalletsConfig struct {
	VerifySignatures bool `yaml:"verifySignatures"`
}

// SessionConfig holds settings for game sessions.
type SessionConfig struct {
	TokenTTLMinutes int `yaml:"tokenTTLMinutes"`
}

// TokenTTL returns how long an access token is reused within the process.
func (c SessionConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// OutputConfig holds settings for the stats files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig holds settings for the optional status server.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// MetricsConfig holds settings for metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump at the end of the run.
	Textfile string `yaml:"textfile"`
}

// Config is the top-level configuration structure.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Wallets WalletsConfig `yaml:"wallets"`
	Session SessionConfig `yaml:"session"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoadEnv loads a .env file from the working directory if one exists.
// It reports whether a file was loaded.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

// Load reads the YAML configuration file from the given path and unmarshals it.
// A missing file is not an error: defaults are returned instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("METAMON_API_URL")); v != "" {
		cfg.API.BaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.RequestDelayMillis == 0 {
		cfg.API.RequestDelayMillis = defaultRequestDelayMillis
	}
	if cfg.API.MaxAttempts <= 0 {
		cfg.API.MaxAttempts = defaultMaxAttempts
	}
	if cfg.API.RequestTimeoutSeconds <= 0 {
		cfg.API.RequestTimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Session.TokenTTLMinutes <= 0 {
		cfg.Session.TokenTTLMinutes = defaultTokenTTLMinutes
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	if c.API.RequestDelayMillis < 0 {
		return fmt.Errorf("api.requestDelayMillis must not be negative, got %d", c.API.RequestDelayMillis)
	}
	if c.API.MaxRequestsPerMinute < 0 {
		return fmt.Errorf("api.maxRequestsPerMinute must not be negative, got %d", c.API.MaxRequestsPerMinute)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.baseURL must be an http(s) URL, got %q", c.API.BaseURL)
	}
	return nil
}
