// Package config provides YAML-based configuration loading for the maxchat
// command.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// URL is the chat WebSocket endpoint (ws://, wss://, http:// or https://)
	URL string `mapstructure:"url"`

	// Token authenticates the session in the handshake
	Token string `mapstructure:"token"`

	// UserAgent and Origin override the connection headers when set
	UserAgent string `mapstructure:"user_agent"`
	Origin    string `mapstructure:"origin"`

	// WatchChats are announced in the handshake and subscribed after connect
	WatchChats []int64 `mapstructure:"watch_chats"`

	// KeepaliveInterval is the time between heartbeats
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`

	// SkipMalformed drops undecodable frames instead of stopping
	SkipMalformed bool `mapstructure:"skip_malformed"`

	// ReadErrorLimit stops after this many consecutive read errors; 0 = never
	ReadErrorLimit int `mapstructure:"read_error_limit"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Default returns a Config populated with defaults. URL and Token have no
// default and must be supplied.
func Default() *Config {
	return &Config{
		KeepaliveInterval: 30 * time.Second,
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix MAXCHAT and `.`/`-` are replaced with `_`.
// Example: MAXCHAT_TOKEN=... MAXCHAT_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAXCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("url", cfg.URL)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("origin", cfg.Origin)
	v.SetDefault("watch_chats", cfg.WatchChats)
	v.SetDefault("keepalive_interval", cfg.KeepaliveInterval)
	v.SetDefault("skip_malformed", cfg.SkipMalformed)
	v.SetDefault("read_error_limit", cfg.ReadErrorLimit)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		if envPath := os.Getenv("MAXCHAT_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("maxchat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".maxchat"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token is required")
	}

	u, err := NormalizeURL(c.URL)
	if err != nil {
		return err
	}
	c.URL = u

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("invalid keepalive_interval: %s", c.KeepaliveInterval)
	}
	if c.ReadErrorLimit < 0 {
		return fmt.Errorf("invalid read_error_limit: %d", c.ReadErrorLimit)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	return nil
}

// NormalizeURL checks that raw is a WebSocket URL, rewriting http and https
// to ws and wss.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u.String(), nil
}
