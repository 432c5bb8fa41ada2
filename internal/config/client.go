package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Client configures the cart storefront CLI.
type Client struct {
	GatewayURL string `yaml:"gateway_url"`
	// DataDir holds the guest cart and saved credentials.
	DataDir   string `yaml:"data_dir"`
	RedisAddr string `yaml:"redis_addr"`
	// SessionTTL and RequestTimeout are Go duration strings such as "30m".
	SessionTTL     string `yaml:"session_ttl"`
	RequestTimeout string `yaml:"request_timeout"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultClient returns the CLI defaults.
func DefaultClient() Client {
	dir := ".cartctl"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".cartctl")
	}
	return Client{
		GatewayURL:     "http://localhost:8080",
		DataDir:        dir,
		SessionTTL:     "30m",
		RequestTimeout: "10s",
		LogLevel:       "warn",
	}
}

// LoadClient reads path when it exists and then applies CART_* environment
// overrides. An empty path skips the file.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Client{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Client{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.GatewayURL = envOrDefault("CART_GATEWAY_URL", cfg.GatewayURL)
	cfg.DataDir = envOrDefault("CART_DATA_DIR", cfg.DataDir)
	cfg.RedisAddr = envOrDefault("CART_REDIS_ADDR", cfg.RedisAddr)
	cfg.SessionTTL = envOrDefault("CART_SESSION_TTL", cfg.SessionTTL)
	cfg.RequestTimeout = envOrDefault("CART_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.LogLevel = envOrDefault("CART_LOG_LEVEL", cfg.LogLevel)
	return cfg, cfg.Validate()
}

// Validate checks the duration fields parse.
func (c Client) Validate() error {
	if c.GatewayURL == "" {
		return errors.New("gateway_url required")
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("session_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	return nil
}

func (c Client) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

func (c Client) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// CartDBPath is the bbolt file holding the guest cart.
func (c Client) CartDBPath() string {
	return filepath.Join(c.DataDir, "cart.db")
}
