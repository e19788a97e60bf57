// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	apiKey := cfg.Vendor.APIKey
//	cachePath := cfg.Cache.DatabasePath
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Vendor        VendorConfig        `yaml:"vendor"`
	Relay         RelayConfig         `yaml:"relay"`
	Carrier       CarrierConfig       `yaml:"carrier"`
	Columns       ColumnsConfig       `yaml:"columns"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// VendorConfig holds seller-hub API and page settings
type VendorConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	OrdersPageURL  string `yaml:"orders_page_url"`
	PageSize       int    `yaml:"page_size"`
	StatusFilter   string `yaml:"status_filter"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RelayConfig holds relay daemon settings.
// ListenAddr is used by relayd; URL is used by the CLI to reach it.
type RelayConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CarrierConfig holds shipping-carrier form settings
type CarrierConfig struct {
	FormURL      string `yaml:"form_url"`
	PollAttempts int    `yaml:"poll_attempts"`
	PollDelayMs  int    `yaml:"poll_delay_ms"`
}

// ColumnsConfig holds the order-table column indexes (zero-based)
type ColumnsConfig struct {
	OrderNumber  int `yaml:"order_number"`
	ShippingRate int `yaml:"shipping_rate"`
	Quantity     int `yaml:"quantity"`
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPTimeout returns the vendor API timeout as a duration
func (v VendorConfig) HTTPTimeout() time.Duration {
	if v.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(v.TimeoutSeconds) * time.Second
}

// Timeout returns the relay round-trip bound as a duration
func (r RelayConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// PollDelay returns the delay between form readiness checks
func (c CarrierConfig) PollDelay() time.Duration {
	if c.PollDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.PollDelayMs) * time.Millisecond
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${VENDOR_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Vendor: VendorConfig{
			BaseURL:        getEnv("VENDOR_API_URL", ""),
			APIKey:         os.Getenv("VENDOR_API_KEY"),
			OrdersPageURL:  getEnv("VENDOR_ORDERS_PAGE_URL", ""),
			PageSize:       getEnvInt("VENDOR_PAGE_SIZE", 100),
			StatusFilter:   getEnv("VENDOR_STATUS_FILTER", "awaiting_fulfillment"),
			TimeoutSeconds: getEnvInt("VENDOR_TIMEOUT_SECONDS", 30),
		},
		Relay: RelayConfig{
			ListenAddr:     getEnv("RELAY_LISTEN_ADDR", "127.0.0.1:8377"),
			URL:            getEnv("RELAY_URL", "ws://127.0.0.1:8377/ws"),
			TimeoutSeconds: getEnvInt("RELAY_TIMEOUT_SECONDS", 30),
		},
		Carrier: CarrierConfig{
			FormURL:      getEnv("CARRIER_FORM_URL", ""),
			PollAttempts: getEnvInt("CARRIER_POLL_ATTEMPTS", 20),
			PollDelayMs:  getEnvInt("CARRIER_POLL_DELAY_MS", 500),
		},
		Columns: ColumnsConfig{
			OrderNumber:  getEnvInt("COLUMN_ORDER_NUMBER", 2),
			ShippingRate: getEnvInt("COLUMN_SHIPPING_RATE", 5),
			Quantity:     getEnvInt("COLUMN_QUANTITY", 3),
		},
		Cache: CacheConfig{
			DatabasePath: getEnv("LABEL_CACHE_PATH", "labelassist.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values that have sensible defaults.
// Column indexes are left alone: zero is a valid index.
func (c *Config) applyDefaults() {
	if c.Vendor.PageSize <= 0 {
		c.Vendor.PageSize = 100
	}
	if c.Vendor.StatusFilter == "" {
		c.Vendor.StatusFilter = "awaiting_fulfillment"
	}
	if c.Relay.ListenAddr == "" {
		c.Relay.ListenAddr = "127.0.0.1:8377"
	}
	if c.Relay.URL == "" {
		c.Relay.URL = "ws://127.0.0.1:8377/ws"
	}
	if c.Carrier.PollAttempts <= 0 {
		c.Carrier.PollAttempts = 20
	}
	if c.Cache.DatabasePath == "" {
		c.Cache.DatabasePath = "labelassist.db"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: cfg.GetAPIKey(cfg.Vendor.APIKey, "VENDOR_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	if configValue != "" {
		return configValue
	}

	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
