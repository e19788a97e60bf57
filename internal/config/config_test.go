package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
vendor:
  base_url: "https://hub.example.com/api"
  api_key: "key-123"
  page_size: 250
relay:
  listen_addr: "127.0.0.1:9000"
carrier:
  form_url: "https://ship.example.com/create-label"
  poll_delay_ms: 250
columns:
  order_number: 2
  shipping_rate: 5
  quantity: 3
cache:
  database_path: "test.db"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com/api", cfg.Vendor.BaseURL)
	assert.Equal(t, "key-123", cfg.Vendor.APIKey)
	assert.Equal(t, 250, cfg.Vendor.PageSize)
	assert.Equal(t, "127.0.0.1:9000", cfg.Relay.ListenAddr)
	assert.Equal(t, 2, cfg.Columns.OrderNumber)
	assert.Equal(t, "test.db", cfg.Cache.DatabasePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Carrier.PollDelay())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
vendor:
  api_key: "key-123"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Vendor.PageSize)
	assert.Equal(t, "awaiting_fulfillment", cfg.Vendor.StatusFilter)
	assert.Equal(t, "ws://127.0.0.1:8377/ws", cfg.Relay.URL)
	assert.Equal(t, 20, cfg.Carrier.PollAttempts)
	assert.Equal(t, "labelassist.db", cfg.Cache.DatabasePath)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VENDOR_API_KEY", "env-key")
	t.Setenv("VENDOR_API_URL", "https://env.example.com/api")
	t.Setenv("LABEL_CACHE_PATH", "env.db")

	cfg := LoadFromEnv()

	assert.Equal(t, "env-key", cfg.Vendor.APIKey)
	assert.Equal(t, "https://env.example.com/api", cfg.Vendor.BaseURL)
	assert.Equal(t, "env.db", cfg.Cache.DatabasePath)
}

func TestLoadOrEnvWithPath_FallbackToEnv(t *testing.T) {
	t.Setenv("LABEL_CACHE_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")

	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Cache.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_HUB_KEY", "expanded-key")
	path := writeConfig(t, `
vendor:
  api_key: "${TEST_HUB_KEY}"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.Vendor.APIKey)
}

func TestGetAPIKey(t *testing.T) {
	cfg := &Config{}

	// Config value wins
	assert.Equal(t, "from-config", cfg.GetAPIKey("from-config", "VENDOR_API_KEY"))

	// Falls back to env
	t.Setenv("VENDOR_API_KEY", "from-env")
	assert.Equal(t, "from-env", cfg.GetAPIKey("", "VENDOR_API_KEY"))

	// Empty when neither is set
	t.Setenv("VENDOR_API_KEY", "")
	assert.Equal(t, "", cfg.GetAPIKey("", "VENDOR_API_KEY"))
}

func TestTimeoutDefaults(t *testing.T) {
	var v VendorConfig
	var r RelayConfig

	assert.Equal(t, 30*time.Second, v.HTTPTimeout())
	assert.Equal(t, 30*time.Second, r.Timeout())

	v.TimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, v.HTTPTimeout())
}
