package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CORS_ORIGINS", "")
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, int32(0), cfg.DBMaxConns)
}

func TestLoadClientMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.GatewayURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTLDuration())
}

func TestLoadClientFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway_url: http://cart.internal\ndata_dir: /tmp/cart\nrequest_timeout: 2s\n"), 0o600))
	t.Setenv("CART_REDIS_ADDR", "localhost:6379")
	t.Setenv("CART_DATA_DIR", "/var/cart")

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "http://cart.internal", cfg.GatewayURL)
	assert.Equal(t, "/var/cart", cfg.DataDir)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeoutDuration())
	assert.Equal(t, filepath.Join("/var/cart", "cart.db"), cfg.CartDBPath())
}

func TestLoadClientRejectsBadDuration(t *testing.T) {
	t.Setenv("CART_SESSION_TTL", "soon")
	_, err := LoadClient("")
	assert.Error(t, err)
}

func TestLoadClientRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway_url: [unterminated"), 0o600))
	_, err := LoadClient(path)
	assert.Error(t, err)
}
