package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TAX_API_URL", "https://api.tax.test")
	t.Setenv("TAX_API_TOKEN", "token-123")
	t.Setenv("STORE_COUNTRY", "US")
	t.Setenv("STORE_ZIP", "80111")
	t.Setenv("WC_URL", "https://store.test")
	t.Setenv("WC_CONSUMER_KEY", "ck_test")
	t.Setenv("WC_CONSUMER_SECRET", "cs_test")
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	setRequiredEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 3600, cfg.CacheTTLSeconds)
	assert.Equal(t, 10, cfg.TaxService.TimeoutSeconds)
	assert.False(t, cfg.Store.DebugLoggingEnabled)
	assert.False(t, cfg.Store.APICalcsEnabled)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("DEBUG_LOGGING_ENABLED", "true")
	t.Setenv("API_CALCS_ENABLED", "true")
	t.Setenv("STORE_STATE", "CO")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 60, cfg.CacheTTLSeconds)
	assert.True(t, cfg.Store.DebugLoggingEnabled)
	assert.True(t, cfg.Store.APICalcsEnabled)
	assert.Equal(t, "CO", cfg.Store.FromState)
	assert.Equal(t, "https://api.tax.test", cfg.TaxService.URL)
	assert.Equal(t, "ck_test", cfg.WooCommerce.ConsumerKey)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	content := []byte("LOG_LEVEL=warn\nSERVER_PORT=7070\nSTORE_CITY=Denver\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "Denver", cfg.Store.FromCity)
}

// TestLoad_MissingRequired verifies that missing required settings fail loading.
func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TAX_API_TOKEN", "")

	cfg, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TAX_API_TOKEN")
}
