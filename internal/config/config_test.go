package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.attio.com/v2", cfg.Attio.BaseURL)
	assert.InDelta(t, 10.0, cfg.Attio.RatePerSec, 0.001)
	assert.Equal(t, 3, cfg.Attio.RetryMax)
	assert.Equal(t, 30, cfg.Attio.TimeoutSecs)
	assert.Equal(t, "people", cfg.Sidebar.PeopleObject)
	assert.Equal(t, "companies", cfg.Sidebar.CompaniesObject)
	assert.Equal(t, "deals", cfg.Sidebar.DealsObject)
	assert.Equal(t, "stage", cfg.Sidebar.StageAttribute)
	assert.Equal(t, 500, cfg.Sidebar.BulkLimit)
	assert.Equal(t, 10*time.Minute, cfg.Cache.CompaniesTTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.StagesTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.DealsTTL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
attio:
  api_key: at_secret
sidebar:
  internal_domain: sells.group
  bulk_limit: 200
cache:
  deals_ttl: 15s
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "at_secret", cfg.Attio.APIKey)
	assert.Equal(t, "sells.group", cfg.Sidebar.InternalDomain)
	assert.Equal(t, 200, cfg.Sidebar.BulkLimit)
	assert.Equal(t, 15*time.Second, cfg.Cache.DealsTTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 10*time.Minute, cfg.Cache.CompaniesTTL)
	assert.Equal(t, "people", cfg.Sidebar.PeopleObject)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
attio:
  api_key: from_file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SIDEBAR_ATTIO_API_KEY", "from_env")
	t.Setenv("SIDEBAR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from_env", cfg.Attio.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SIDEBAR_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validConfig returns a Config that passes common validation.
func validConfig() *Config {
	cfg := &Config{}
	cfg.Attio.APIKey = "at_key"
	cfg.Sidebar.BulkLimit = 500
	cfg.Cache.DealsTTL = 30 * time.Second
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateMissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Attio.APIKey = ""

	err := cfg.Validate("lookup")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "attio.api_key is required")
}

func TestValidateBulkLimitBounds(t *testing.T) {
	cfg := validConfig()

	cfg.Sidebar.BulkLimit = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bulk_limit must be between 1 and 1000")

	cfg.Sidebar.BulkLimit = 1001
	err = cfg.Validate("serve")
	assert.Error(t, err)

	cfg.Sidebar.BulkLimit = 1000
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validConfig()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
