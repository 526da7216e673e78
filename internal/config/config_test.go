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
server:
  port: 9090
  host: "0.0.0.0"
  base_url: "https://app.adlens.io/"

database:
  url: "postgres://localhost/adlens"

google:
  client_id: "g-id"
  client_secret: "g-secret"
  ads_developer_token: "dev-token"

meta:
  app_id: "m-id"
  app_secret: "m-secret"
  graph_version: "v20.0"

sync:
  enabled: true
  interval_minutes: 15
  lookback_days: 7

insights:
  provider: "openai"
  openai_api_key: "sk-test"

cache:
  ttl_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "https://app.adlens.io", cfg.BaseURL())

	assert.True(t, cfg.Google.Enabled())
	assert.Equal(t, "dev-token", cfg.Google.AdsDevToken)
	assert.True(t, cfg.Meta.Enabled())
	assert.Equal(t, "v20.0", cfg.Meta.GraphVersion)

	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval())
	assert.Equal(t, 7, cfg.Sync.LookbackDays)

	assert.Equal(t, "openai", cfg.Insights.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Insights.Model)
	assert.Equal(t, time.Minute, cfg.Cache.TTL())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/adlens"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.Equal(t, 30, cfg.Google.TimeoutSeconds)
	assert.Equal(t, "v19.0", cfg.Meta.GraphVersion)
	assert.Equal(t, 60, cfg.Sync.IntervalMinutes)
	assert.Equal(t, 30, cfg.Sync.LookbackDays)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, "bedrock", cfg.Insights.Provider)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.Insights.Model)
	assert.Equal(t, "adlens_session", cfg.Auth.CookieName)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 15*time.Minute, cfg.Reports.LinkTTL())
	assert.False(t, cfg.Google.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://file/adlens"
insights:
  provider: "bedrock"
`)

	t.Setenv("DATABASE_URL", "postgres://env/adlens")
	t.Setenv("META_APP_ID", "env-app")
	t.Setenv("INSIGHTS_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/adlens", cfg.Database.URL)
	assert.Equal(t, "env-app", cfg.Meta.AppID)
	assert.Equal(t, "gemini", cfg.Insights.Provider)
	// model default follows the overridden provider
	assert.Equal(t, "gemini-2.0-flash", cfg.Insights.Model)
	assert.Equal(t, "gm-key", cfg.Insights.GeminiKey)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "database.url"},
		{name: "auth without client", mutate: func(c *Config) { c.Auth.Enabled = true }, wantErr: "google client credentials"},
		{name: "openai without key", mutate: func(c *Config) { c.Insights.Provider = "openai" }, wantErr: "openai_api_key"},
		{name: "unknown provider", mutate: func(c *Config) { c.Insights.Provider = "mystery" }, wantErr: "unknown insights provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{URL: "postgres://x"},
				Auth:     AuthConfig{SessionSecret: "s3cret"},
			}
			cfg.applyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
