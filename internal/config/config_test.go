package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
database:
  driver: postgres
  host: localhost
  port: 5432
storage:
  local_path: `+uploads+`
jwt:
  secret: dev-secret
  expire_hours: 2
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout())
	assert.Equal(t, 4, cfg.AI.Concurrency())
	assert.Equal(t, "documents", cfg.Report.OutputDir)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.DirExists(t, uploads)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: oracle\n")
	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestReleaseModeChecks(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Mode: "release"},
		Database: DatabaseConfig{Driver: "mysql"},
		JWT:      JWTConfig{Secret: "short"},
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")

	cfg.JWT.Secret = strings.Repeat("x", 32)
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.api_key")

	cfg.AI.APIKey = "sk-test"
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.font_path")

	cfg.Report.FontPath = "/usr/share/fonts/DejaVuSans.ttf"
	assert.NoError(t, cfg.validate())
}

func TestAIConfigFallbacks(t *testing.T) {
	c := AIConfig{TimeoutSeconds: 7, MaxConcurrency: 2}
	assert.Equal(t, 7*time.Second, c.Timeout())
	assert.Equal(t, 2, c.Concurrency())
}
