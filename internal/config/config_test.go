package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "speedcheck", cfg.Name)
	assert.Equal(t, "127.0.0.1:8085", cfg.Server.Address)
	assert.Equal(t, 5*time.Minute, cfg.Capture.SessionTimeout())
	assert.Equal(t, "All done", cfg.Capture.TerminalMarker)
	assert.Equal(t, "speedcheck.interpretations", cfg.Publish.KafkaTopic)
	assert.False(t, cfg.Publish.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
name: lab
server:
  address: ":9090"
  rate_limit_per_second: 2
  allowed_origins: ["https://example.org"]
capture:
  session_timeout_seconds: 60
publish:
  backend_url: "https://collector.example.org/ingest"
  kafka_brokers: ["kafka-1:9092", "kafka-2:9092"]
logging:
  level: debug
  format: console
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "lab", cfg.Name)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2.0, cfg.Server.RateLimitPerSecond)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Capture.SessionTimeout())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Publish.KafkaBrokers)
	assert.True(t, cfg.Publish.Enabled())
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfig_SanityClamps(t *testing.T) {
	path := writeConfig(t, `
server:
  read_timeout_seconds: 0
  rate_limit_burst: -4
capture:
  session_timeout_seconds: -1
trend:
  age_samples: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 1, cfg.Server.RateLimitBurst)
	assert.Equal(t, 300, cfg.Capture.SessionTimeoutSeconds)
	assert.Equal(t, 10.0, cfg.Trend.AgeSamples)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SPEEDCHECK_SERVER_ADDRESS", "0.0.0.0:7000")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Address)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
