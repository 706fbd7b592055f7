package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://api.accord.chat/v1", cfg.BaseURL)
	require.Equal(t, "accord-cli", cfg.UserAgent)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	require.Equal(t, 15*time.Second, cfg.Retry.MaxDelay)
	require.Equal(t, "libsql", cfg.Store.Driver)
	require.Equal(t, 8264, cfg.Server.Port)
	require.Equal(t, "info", cfg.Logging.Level)
	require.NotEmpty(t, cfg.Store.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: file-token
base_url: https://alt.example/v2
timeout: 5s
retry:
  max_attempts: 7
  base_delay: 250ms
pace:
  requests_per_second: 25
  max_inflight: 8
server:
  port: 9000
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "file-token", cfg.Token)
	require.Equal(t, "https://alt.example/v2", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 7, cfg.Retry.MaxAttempts)
	require.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	require.Equal(t, float64(25), cfg.Pace.RequestsPerSecond)
	require.Equal(t, int64(8), cfg.Pace.MaxInflight)
	require.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ACCORD_TOKEN", "env-token")
	t.Setenv("ACCORD_RETRY_MAX_ATTEMPTS", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Token)
	require.Equal(t, 9, cfg.Retry.MaxAttempts)
}
