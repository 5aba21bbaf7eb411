package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasUsableTimeouts(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 360*time.Second, cfg.ReconnectTimeout)
	assert.True(t, cfg.LogSession)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().ConnectTimeout, cfg.ConnectTimeout)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "condoor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nlog_session: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogSession)
	// Untouched fields keep their Default() values.
	assert.Equal(t, Default().ConnectTimeout, cfg.ConnectTimeout)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "condoor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
