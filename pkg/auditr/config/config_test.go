package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/auditr/pkg/auditr/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultOutput, cfg.Output)
	assert.True(t, cfg.Progress)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, config.DefaultHistoryPath(), cfg.History.Path)
	assert.Equal(t, config.DefaultRetentionDays, cfg.History.RetentionDays)
	assert.Equal(t, config.DefaultWatchDebounce, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "10MB", cfg.Logging.Rotation.MaxSize)
	assert.Equal(t, "warn", cfg.Logging.Components["watcher"])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: json
progress: false
history:
  enabled: false
  path: /var/lib/auditr
watch:
  debounce: 500ms
logging:
  level: debug
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.False(t, cfg.Progress)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "/var/lib/auditr", cfg.History.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unterminated\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AUDITR_OUTPUT", "yaml")
	t.Setenv("AUDITR_HISTORY_RETENTION_DAYS", "7")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, 7, cfg.History.RetentionDays)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	written, err := config.WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = config.WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, written)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutput, cfg.Output)
	assert.Equal(t, config.DefaultWatchDebounce, cfg.Watch.Debounce)
	assert.Equal(t, config.DefaultLogMaxBackups, cfg.Logging.Rotation.MaxBackups)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs", "/abs"},
		{"~", home},
		{"~/logs/a.log", filepath.Join(home, "logs/a.log")},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := config.ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
