package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes(t *testing.T) {
	yml := `
version: "1.0"
data_dir: /tmp/butler-test
watch:
  ignore_patterns:
    - "*.log"
    - node_modules/
  tick_interval: 2s
  session_inactivity: 90s
  max_queue: 128
logging:
  level: debug
`
	cfg, err := LoadFromBytes([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "/tmp/butler-test", cfg.DataDir)
	assert.Equal(t, []string{"*.log", "node_modules/"}, cfg.Watch.IgnorePatterns)
	assert.Equal(t, 2*time.Second, cfg.Watch.TickIntervalDuration())
	assert.Equal(t, 90*time.Second, cfg.Watch.SessionInactivityDuration())
	assert.Equal(t, 128, cfg.Watch.MaxQueueSize())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "butler.toml")
	data := `
version = "1.0"

[watch]
tick_interval = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, 30*time.Second, cfg.Watch.TickIntervalDuration())
}

func TestDefaultsWhenUnset(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultTickInterval, cfg.Watch.TickIntervalDuration())
	assert.Equal(t, DefaultSessionInactivity, cfg.Watch.SessionInactivityDuration())
	assert.Equal(t, DefaultMaxQueue, cfg.Watch.MaxQueueSize())
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Watch.MaxFileSizeBytes())
}

func TestUnmarshalExtension(t *testing.T) {
	yml := `
version: "1.0"
logging:
  level: warn
  report_caller: true
`
	cfg, err := LoadFromBytes([]byte(yml))
	require.NoError(t, err)

	var logCfg struct {
		Level        string `yaml:"level"`
		ReportCaller bool   `yaml:"report_caller"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "warn", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)

	// Unknown keys are not an error
	var other struct{}
	assert.NoError(t, cfg.UnmarshalExtension("missing", &other))
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cfg, err := LoadFromBytes([]byte("version: \"1.0\"\nwatch:\n  max_queue: 64\n"))
	require.NoError(t, err)
	assert.NoError(t, v.Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "butler.yml"))
	assert.Error(t, err)
}
