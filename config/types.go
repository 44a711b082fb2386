package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the root of the butler.yml configuration.
type Config struct {
	// Version of the configuration format (e.g. "1.0").
	Version string `yaml:"version,omitempty" toml:"version,omitempty" jsonschema:"description=Configuration format version"`

	// DataDir overrides the default data directory for the database and
	// project registry. Tilde is expanded.
	DataDir string `yaml:"data_dir,omitempty" toml:"data_dir,omitempty" jsonschema:"description=Override for the butler data directory"`

	// Watch configures the per-project filesystem observation.
	Watch WatchConfig `yaml:"watch,omitempty" toml:"watch,omitempty" jsonschema:"description=Filesystem watching behavior"`

	// Daemon configures the butlerd control socket.
	Daemon DaemonConfig `yaml:"daemon,omitempty" toml:"daemon,omitempty" jsonschema:"description=Daemon socket configuration"`

	// Extensions holds configuration sections butler itself does not interpret
	// (e.g. "logging"). Decoded on demand with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:"-" toml:"-" json:"-"`
}

// WatchConfig configures the dispatcher and the watcher event loop.
type WatchConfig struct {
	// IgnorePatterns are .gitignore-style patterns excluded from observation,
	// in addition to the built-in version-control noise filter.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty" toml:"ignore_patterns,omitempty" jsonschema:"description=Extra ignore patterns for the file watcher"`

	// TickInterval is how often the dispatcher emits a timer tick (e.g. "10s").
	TickInterval string `yaml:"tick_interval,omitempty" toml:"tick_interval,omitempty" jsonschema:"description=Dispatcher tick interval"`

	// SessionInactivity is how long a session may stay idle before a tick
	// flushes it (e.g. "5m").
	SessionInactivity string `yaml:"session_inactivity,omitempty" toml:"session_inactivity,omitempty" jsonschema:"description=Idle duration after which an open session is flushed"`

	// MaxQueue caps the number of pending events per project. Above the cap
	// the oldest pending event is dropped with a warning.
	MaxQueue int `yaml:"max_queue,omitempty" toml:"max_queue,omitempty" jsonschema:"description=Maximum pending events per project before the oldest is dropped"`

	// MaxFileSize is the largest file, in bytes, whose content is snapshotted
	// into events. Larger files are ignored.
	MaxFileSize int64 `yaml:"max_file_size,omitempty" toml:"max_file_size,omitempty" jsonschema:"description=Largest file size in bytes recorded by the watcher"`
}

// DaemonConfig configures the butlerd control surface.
type DaemonConfig struct {
	// Socket overrides the default unix socket path.
	Socket string `yaml:"socket,omitempty" toml:"socket,omitempty" jsonschema:"description=Override for the butlerd unix socket path"`
}

// Default values applied where the configuration is silent.
const (
	DefaultTickInterval      = 10 * time.Second
	DefaultSessionInactivity = 5 * time.Minute
	DefaultMaxQueue          = 4096
	DefaultMaxFileSize       = 4 << 20
)

// TickIntervalDuration returns the configured tick interval or the default.
func (w WatchConfig) TickIntervalDuration() time.Duration {
	return parseDuration(w.TickInterval, DefaultTickInterval)
}

// SessionInactivityDuration returns the configured inactivity threshold or the default.
func (w WatchConfig) SessionInactivityDuration() time.Duration {
	return parseDuration(w.SessionInactivity, DefaultSessionInactivity)
}

// MaxQueueSize returns the configured queue cap or the default.
func (w WatchConfig) MaxQueueSize() int {
	if w.MaxQueue > 0 {
		return w.MaxQueue
	}
	return DefaultMaxQueue
}

// MaxFileSizeBytes returns the configured snapshot size limit or the default.
func (w WatchConfig) MaxFileSizeBytes() int64 {
	if w.MaxFileSize > 0 {
		return w.MaxFileSize
	}
	return DefaultMaxFileSize
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// UnmarshalExtension decodes a custom top-level section of the loaded
// butler.yml into the provided target struct. The target must be a pointer.
// This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
