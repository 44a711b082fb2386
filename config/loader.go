package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// knownKeys are the top-level sections butler interprets itself. Everything
// else in the file is collected into Extensions.
var knownKeys = map[string]bool{
	"version":  true,
	"data_dir": true,
	"watch":    true,
	"daemon":   true,
}

// candidateNames are the config file names probed in order.
var candidateNames = []string{"butler.yml", "butler.yaml", "butler.toml"}

// FindConfigFile locates the butler configuration file in the config directory.
// Returns an empty string when no file exists; running without a config file is
// supported and yields defaults.
func FindConfigFile() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	for _, name := range candidateNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads and parses a butler configuration file. The format is chosen by
// file extension: .toml is parsed with go-toml, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if strings.HasSuffix(path, ".toml") {
		return loadFromBytes(data, toml.Unmarshal)
	}
	return LoadFromBytes(data)
}

// LoadDefault loads the configuration from the standard location, returning a
// default configuration when no file exists.
func LoadDefault() (*Config, error) {
	path := FindConfigFile()
	if path == "" {
		return &Config{}, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromBytes parses a YAML configuration document.
func LoadFromBytes(data []byte) (*Config, error) {
	return loadFromBytes(data, yaml.Unmarshal)
}

func loadFromBytes(data []byte, unmarshal func([]byte, interface{}) error) (*Config, error) {
	var cfg Config
	if err := unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file")
	}

	// Decode a second time into a generic map to collect extension sections.
	var raw map[string]interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file")
	}
	for key, value := range raw {
		if knownKeys[key] {
			continue
		}
		if cfg.Extensions == nil {
			cfg.Extensions = make(map[string]interface{})
		}
		cfg.Extensions[key] = value
	}

	return &cfg, nil
}

// DataDirOrDefault resolves the effective data directory.
func (c *Config) DataDirOrDefault() string {
	if c.DataDir != "" {
		return expandPath(c.DataDir)
	}
	return paths.DataDir()
}

// SocketOrDefault resolves the effective daemon socket path.
func (c *Config) SocketOrDefault() string {
	if c.Daemon.Socket != "" {
		return expandPath(c.Daemon.Socket)
	}
	return paths.SocketPath()
}

func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("BUTLER_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
