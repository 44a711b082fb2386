// Package paths provides XDG-compliant path resolution for butler.
//
// Resolution order:
// 1. BUTLER_HOME (portable root) → $BUTLER_HOME/{config,data,state}
// 2. XDG env vars → $XDG_*_HOME/butler
// 3. Platform defaults → ~/.config/butler, ~/.local/share/butler, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if butlerHome := os.Getenv("BUTLER_HOME"); butlerHome != "" {
		return filepath.Join(butlerHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if butlerHome := os.Getenv("BUTLER_HOME"); butlerHome != "" {
		return filepath.Join(butlerHome, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if butlerHome := os.Getenv("BUTLER_HOME"); butlerHome != "" {
		return filepath.Join(butlerHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the butler configuration directory.
// Used for config files like butler.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "butler")
}

// DataDir returns the butler data directory.
// Used for the edit-history database and the project registry.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "butler")
}

// StateDir returns the butler state directory.
// Used for runtime state and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "butler")
}

// LogDir returns the directory butler writes its log files into.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// DatabasePath returns the path to the edit-history SQLite database.
func DatabasePath() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "butler.db")
}

// ProjectsFile returns the path to the project registry file.
func ProjectsFile() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "projects.json")
}

// RuntimeDir returns the butler runtime directory for sockets and pipes.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if butlerHome := os.Getenv("BUTLER_HOME"); butlerHome != "" {
		return filepath.Join(butlerHome, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "butler")
	}
	// Fallback: use state dir for socket on macOS/systems without XDG_RUNTIME_DIR
	return StateDir()
}

// SocketPath returns the path to the butler daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "butlerd.sock")
}

// PidFilePath returns the path to the butler daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "butlerd.pid")
}

// EnsureDirs creates all butler directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
