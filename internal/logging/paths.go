package logging

import (
	"os"
	"path/filepath"
)

// LogFileName is the active log file; rotated files get a numeric suffix.
const LogFileName = "docrag.log"

// DefaultLogDir returns where logs go when the config names no file:
// $XDG_STATE_HOME/docrag/logs when set, else ~/.docrag/logs, else a
// directory under the system temp dir.
func DefaultLogDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "docrag", "logs")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), ".docrag", "logs")
	}
	return filepath.Join(home, ".docrag", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}
