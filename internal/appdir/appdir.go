// Package appdir provides constants and utilities for the .taskdeck directory structure.
package appdir

import (
	"os"
	"path/filepath"
)

const (
	// Dir is the name of the taskdeck state directory.
	Dir = ".taskdeck"

	// DefaultSessionFile is the default session file name (inside .taskdeck).
	DefaultSessionFile = "session.json"

	// DefaultConfigFile is the default config file name (inside .taskdeck).
	DefaultConfigFile = "taskdeck.toml"

	// DefaultLogFile is the default log file name (inside .taskdeck).
	DefaultLogFile = "taskdeck.log"
)

// Path returns the full path to the .taskdeck directory in the user's home.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, Dir), nil
}

// SessionPath returns the full path to the session file.
func SessionPath() (string, error) {
	return join(DefaultSessionFile)
}

// ConfigPath returns the full path to the user config file.
func ConfigPath() (string, error) {
	return join(DefaultConfigFile)
}

// LogPath returns the full path to the log file.
func LogPath() (string, error) {
	return join(DefaultLogFile)
}

// Ensure creates the .taskdeck directory if it does not exist.
func Ensure() (string, error) {
	dir, err := Path()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func join(file string) (string, error) {
	dir, err := Path()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}
