// Package logging sets up the process logger.
//
// The TUI owns stdout, so logs go to a file under the app directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Setup opens the log file and returns a logger writing JSON lines to it.
// The returned closer must be closed on shutdown. An unknown level falls back
// to info.
func Setup(level, path string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(file).Level(lvl).With().Timestamp().Logger()
	return logger, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
