// Package logger configures the process-wide structured logger. The TUI owns
// stdout, so output normally goes to a file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config describes how the logger should behave.
type Config struct {
	Level  string
	Format string // "text" or "json"
	Path   string // file path, "stderr" or "stdout"
}

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	closer        io.Closer
)

// Init configures the global logger and installs it as slog's default.
// Calling Init again replaces the previous configuration.
func Init(cfg Config) error {
	writer, c, err := openWriter(cfg.Path)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	mu.Lock()
	defer mu.Unlock()
	prev := closer
	defaultLogger = slog.New(handler)
	closer = c
	slog.SetDefault(defaultLogger)
	if prev != nil {
		return prev.Close()
	}
	return nil
}

func openWriter(path string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(path) {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the configured logger, or slog's default before Init.
func L() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

// Named returns a child logger tagged with a component name.
func Named(name string) *slog.Logger {
	return L().With("component", name)
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}
