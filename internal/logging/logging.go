// Package logging sets up structured slog logging with a size-rotated
// file sink and an optional stderr mirror, grounded on the teacher's
// internal/logging package (Config/Setup shape, RotatingWriter size +
// count bound, Sync/Close cleanup on exit).
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls where and how verbosely ragdex logs.
type Config struct {
	Level         string
	FilePath      string
	MaxSizeMB     int
	MaxFiles      int
	WriteToStderr bool
}

// DefaultLogDir returns ~/.ragdex/logs, falling back to a temp directory
// if the home directory cannot be resolved.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ragdex", "logs")
	}
	return filepath.Join(home, ".ragdex", "logs")
}

// DefaultLogPath returns the default ragdex log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "ragdex.log")
}

// DefaultConfig returns the built-in logging defaults: info level, file
// logging under DefaultLogPath, no stderr mirror (CLI output already
// goes to stderr/stdout via internal/cliui).
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}
}

// Setup builds a JSON-handler *slog.Logger writing to a rotating file
// (plus stderr when configured) and returns a cleanup func that syncs
// and closes the underlying file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, err
	}

	writer, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = writer
	if cfg.WriteToStderr {
		out = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
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
