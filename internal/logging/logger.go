package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls where and how much the CLI logs.
type Options struct {
	// Environment selects the handler: "production" logs JSON, anything else text.
	Environment string
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives the log output instead of stderr. Interactive
	// views use this so log lines do not tear the terminal UI.
	File string
}

// Init configures the global slog logger and returns it together with a
// closer for the log file (a no-op when logging to stderr).
func Init(opts Options) (*slog.Logger, func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = f.Close
	}

	logger := slog.New(NewHandler(out, opts.Environment, ParseLevel(opts.Level)))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// NewHandler returns a JSON handler in production and a text handler otherwise.
func NewHandler(w io.Writer, environment string, level slog.Level) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(environment) == "production" {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithAgent returns a logger scoped to one agent.
func WithAgent(logger *slog.Logger, agentID string) *slog.Logger {
	return logger.With("agent_id", agentID)
}

// WithRequest returns a logger scoped to a single backend request.
func WithRequest(logger *slog.Logger, requestID, method, path string) *slog.Logger {
	return logger.With(
		"request_id", requestID,
		"method", method,
		"path", path,
	)
}
