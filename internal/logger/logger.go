// Package logger builds the slog.Logger used across the server.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmLog "github.com/charmbracelet/log"

	"github.com/bjaus/slackdispatch/internal/config"
)

const (
	defaultFormat = "text"
	defaultLevel  = "info"
)

// New returns a logger writing to stderr. The text format is rendered by
// charmbracelet/log; json uses the standard JSON handler.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = defaultFormat
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	switch format {
	case "text":
		pretty := charmLog.NewWithOptions(w, charmLog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			Formatter:       charmLog.TextFormatter,
			Prefix:          "slackdispatch",
		})
		return slog.New(pretty), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// ParseLevel maps a level name to its slog level. An empty name is info.
func ParseLevel(input string) (slog.Level, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		text = defaultLevel
	}

	switch text {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", text)
	}
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}
