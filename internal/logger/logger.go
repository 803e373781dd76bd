package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sevigo/cbng-reviewer/internal/config"
)

// NewLogger initializes a new slog logger based on the provided configuration.
// Output "stdout" or "" writes to output (stdout when nil), "stderr" to
// stderr, and any other value is treated as a file path opened for append.
func NewLogger(cfg config.LoggingConfig, output io.Writer) *slog.Logger {
	var handler slog.Handler

	switch cfg.Output {
	case "", "stdout":
		if output == nil {
			output = os.Stdout
		}
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = new(slog.Level)
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level: level,
		})
	case "text":
		fallthrough
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}
