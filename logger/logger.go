// Package logger builds the zerolog logger shared by every component, and
// the pgx tracer that routes driver statement logs through it.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	pgxzerolog "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/zakwanzambri/wintradesgo-sub004/config"
)

// New returns a logger writing to stderr.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter returns a logger writing to w: console format for
// "console", JSON otherwise.
func NewWithWriter(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "wintrades").Logger(), nil
}

// NewPgxTracer logs every pgx statement through log at debug level.
func NewPgxTracer(log zerolog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   pgxzerolog.NewLogger(log.With().Str("component", "pgx").Logger()),
		LogLevel: tracelog.LogLevelDebug,
	}
}
