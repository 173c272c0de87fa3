package connector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
)

// OpenOptions carry per-connector settings that are not part of Config.
type OpenOptions struct {
	Logger zerolog.Logger
	// LogQueries enables driver-level statement tracing where supported.
	LogQueries bool
}

// Provider opens single sessions for one driver.
type Provider interface {
	Open(ctx context.Context, cfg Config, opts OpenOptions) (database.Session, error)
	Dialect() dialect.Dialect
}
