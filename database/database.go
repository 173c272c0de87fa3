// Package database defines the storage-engine capability set the data-access
// core depends on, plus adapters for pgx and database/sql.
package database

import (
	"context"
)

// Row is one result row keyed by column name. Values are normalized (see
// Normalize) so rows stay JSON- and gob-serializable.
type Row map[string]any

// Querier executes parameterized statements.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
}

// Session is one open storage-engine session. It is never shared between
// goroutines; the pool hands it to exactly one holder at a time.
type Session interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	// IsClosed reports whether the session is no longer usable.
	IsClosed() bool
	Close(ctx context.Context) error
}

// Tx is a transaction scoped to a single Session.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows iterates a result set.
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Result reports the outcome of Exec.
type Result interface {
	RowsAffected() (int64, error)
}

// Opener opens new sessions. connector.Connector satisfies it.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }
