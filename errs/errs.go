// Package errs defines the error taxonomy shared by the pool, cache and
// data-access engine.
//
// Callers match on these with errors.Is / errors.As; the API layer above this
// module decides how they map onto user-facing failures.
package errs

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrPoolExhausted is returned when no connection became available within
	// the pool's maximum wait.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolClosed is returned by Acquire after the pool has been closed.
	ErrPoolClosed = errors.New("connection pool is closed")

	// ErrNotFound is returned when a locked update finds no target row.
	ErrNotFound = errors.New("record not found")
)

// ConnectionCreateError reports that a new storage session could not be
// opened or configured.
type ConnectionCreateError struct {
	Err error
}

func (e *ConnectionCreateError) Error() string {
	return fmt.Sprintf("create connection: %v", e.Err)
}

func (e *ConnectionCreateError) Unwrap() error { return e.Err }

// TxOp names the transaction step that failed.
type TxOp string

const (
	TxBegin    TxOp = "begin"
	TxCommit   TxOp = "commit"
	TxRollback TxOp = "rollback"
)

// TransactionError reports a failed begin, commit or rollback.
type TransactionError struct {
	Op  TxOp
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// SQLSTATE codes worth retrying as a whole operation.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsRetryable reports whether the failed operation may succeed if repeated
// unchanged: session creation failures and serialization/deadlock aborts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var createErr *ConnectionCreateError
	if errors.As(err, &createErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return false
}
