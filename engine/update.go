package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/errs"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
)

// UpdateLocked applies changes to the row of table whose id column equals id
// while holding an exclusive row lock. A missing row yields errs.ErrNotFound.
// Serialization failures and deadlocks are retried per Options.Retry. After
// commit the cache families of the table are invalidated; failures to
// invalidate are logged only.
func (e *Engine) UpdateLocked(ctx context.Context, table string, id any, changes map[string]any) error {
	if len(changes) == 0 {
		return fmt.Errorf("update %s: no changes", table)
	}
	if _, ok := changes[e.opts.IDColumn]; ok {
		return fmt.Errorf("update %s: column %s cannot be changed", table, e.opts.IDColumn)
	}

	if col := e.opts.UpdatedAtColumn; col != "" {
		if _, set := changes[col]; !set {
			stamped := make(map[string]any, len(changes)+1)
			for k, v := range changes {
				stamped[k] = v
			}
			stamped[col] = e.opts.Now().UTC()
			changes = stamped
		}
	}

	lockQuery := buildLockSelect(e.dialect, table, e.opts.IDColumn)
	updateQuery, args := buildUpdate(e.dialect, table, e.opts.IDColumn, sortedKeys(changes), changes, id)

	// A retried attempt starts over from the row lock.
	err := connector.RetryIf(ctx, e.opts.Retry, errs.IsRetryable, func(ctx context.Context) error {
		return e.withConn(ctx, func(conn *pool.Conn) error {
			return e.inTx(ctx, conn, func(tx database.Tx) error {
				found, err := e.lockRow(ctx, tx, lockQuery, id)
				if err != nil {
					return err
				}
				if !found {
					return errs.ErrNotFound
				}

				start := time.Now()
				if _, err := tx.Exec(ctx, updateQuery, args...); err != nil {
					e.stats.RecordError(updateQuery)
					return err
				}
				e.observe(updateQuery, time.Since(start))
				return nil
			})
		})
	})
	if err != nil {
		return fmt.Errorf("update %s id %v: %w", table, id, err)
	}

	e.invalidate(table)
	return nil
}

func (e *Engine) lockRow(ctx context.Context, tx database.Tx, query string, id any) (bool, error) {
	start := time.Now()
	rows, err := tx.Query(ctx, query, id)
	if err != nil {
		e.stats.RecordError(query)
		return false, err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		e.stats.RecordError(query)
		return false, err
	}
	e.observe(query, time.Since(start))
	return found, nil
}

// InvalidationPatterns returns the cache key patterns dropped after an update
// of table: "<singular>_*", "<table>_*" and any configured extras.
func (e *Engine) InvalidationPatterns(table string) []string {
	base := table
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[i+1:]
	}

	patterns := []string{e.plural.Singular(base) + "_*"}
	if p := base + "_*"; p != patterns[0] {
		patterns = append(patterns, p)
	}
	return append(patterns, e.opts.Invalidate[table]...)
}

func (e *Engine) invalidate(table string) {
	for _, pattern := range e.InvalidationPatterns(table) {
		n, err := e.cache.DeletePattern(pattern)
		if err != nil {
			e.log.Warn().Err(err).Str("table", table).Msg("cache invalidation skipped")
			continue
		}
		if n > 0 {
			e.log.Debug().Str("pattern", pattern).Int("removed", n).Msg("cache invalidated")
		}
	}
}
