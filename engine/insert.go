package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
)

// BatchInsert writes rows into table in chunks of batchSize (<= 0 uses the
// configured default), one transaction per chunk. Columns are taken from the
// first row and every row must carry exactly those columns.
//
// Chunks commit independently: when a chunk fails it is rolled back, earlier
// chunks stay committed, and the number of rows committed so far is returned
// with the error.
func (e *Engine) BatchInsert(ctx context.Context, table string, rows []database.Row, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	cols := sortedKeys(rows[0])
	if len(cols) == 0 {
		return 0, fmt.Errorf("batch insert into %s: first row has no columns", table)
	}
	if maxCols := e.dialect.MaxParams(); len(cols) > maxCols {
		return 0, fmt.Errorf("batch insert into %s: %d columns exceed the %d bind parameter limit of %s",
			table, len(cols), maxCols, e.dialect.Name())
	}
	for i, row := range rows {
		if err := checkColumns(row, cols); err != nil {
			return 0, fmt.Errorf("batch insert into %s: row %d: %w", table, i, err)
		}
	}

	if batchSize <= 0 {
		batchSize = e.opts.BatchSize
	}
	if limit := e.dialect.MaxParams() / len(cols); batchSize > limit {
		batchSize = limit
	}

	label := insertLabel(e.dialect, table, cols)
	var inserted int64
	for start := 0; start < len(rows); start += batchSize {
		chunk := rows[start:min(start+batchSize, len(rows))]

		if err := e.insertChunk(ctx, table, cols, chunk, label); err != nil {
			return inserted, fmt.Errorf("batch insert into %s: chunk %d (rows %d-%d): %w",
				table, start/batchSize+1, start, start+len(chunk)-1, err)
		}
		inserted += int64(len(chunk))
	}

	e.log.Debug().Str("table", table).Int64("rows", inserted).Int("batch_size", batchSize).Msg("batch insert done")
	return inserted, nil
}

func (e *Engine) insertChunk(ctx context.Context, table string, cols []string, chunk []database.Row, label string) error {
	ab := getArgBuffer(len(chunk) * len(cols))
	defer putArgBuffer(ab)

	var query string
	query, ab.args = buildInsert(e.dialect, table, cols, chunk, ab.args)

	return e.withConn(ctx, func(conn *pool.Conn) error {
		return e.inTx(ctx, conn, func(tx database.Tx) error {
			start := time.Now()
			if _, err := tx.Exec(ctx, query, ab.args...); err != nil {
				e.stats.RecordError(label)
				return err
			}
			e.observe(label, time.Since(start))
			return nil
		})
	})
}

func checkColumns(row database.Row, cols []string) error {
	if len(row) != len(cols) {
		return fmt.Errorf("has %d columns, want %d (%v)", len(row), len(cols), cols)
	}
	for _, c := range cols {
		if _, ok := row[c]; !ok {
			return fmt.Errorf("columns %v do not match %v", sortedKeys(row), cols)
		}
	}
	return nil
}
