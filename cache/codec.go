package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
)

func init() {
	// Concrete types that can sit behind the interface values of a Row.
	gob.Register([]any{})
	gob.Register(map[string]any{})
	gob.Register(time.Time{})
	gob.Register(decimal.Decimal{})
}

type rowsPayload struct {
	Rows []database.Row
}

// EncodeRows serializes normalized rows for storage in the cache.
func EncodeRows(rows []database.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rowsPayload{Rows: rows}); err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRows reverses EncodeRows. An empty result decodes to an empty,
// non-nil slice.
func DecodeRows(data []byte) ([]database.Row, error) {
	var payload rowsPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if payload.Rows == nil {
		return []database.Row{}, nil
	}
	return payload.Rows, nil
}
