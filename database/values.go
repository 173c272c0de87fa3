package database

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CollectRows drains rows into normalized Row maps and closes the iterator.
func CollectRows(rows Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]Row, 0, 16)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if i < len(vals) {
				row[col] = Normalize(vals[i])
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Normalize maps a driver value onto the closed set of types rows carry:
// nil, bool, int64, float64, string, []byte, time.Time, decimal.Decimal,
// []any and map[string]any. NaN and infinities become "NaN", "Infinity"
// and "-Infinity".
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, bool, int64, string, []byte, time.Time, decimal.Decimal:
		return val
	case float64:
		return normalizeFloat(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		return normalizeUint(uint64(val))
	case uint64:
		return normalizeUint(val)
	case float32:
		return normalizeFloat(float64(val))
	case [16]byte:
		return uuid.UUID(val).String()
	case uuid.UUID:
		return val.String()
	case pgtype.Numeric:
		return normalizeNumeric(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		return decimal.NewFromBigInt(val, 0)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = Normalize(val[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return decimal.RequireFromString(strconv.FormatUint(u, 10))
}

// normalizeFloat spells NaN and infinities the way Postgres prints them;
// JSON has no encoding for them.
func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

func normalizeNumeric(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return "NaN"
	case n.InfinityModifier == pgtype.Infinity:
		return "Infinity"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "-Infinity"
	case n.Int == nil:
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
