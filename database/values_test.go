package database

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	id := uuid.MustParse("0b5c6c39-3d4e-4b7a-9d1f-2a51a0c1e7f4")
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int32", int32(7), int64(7)},
		{"uint64 small", uint64(9), int64(9)},
		{"uint64 large", uint64(math.MaxUint64), decimal.RequireFromString("18446744073709551615")},
		{"float32", float32(1.5), 1.5},
		{"uuid", id, id.String()},
		{"uuid bytes", [16]byte(id), id.String()},
		{"time", at, at},
		{"numeric", pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}, decimal.New(12345, -2)},
		{"numeric null", pgtype.Numeric{}, nil},
		{"numeric NaN", pgtype.Numeric{NaN: true, Valid: true}, "NaN"},
		{"numeric +inf", pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, "Infinity"},
		{"numeric -inf", pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, "-Infinity"},
		{"float NaN", math.NaN(), "NaN"},
		{"float -inf", math.Inf(-1), "-Infinity"},
		{"nested", []any{int16(1), map[string]any{"n": uint8(2)}}, []any{int64(1), map[string]any{"n": int64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_NonFiniteRowsMarshal(t *testing.T) {
	row := Row{
		"price":  Normalize(pgtype.Numeric{NaN: true, Valid: true}),
		"ceil":   Normalize(pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}),
		"spread": Normalize(math.Inf(1)),
	}

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"NaN","ceil":"Infinity","spread":"Infinity"}`, string(out))
}
