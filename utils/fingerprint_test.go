package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "SELECT * FROM trades", "SELECT * FROM trades"},
		{"collapses runs", "SELECT *\n\tFROM   trades\n", "SELECT * FROM trades"},
		{"keeps literal spacing", "SELECT 'a  b'  FROM t", "SELECT 'a  b' FROM t"},
		{"keeps quoted identifier", `SELECT "my  col" FROM t`, `SELECT "my  col" FROM t`},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.in))
		})
	}
}

func TestFingerprintQuery(t *testing.T) {
	a := FingerprintQuery("SELECT * FROM portfolios WHERE user_id = $1")
	b := FingerprintQuery("SELECT *\n  FROM portfolios\n  WHERE user_id = $1")
	c := FingerprintQuery("SELECT * FROM trades WHERE user_id = $1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, FingerprintString("SELECT 1"), FingerprintQuery(" SELECT 1 "))
}
