package utils

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// FingerprintString hashes s with FNV-64a.
func FingerprintString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// NormalizeQuery trims a SQL template and collapses whitespace runs outside
// quoted literals and identifiers to one space.
func NormalizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))

	var quote rune
	pendingSpace := false
	for _, r := range strings.TrimSpace(q) {
		if quote == 0 && unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		switch {
		case quote == 0 && (r == '\'' || r == '"' || r == '`'):
			quote = r
		case quote != 0 && r == quote:
			quote = 0
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FingerprintQuery identifies a query template independent of its layout.
func FingerprintQuery(q string) uint64 {
	return FingerprintString(NormalizeQuery(q))
}
