package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ContentID computes a deterministic identity from a transaction's stable
// fields. The same real-world event always hashes to the same ID no matter how
// many times a sync is re-run, which is what makes re-sync idempotent.
//
// Source-native IDs take precedence when a source supplies them: they
// disambiguate otherwise-identical same-day/same-amount events that a pure
// content hash would collide on.
func ContentID(t Transaction) string {
	parts := []string{
		t.Date.UTC().Format(DateLayout),
		strconv.FormatFloat(t.Amount, 'f', -1, 64),
		t.Description,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// EnsureID assigns a content-derived ID when the source provided none.
func EnsureID(t *Transaction) {
	if t.ID == "" {
		t.ID = ContentID(*t)
	}
}
