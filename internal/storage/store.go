// Package storage implements the ledger persistence contract on top of two
// interchangeable stores: an embedded SQLite database and a networked
// Postgres database. Both run the same SQL text through one
// placeholder-substitution convention.
package storage

import (
	"context"
	"time"

	"conti/internal/core"
)

// Store is the persistence contract the core consumes. Every mutation is a
// single atomic statement per row; the core never relies on cross-row
// transactions.
type Store interface {
	// UpsertTransactions inserts candidates that are not already present,
	// resolving missing identities to content hashes. Duplicate identities are
	// success-no-ops; a failure on one row is logged and skipped without
	// aborting the batch. Returns the count of genuinely new rows.
	UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error)

	GetByStatus(ctx context.Context, status core.Status) ([]core.Transaction, error)
	GetAll(ctx context.Context) ([]core.Transaction, error)

	// UpdateFields mutates the reviewable fields of one row. Identity and
	// status are never touched here.
	UpdateFields(ctx context.Context, id string, f FieldUpdate) error

	// MarkReviewed flips PENDING rows to REVIEWED. Rows already reviewed are
	// left alone; the transition is never reversed.
	MarkReviewed(ctx context.Context, ids []string) error

	// SaveBalanceSnapshot upserts one row per (date, institution, account);
	// re-snapshotting the same day replaces that day's value.
	SaveBalanceSnapshot(ctx context.Context, rows []core.BalanceSnapshot) error
	GetBalanceHistory(ctx context.Context) ([]core.BalanceSnapshot, error)

	// NetWorthHistory returns the summed balance per snapshot day, ascending.
	NetWorthHistory(ctx context.Context) ([]NetWorthPoint, error)

	Close() error
}

// FieldUpdate names the mutable fields of a persisted transaction. Nil fields
// are left unchanged. The ledger supports post-hoc correction even after
// approval, so amount and date are editable too.
type FieldUpdate struct {
	Category  *string
	Type      *core.TxType
	Tags      *string
	UserNotes *string
	Amount    *float64
	Date      *time.Time
}

// IsZero reports whether the update would change nothing.
func (f FieldUpdate) IsZero() bool {
	return f.Category == nil && f.Type == nil && f.Tags == nil &&
		f.UserNotes == nil && f.Amount == nil && f.Date == nil
}

// NetWorthPoint is one day's total across all snapshotted accounts.
type NetWorthPoint struct {
	Date  time.Time
	Total float64
}
