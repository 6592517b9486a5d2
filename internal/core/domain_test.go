package core

import (
	"testing"
	"time"
)

func validTx() Transaction {
	return Transaction{
		Date:        time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		Amount:      42.38,
		Description: "TRADER JOES",
		Category:    Uncategorized,
		Type:        Expense,
		Status:      StatusPending,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
		{"negative amount", func(tx *Transaction) { tx.Amount = -1 }, ErrNegativeAmount},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"bad type", func(tx *Transaction) { tx.Type = "Spend" }, ErrInvalidType},
		{"bad status", func(tx *Transaction) { tx.Status = "DONE" }, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			if err := tx.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	tx := validTx()
	if got := tx.SignedAmount(); got != -42.38 {
		t.Errorf("expense signed amount = %v, want -42.38", got)
	}
	tx.Type = Income
	if got := tx.SignedAmount(); got != 42.38 {
		t.Errorf("income signed amount = %v, want 42.38", got)
	}
	tx.Type = Reimbursement
	if got := tx.SignedAmount(); got != 42.38 {
		t.Errorf("reimbursement signed amount = %v, want positive", got)
	}
}

func TestContentIDDeterministic(t *testing.T) {
	a := validTx()
	b := validTx()
	if ContentID(a) != ContentID(b) {
		t.Error("identical content must hash to identical IDs")
	}

	b.Amount = 42.39
	if ContentID(a) == ContentID(b) {
		t.Error("different amounts must hash to different IDs")
	}

	c := validTx()
	c.Description = "TRADER JOES "
	if ContentID(a) == ContentID(c) {
		t.Error("description is part of the identity")
	}

	// Labels and review state are not part of the identity; relabeling must
	// never change what the row deduplicates against.
	d := validTx()
	d.Category = "Groceries"
	d.Status = StatusReviewed
	if ContentID(a) != ContentID(d) {
		t.Error("mutable fields must not affect the identity")
	}
}

func TestEnsureID(t *testing.T) {
	tx := validTx()
	EnsureID(&tx)
	if tx.ID == "" {
		t.Fatal("EnsureID left the ID empty")
	}

	withSourceID := validTx()
	withSourceID.ID = "source-native-1"
	EnsureID(&withSourceID)
	if withSourceID.ID != "source-native-1" {
		t.Error("source-native IDs must be preserved")
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	stamp := time.Date(2025, 1, 2, 22, 15, 0, 0, loc) // 2025-01-03 06:15 UTC
	got := Day(stamp)
	want := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}
