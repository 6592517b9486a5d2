package networth

import (
	"context"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/simplefin"
)

type memorySnapshots struct {
	rows map[string]core.BalanceSnapshot
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{rows: make(map[string]core.BalanceSnapshot)}
}

func (m *memorySnapshots) SaveBalanceSnapshot(_ context.Context, snapshots []core.BalanceSnapshot) error {
	for _, s := range snapshots {
		key := s.Date.Format(core.DateLayout) + "|" + s.Institution + "|" + s.Account
		m.rows[key] = s
	}
	return nil
}

func TestReconcileSplitsLockedFromLiquid(t *testing.T) {
	store := newMemorySnapshots()
	rec := NewReconciler(store, nil)
	asOf := time.Date(2025, 4, 2, 15, 30, 0, 0, time.UTC)

	balances := []AccountBalance{
		{Institution: "Capital One", Account: "360 Checking", Balance: 2500},
		{Institution: "Morgan Stanley", Account: "Self-Directed Brokerage", Balance: 1000},
		{Institution: "Fidelity 401k", Account: "401K SAVINGS PLAN", Balance: 9999},
	}

	summary, err := rec.Reconcile(context.Background(), balances, asOf)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if summary.Liquid != 2500 {
		t.Errorf("liquid = %v, want 2500 (locked account excluded)", summary.Liquid)
	}
	if summary.Locked != 1000 {
		t.Errorf("locked = %v, want 1000", summary.Locked)
	}
	if summary.Total != 3500 {
		t.Errorf("total = %v, duplicate feed must not be counted", summary.Total)
	}
	if len(summary.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (duplicate feed skipped)", len(summary.Rows))
	}
	if len(store.rows) != 2 {
		t.Errorf("persisted snapshots = %d, want 2", len(store.rows))
	}

	// Snapshots key on the calendar day, not the full timestamp.
	for _, s := range store.rows {
		if !s.Date.Equal(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("snapshot date = %v, want day truncation", s.Date)
		}
	}
}

func TestReconcileSameDayConverges(t *testing.T) {
	store := newMemorySnapshots()
	rec := NewReconciler(store, nil)
	day := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	first := []AccountBalance{{Institution: "Capital One", Account: "360 Checking", Balance: 100}}
	if _, err := rec.Reconcile(context.Background(), first, day); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	later := []AccountBalance{{Institution: "Capital One", Account: "360 Checking", Balance: 180}}
	if _, err := rec.Reconcile(context.Background(), later, day.Add(6*time.Hour)); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("rows = %d, same-day passes must converge on one snapshot", len(store.rows))
	}
	for _, s := range store.rows {
		if s.Balance != 180 {
			t.Errorf("balance = %v, want latest observation", s.Balance)
		}
	}
}

func TestFromAccountSet(t *testing.T) {
	set := &simplefin.AccountSet{Accounts: []simplefin.Account{
		{Org: simplefin.Org{Name: "E*Trade"}, Name: "Complete Savings", Balance: "1000.00"},
		{Org: simplefin.Org{Name: "Chase"}, Name: "Freedom", Balance: "not-a-number"},
		{Name: "Orphan", Balance: "12.50"},
	}}

	got := FromAccountSet(context.Background(), set)
	if len(got) != 2 {
		t.Fatalf("balances = %d, want 2 (bad balance skipped)", len(got))
	}
	if got[0].Balance != 1000 {
		t.Errorf("balance = %v, want 1000", got[0].Balance)
	}
	if got[1].Institution != "Unknown Bank" {
		t.Errorf("institution = %q, want placeholder", got[1].Institution)
	}
}
