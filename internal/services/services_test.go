package services

import (
	"context"
	"testing"
	"time"

	"conti/internal/classify"
	"conti/internal/core"
	"conti/internal/ingest"
	"conti/internal/networth"
	"conti/internal/simplefin"
	"conti/internal/storage"
)

// memoryStore is a minimal in-memory storage.Store for service tests.
type memoryStore struct {
	txs      map[string]core.Transaction
	order    []string
	balances map[string]core.BalanceSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		txs:      make(map[string]core.Transaction),
		balances: make(map[string]core.BalanceSnapshot),
	}
}

func (m *memoryStore) UpsertTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	inserted := 0
	for _, t := range txs {
		core.EnsureID(&t)
		if _, exists := m.txs[t.ID]; exists {
			continue
		}
		m.txs[t.ID] = t
		m.order = append(m.order, t.ID)
		inserted++
	}
	return inserted, nil
}

func (m *memoryStore) GetByStatus(_ context.Context, status core.Status) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, id := range m.order {
		if m.txs[id].Status == status {
			out = append(out, m.txs[id])
		}
	}
	return out, nil
}

func (m *memoryStore) GetAll(_ context.Context) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.txs[id])
	}
	return out, nil
}

func (m *memoryStore) UpdateFields(_ context.Context, id string, f storage.FieldUpdate) error {
	t := m.txs[id]
	if f.Category != nil {
		t.Category = *f.Category
	}
	if f.Type != nil {
		t.Type = *f.Type
	}
	if f.Tags != nil {
		t.Tags = *f.Tags
	}
	if f.UserNotes != nil {
		t.UserNotes = *f.UserNotes
	}
	if f.Amount != nil {
		t.Amount = *f.Amount
	}
	if f.Date != nil {
		t.Date = *f.Date
	}
	m.txs[id] = t
	return nil
}

func (m *memoryStore) MarkReviewed(_ context.Context, ids []string) error {
	for _, id := range ids {
		if t, ok := m.txs[id]; ok && t.Status == core.StatusPending {
			t.Status = core.StatusReviewed
			m.txs[id] = t
		}
	}
	return nil
}

func (m *memoryStore) SaveBalanceSnapshot(_ context.Context, rows []core.BalanceSnapshot) error {
	for _, s := range rows {
		key := s.Date.Format(core.DateLayout) + "|" + s.Institution + "|" + s.Account
		m.balances[key] = s
	}
	return nil
}

func (m *memoryStore) GetBalanceHistory(context.Context) ([]core.BalanceSnapshot, error) {
	var out []core.BalanceSnapshot
	for _, s := range m.balances {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStore) NetWorthHistory(context.Context) ([]storage.NetWorthPoint, error) {
	totals := make(map[string]float64)
	for _, s := range m.balances {
		totals[s.Date.Format(core.DateLayout)] += s.Balance
	}
	var out []storage.NetWorthPoint
	for day, total := range totals {
		date, _ := time.Parse(core.DateLayout, day)
		out = append(out, storage.NetWorthPoint{Date: date, Total: total})
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

type fakeFetcher struct {
	set   *simplefin.AccountSet
	calls int
}

func (f *fakeFetcher) Accounts(context.Context, simplefin.FetchOptions) (*simplefin.AccountSet, error) {
	f.calls++
	return f.set, nil
}

func feedFixture() *simplefin.AccountSet {
	return &simplefin.AccountSet{Accounts: []simplefin.Account{
		{
			Org:     simplefin.Org{Name: "Capital One"},
			Name:    "360 Checking",
			Balance: "2500.00",
			Transactions: []simplefin.Transaction{
				{ID: "cap-1", Posted: 1735776000, Amount: "-42.38", Description: "TRADER JOES"},
				{ID: "cap-2", Posted: 1735862400, Amount: "2400.00", Description: "ACME CORP PAYROLL"},
			},
		},
		{
			Org:     simplefin.Org{Name: "Robinhood"},
			Name:    "Robinhood individual",
			Balance: "800.00",
			Transactions: []simplefin.Transaction{
				{ID: "rh-1", Posted: 1735776000, Amount: "-100.00", Description: "BUY AAPL"},
			},
		},
	}}
}

func newSyncService(store storage.Store, fetcher AccountFetcher) *SyncService {
	return NewSyncService(
		fetcher,
		ingest.NewSimpleFINAdapter(nil),
		store,
		networth.NewReconciler(store, nil),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	)
}

func TestSyncEndToEnd(t *testing.T) {
	store := newMemoryStore()
	svc := newSyncService(store, &fakeFetcher{set: feedFixture()})

	result, err := svc.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.RunID == "" {
		t.Error("missing run id")
	}
	if result.Inserted != 2 {
		t.Errorf("inserted = %d, want 2 (blocked institution filtered)", result.Inserted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	// Balances from every account land in the snapshot, filter or not.
	if result.Balances.Total != 3300 {
		t.Errorf("total = %v, want 3300", result.Balances.Total)
	}
}

func TestSyncRunKeepsProvidedRunID(t *testing.T) {
	store := newMemoryStore()
	svc := newSyncService(store, &fakeFetcher{set: feedFixture()})

	result, err := svc.SyncRun(context.Background(), "queued-run-7", false)
	if err != nil {
		t.Fatalf("SyncRun: %v", err)
	}
	if result.RunID != "queued-run-7" {
		t.Errorf("run id = %q, a queued request's id must survive to the result", result.RunID)
	}
}

func TestSyncIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc := newSyncService(store, &fakeFetcher{set: feedFixture()})
	ctx := context.Background()

	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := svc.Sync(ctx, true)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Inserted != 0 {
		t.Errorf("second sync inserted = %d, want 0", second.Inserted)
	}
	all, _ := store.GetAll(ctx)
	if len(all) != 2 {
		t.Errorf("ledger rows = %d, want 2", len(all))
	}
}

func TestApproveNormalizesCategory(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	tx := core.Transaction{
		ID: "t1", Date: time.Now(), Amount: 10, Description: "TRADER JOES",
		Category: core.Uncategorized, Type: core.Expense, Status: core.StatusPending,
	}
	if _, err := store.UpsertTransactions(ctx, []core.Transaction{tx}); err != nil {
		t.Fatal(err)
	}

	svc := NewReviewService(store, classify.NewEngine())
	category := "groceries"
	if err := svc.Approve(ctx, "t1", storage.FieldUpdate{Category: &category}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	all, _ := store.GetAll(ctx)
	if all[0].Category != "Groceries" {
		t.Errorf("category = %q, want canonical Groceries", all[0].Category)
	}
	if all[0].Status != core.StatusReviewed {
		t.Errorf("status = %s, want REVIEWED", all[0].Status)
	}
}

func TestApproveRejectsUnknownCategory(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	tx := core.Transaction{
		ID: "t1", Date: time.Now(), Amount: 10, Description: "X",
		Category: core.Uncategorized, Type: core.Expense, Status: core.StatusPending,
	}
	if _, err := store.UpsertTransactions(ctx, []core.Transaction{tx}); err != nil {
		t.Fatal(err)
	}

	svc := NewReviewService(store, classify.NewEngine())
	bogus := "Definitely Not A Category"
	if err := svc.Approve(ctx, "t1", storage.FieldUpdate{Category: &bogus}); err == nil {
		t.Fatal("unknown category should be rejected")
	}

	all, _ := store.GetAll(ctx)
	if all[0].Status != core.StatusPending {
		t.Error("rejected approval must not flip status")
	}
}

func TestSuggestWorksUntrained(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	tx := core.Transaction{
		ID: "t1", Date: time.Now(), Amount: 10, Description: "SOME SHOP",
		Category: core.Uncategorized, Type: core.Expense, Status: core.StatusPending,
	}
	if _, err := store.UpsertTransactions(ctx, []core.Transaction{tx}); err != nil {
		t.Fatal(err)
	}

	svc := NewReviewService(store, classify.NewEngine())
	proposals, err := svc.Suggest(ctx)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals = %d, want 1", len(proposals))
	}
	got := proposals[0].Suggestion
	if got.Type != core.Expense || got.Confidence != 0 {
		t.Errorf("untrained suggestion = %+v, want sign-derived type at zero confidence", got)
	}
}

func TestTrainingUsesOnlyReviewedRows(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	var batch []core.Transaction
	for i := 0; i < 20; i++ {
		batch = append(batch, core.Transaction{
			ID: string(rune('a'+i)) + "-r", Date: time.Now(), Amount: 10,
			Description: "TRADER JOES", Category: "Groceries",
			Type: core.Expense, Status: core.StatusReviewed,
		})
	}
	// Pending rows with labels must not leak into the corpus.
	batch = append(batch, core.Transaction{
		ID: "p-1", Date: time.Now(), Amount: 10, Description: "PENDING ROW",
		Category: "Gas", Type: core.Expense, Status: core.StatusPending,
	})
	if _, err := store.UpsertTransactions(ctx, batch); err != nil {
		t.Fatal(err)
	}

	engine := classify.NewEngine()
	svc := NewTrainingService(store, engine, classify.NewFileModelStore(t.TempDir()+"/model.gob"))
	stats, err := svc.Train(ctx)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if stats.CategorySamples != 20 {
		t.Errorf("category samples = %d, want 20 reviewed rows only", stats.CategorySamples)
	}
}

func TestTrainingRestoreColdStart(t *testing.T) {
	store := newMemoryStore()
	engine := classify.NewEngine()
	svc := NewTrainingService(store, engine, classify.NewFileModelStore(t.TempDir()+"/model.gob"))

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore with no artifact should succeed: %v", err)
	}
	if engine.Trained() {
		t.Error("engine must stay untrained after cold-start restore")
	}
}
