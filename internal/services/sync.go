// Package services wires the source clients, adapters, classifier and store
// into the operations the CLI and worker expose.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conti/internal/ingest"
	"conti/internal/networth"
	"conti/internal/simplefin"
	"conti/internal/storage"
)

// AccountFetcher is the slice of the aggregator client the sync needs.
type AccountFetcher interface {
	Accounts(ctx context.Context, opt simplefin.FetchOptions) (*simplefin.AccountSet, error)
}

// SyncService runs one end-to-end aggregator sync: fetch, normalize, dedup
// into the store, then reconcile balances from the same response.
type SyncService struct {
	fetcher    AccountFetcher
	adapter    *ingest.SimpleFINAdapter
	store      storage.Store
	reconciler *networth.Reconciler
	startDate  time.Time
}

func NewSyncService(fetcher AccountFetcher, adapter *ingest.SimpleFINAdapter, store storage.Store, reconciler *networth.Reconciler, startDate time.Time) *SyncService {
	return &SyncService{
		fetcher:    fetcher,
		adapter:    adapter,
		store:      store,
		reconciler: reconciler,
		startDate:  startDate,
	}
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	RunID    string
	Accounts int
	Fetched  int
	Inserted int
	Skipped  int
	Balances networth.Summary
}

// Sync is idempotent: re-running over the same window inserts nothing new and
// converges the day's balance snapshots.
func (s *SyncService) Sync(ctx context.Context, forceRefresh bool) (*SyncResult, error) {
	return s.SyncRun(ctx, uuid.NewString(), forceRefresh)
}

// SyncRun runs a sync under an externally minted run ID, so a queued request's
// logs correlate from requester to worker.
func (s *SyncService) SyncRun(ctx context.Context, runID string, forceRefresh bool) (*SyncResult, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	log := slog.With("run_id", runID)
	log.InfoContext(ctx, "Starting sync", "force_refresh", forceRefresh, "start_date", s.startDate.Format("2006-01-02"))

	set, err := s.fetcher.Accounts(ctx, simplefin.FetchOptions{
		Start:        s.startDate,
		End:          time.Now(),
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	for _, msg := range set.Errors {
		log.WarnContext(ctx, "Aggregator reported a feed error", "error", msg)
	}

	candidates, stats := s.adapter.NormalizeAccounts(set.Accounts)
	inserted, err := s.store.UpsertTransactions(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("upsert transactions: %w", err)
	}

	summary, err := s.reconciler.Reconcile(ctx, networth.FromAccountSet(ctx, set), time.Now())
	if err != nil {
		return nil, fmt.Errorf("reconcile balances: %w", err)
	}

	result := &SyncResult{
		RunID:    runID,
		Accounts: len(set.Accounts),
		Fetched:  stats.Accepted + stats.Skipped,
		Inserted: inserted,
		Skipped:  stats.Skipped,
		Balances: summary,
	}
	log.InfoContext(ctx, "Sync finished",
		"accounts", result.Accounts,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"skipped", result.Skipped)
	return result, nil
}
