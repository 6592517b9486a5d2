package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"conti/internal/ingest"
	"conti/internal/storage"
)

// ImportService loads statement CSV exports into the store through the same
// dedup path as synced transactions.
type ImportService struct {
	adapter *ingest.VenmoAdapter
	store   storage.Store
}

func NewImportService(store storage.Store) *ImportService {
	return &ImportService{adapter: ingest.NewVenmoAdapter(), store: store}
}

type ImportResult struct {
	Parsed   int
	Skipped  int
	Inserted int
}

// ImportVenmoFile parses one export and upserts its rows. Re-importing the
// same file is a no-op because the statement line IDs are the identities.
func (s *ImportService) ImportVenmoFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	candidates, stats, err := s.adapter.ParseFile(f)
	if err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	inserted, err := s.store.UpsertTransactions(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("upsert transactions: %w", err)
	}

	slog.InfoContext(ctx, "Imported statement export",
		"path", path, "parsed", stats.Accepted, "skipped", stats.Skipped, "inserted", inserted)
	return &ImportResult{Parsed: stats.Accepted, Skipped: stats.Skipped, Inserted: inserted}, nil
}
