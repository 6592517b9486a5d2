package services

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/classify"
	"conti/internal/core"
	"conti/internal/storage"
	"conti/internal/taxonomy"
)

// ReviewService drives the inbox workflow: propose labels for pending rows,
// apply the reviewer's corrections, and flip rows to REVIEWED.
type ReviewService struct {
	store  storage.Store
	engine *classify.Engine
}

func NewReviewService(store storage.Store, engine *classify.Engine) *ReviewService {
	return &ReviewService{store: store, engine: engine}
}

// Proposal pairs a pending transaction with the classifier's suggestion.
type Proposal struct {
	Transaction core.Transaction
	Suggestion  classify.Suggestion
}

// Pending lists the inbox.
func (s *ReviewService) Pending(ctx context.Context) ([]core.Transaction, error) {
	return s.store.GetByStatus(ctx, core.StatusPending)
}

// Suggest classifies every pending row. Works untrained too: suggestions then
// carry zero confidence and sign-derived types.
func (s *ReviewService) Suggest(ctx context.Context) ([]Proposal, error) {
	pending, err := s.store.GetByStatus(ctx, core.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("load pending transactions: %w", err)
	}

	proposals := make([]Proposal, len(pending))
	for i, tx := range pending {
		proposals[i] = Proposal{Transaction: tx, Suggestion: s.engine.Predict(tx)}
	}
	slog.InfoContext(ctx, "Classified pending inbox", "pending", len(pending), "trained", s.engine.Trained())
	return proposals, nil
}

// Approve applies the reviewer's corrections to one row and marks it REVIEWED.
// A category is resolved against the vocabulary first; input that matches
// nothing is rejected before anything is written.
func (s *ReviewService) Approve(ctx context.Context, id string, update storage.FieldUpdate) error {
	if update.Category != nil {
		matched, ok := taxonomy.Match(*update.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", *update.Category)
		}
		update.Category = &matched
	}

	if !update.IsZero() {
		if err := s.store.UpdateFields(ctx, id, update); err != nil {
			return fmt.Errorf("apply corrections: %w", err)
		}
	}
	if err := s.store.MarkReviewed(ctx, []string{id}); err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	slog.InfoContext(ctx, "Approved transaction", "id", id)
	return nil
}

// ApproveAll marks a batch reviewed without corrections.
func (s *ReviewService) ApproveAll(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.MarkReviewed(ctx, ids); err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	slog.InfoContext(ctx, "Approved transactions", "count", len(ids))
	return nil
}
