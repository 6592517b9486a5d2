package services

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/classify"
	"conti/internal/core"
	"conti/internal/storage"
)

// TrainingService retrains the classifier from the reviewed corpus and keeps
// the model artifact on disk between runs.
type TrainingService struct {
	store  storage.Store
	engine *classify.Engine
	models classify.ModelStore
}

func NewTrainingService(store storage.Store, engine *classify.Engine, models classify.ModelStore) *TrainingService {
	return &TrainingService{store: store, engine: engine, models: models}
}

// Train fits both axes on everything the reviewer has confirmed, then persists
// the artifact. Pending rows never reach the corpus.
func (s *TrainingService) Train(ctx context.Context) (classify.TrainStats, error) {
	corpus, err := s.store.GetByStatus(ctx, core.StatusReviewed)
	if err != nil {
		return classify.TrainStats{}, fmt.Errorf("load reviewed corpus: %w", err)
	}

	stats, err := s.engine.Train(ctx, corpus)
	if err != nil {
		return stats, fmt.Errorf("train classifier: %w", err)
	}

	if model := s.engine.Model(); model != nil {
		if err := s.models.Save(model); err != nil {
			return stats, fmt.Errorf("persist model: %w", err)
		}
	}
	return stats, nil
}

// Restore loads the persisted model if one exists. A missing artifact leaves
// the engine untrained, which is the normal cold-start state.
func (s *TrainingService) Restore(ctx context.Context) error {
	model, err := s.models.Load()
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if model == nil {
		slog.InfoContext(ctx, "No persisted model, classifier starts untrained")
		return nil
	}
	s.engine.LoadModel(model)
	slog.InfoContext(ctx, "Restored classifier model",
		"trained_at", model.TrainedAt, "samples", model.SampleCount)
	return nil
}
