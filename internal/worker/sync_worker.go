// Package worker runs aggregator syncs in the background, driven by broker
// messages and a periodic schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conti/internal/amqp"
	"conti/internal/services"
)

// SyncWorker executes sync requests. Each request is one full fetch-normalize-
// upsert-reconcile pass; idempotent upserts make duplicate deliveries harmless.
type SyncWorker struct {
	syncer *services.SyncService
}

func NewSyncWorker(syncer *services.SyncService) *SyncWorker {
	return &SyncWorker{syncer: syncer}
}

// HandleSyncRequest processes a single sync request message from AMQP
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	slog.InfoContext(ctx, "Processing sync request",
		"run_id", msg.RunID,
		"force_refresh", msg.ForceRefresh,
		"requested_at", msg.RequestedAt)

	result, err := w.syncer.SyncRun(ctx, msg.RunID, msg.ForceRefresh)
	if err != nil {
		return fmt.Errorf("run sync: %w", err)
	}

	slog.InfoContext(ctx, "Sync request completed",
		"run_id", result.RunID,
		"inserted", result.Inserted,
		"skipped", result.Skipped)
	return nil
}

// StartupSync runs one sync at worker startup so a restart never waits a full
// interval before catching up.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup sync")
	if _, err := w.syncer.Sync(ctx, false); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// RunPeriodic syncs on a fixed interval until the context is cancelled. A
// failed tick is logged and retried on the next one rather than stopping the
// loop.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Starting periodic sync", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic sync", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.syncer.Sync(ctx, false); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
