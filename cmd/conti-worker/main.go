package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/ingest"
	"conti/internal/networth"
	"conti/internal/services"
	"conti/internal/simplefin"
	"conti/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting conti-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.SimpleFINAccessURL == "" {
		logger.Error("SIMPLEFIN_ACCESS_URL is not set; the worker has nothing to sync")
		os.Exit(1)
	}

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	fetcher := simplefin.New(cfg.SimpleFINAccessURL,
		simplefin.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		simplefin.WithCacheTTL(cfg.BalanceCacheTTL),
	)
	syncer := services.NewSyncService(
		fetcher,
		ingest.NewSimpleFINAdapter(nil),
		store,
		networth.NewReconciler(store, nil),
		cfg.SyncStart(),
	)
	syncWorker := worker.NewSyncWorker(syncer)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up immediately; a failed startup sync is retried by the periodic
	// loop rather than aborting the worker.
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return amqpClient.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
			return syncWorker.HandleSyncRequest(ctx, msg)
		})
	})
	group.Go(func() error {
		return syncWorker.RunPeriodic(ctx, cfg.SyncInterval)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
