package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"conti/internal/amqp"
	"conti/internal/classify"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/ingest"
	"conti/internal/networth"
	"conti/internal/services"
	"conti/internal/simplefin"
	"conti/internal/storage"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: conti <command> [flags]

Commands:
  claim <setup-token>   exchange a one-time setup token for an access URL
  sync [-force|-queue]  fetch, dedup and store transactions and balances
  import <file.csv>     import a Venmo statement export
  pending               list the review inbox
  suggest               classify the review inbox
  approve <id> [flags]  apply corrections and mark one transaction reviewed
  train                 retrain the classifier from reviewed transactions
  balances              show the latest balance snapshots
  networth              show net worth over time
`)
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]
	ctx := context.Background()

	cfg := cli.LoadAndValidateConfig(logger)

	// claim needs no store; it runs before any database exists.
	if command == "claim" {
		runClaim(ctx, cfg, args)
		return
	}

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	engine := classify.NewEngine()
	models := classify.NewFileModelStore(cfg.ModelPath)
	training := services.NewTrainingService(store, engine, models)
	review := services.NewReviewService(store, engine)

	var err error
	switch command {
	case "sync":
		err = runSync(ctx, cfg, store, args)
	case "import":
		err = runImport(ctx, store, args)
	case "pending":
		err = runPending(ctx, review)
	case "suggest":
		err = runSuggest(ctx, training, review)
	case "approve":
		err = runApprove(ctx, review, args)
	case "train":
		err = runTrain(ctx, training)
	case "balances":
		err = runBalances(ctx, store)
	case "networth":
		err = runNetWorth(ctx, store)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func runClaim(ctx context.Context, cfg *config.Config, args []string) {
	token := cfg.SimpleFINSetupToken
	if len(args) > 0 {
		token = args[0]
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "claim: provide a setup token as an argument or via SIMPLEFIN_SETUP_TOKEN")
		os.Exit(2)
	}

	accessURL, err := simplefin.ClaimAccessURL(ctx, nil, token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claim: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(accessURL)
}

func runSync(ctx context.Context, cfg *config.Config, store storage.Store, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	force := fs.Bool("force", false, "bypass the cached provider response")
	queue := fs.Bool("queue", false, "publish a sync request to the worker instead of running locally")
	fs.Parse(args)

	if *queue {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer client.Close()
		return client.PublishSyncRequest(ctx, *force)
	}

	if cfg.SimpleFINAccessURL == "" {
		return fmt.Errorf("SIMPLEFIN_ACCESS_URL is not set; run 'conti claim' first")
	}

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

	result, err := syncer.Sync(ctx, *force)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: %d accounts, %d fetched, %d new, %d skipped\n",
		result.RunID, result.Accounts, result.Fetched, result.Inserted, result.Skipped)
	fmt.Printf("Net worth: %.2f liquid / %.2f locked / %.2f total\n",
		result.Balances.Liquid, result.Balances.Locked, result.Balances.Total)
	return nil
}

func runImport(ctx context.Context, store storage.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("import: missing export file path")
	}
	result, err := services.NewImportService(store).ImportVenmoFile(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %d rows (%d skipped), %d new\n", result.Parsed, result.Skipped, result.Inserted)
	return nil
}

func runPending(ctx context.Context, review *services.ReviewService) error {
	pending, err := review.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("Inbox is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tTYPE\tDESCRIPTION")
	for _, t := range pending {
		fmt.Fprintf(w, "%.12s\t%s\t%.2f\t%s\t%s\n",
			t.ID, t.Date.Format(core.DateLayout), t.SignedAmount(), t.Type, t.Description)
	}
	return w.Flush()
}

func runSuggest(ctx context.Context, training *services.TrainingService, review *services.ReviewService) error {
	if err := training.Restore(ctx); err != nil {
		return err
	}
	proposals, err := review.Suggest(ctx)
	if err != nil {
		return err
	}
	if len(proposals) == 0 {
		fmt.Println("Inbox is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESCRIPTION\tCATEGORY\tTYPE\tCONFIDENCE")
	for _, p := range proposals {
		fmt.Fprintf(w, "%.12s\t%s\t%s\t%s\t%.2f\n",
			p.Transaction.ID, p.Transaction.Description,
			p.Suggestion.Category, p.Suggestion.Type, p.Suggestion.Confidence)
	}
	return w.Flush()
}

func runApprove(ctx context.Context, review *services.ReviewService, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	category := fs.String("category", "", "category to assign")
	txType := fs.String("type", "", "transaction type to assign")
	notes := fs.String("notes", "", "user notes to attach")
	if len(args) < 1 {
		return fmt.Errorf("approve: missing transaction id")
	}
	id := args[0]
	fs.Parse(args[1:])

	var update storage.FieldUpdate
	if *category != "" {
		update.Category = category
	}
	if *txType != "" {
		t := core.TxType(*txType)
		if !t.IsValid() {
			return fmt.Errorf("approve: invalid type %q", *txType)
		}
		update.Type = &t
	}
	if *notes != "" {
		update.UserNotes = notes
	}

	if err := review.Approve(ctx, id, update); err != nil {
		return err
	}
	fmt.Printf("Approved %s\n", id)
	return nil
}

func runTrain(ctx context.Context, training *services.TrainingService) error {
	stats, err := training.Train(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Category axis: %d samples, trained=%t\n", stats.CategorySamples, stats.CategoryTrained)
	fmt.Printf("Type axis: %d samples, trained=%t\n", stats.TypeSamples, stats.TypeTrained)
	return nil
}

func runBalances(ctx context.Context, store storage.Store) error {
	history, err := store.GetBalanceHistory(ctx)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("No balance snapshots yet; run 'conti sync' first")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tINSTITUTION\tACCOUNT\tBALANCE")
	for _, s := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n",
			s.Date.Format(core.DateLayout), s.Institution, s.Account, s.Balance)
	}
	return w.Flush()
}

func runNetWorth(ctx context.Context, store storage.Store) error {
	points, err := store.NetWorthHistory(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("No balance snapshots yet; run 'conti sync' first")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTOTAL")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%.2f\n", p.Date.Format(core.DateLayout), p.Total)
	}
	return w.Flush()
}
