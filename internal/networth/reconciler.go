// Package networth turns raw account balances into persisted daily snapshots
// and a liquid/locked split.
package networth

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"conti/internal/core"
	"conti/internal/noise"
	"conti/internal/simplefin"
)

// AccountBalance is one account's reported balance, already parsed.
type AccountBalance struct {
	Institution string
	Account     string
	Balance     float64
}

// Row is one reconciled account with its locked classification.
type Row struct {
	AccountBalance
	Locked bool
}

// Summary is the outcome of one reconciliation pass. Liquid excludes locked
// (retirement/restricted) money; Total includes everything that was not a
// duplicate feed.
type Summary struct {
	AsOf   time.Time
	Liquid float64
	Locked float64
	Total  float64
	Rows   []Row
}

// SnapshotWriter is the slice of the store the reconciler needs.
type SnapshotWriter interface {
	SaveBalanceSnapshot(ctx context.Context, snapshots []core.BalanceSnapshot) error
}

type Reconciler struct {
	store SnapshotWriter
	rules *noise.Ruleset
}

func NewReconciler(store SnapshotWriter, rules *noise.Ruleset) *Reconciler {
	if rules == nil {
		rules = noise.Default()
	}
	return &Reconciler{store: store, rules: rules}
}

// Reconcile classifies each balance as liquid or locked, skips duplicate
// feeds, and upserts one snapshot per (day, institution, account). Re-running
// within the same day converges on the latest observed balances.
func (r *Reconciler) Reconcile(ctx context.Context, balances []AccountBalance, asOf time.Time) (Summary, error) {
	day := core.Day(asOf)
	summary := Summary{AsOf: day}
	snapshots := make([]core.BalanceSnapshot, 0, len(balances))

	for _, b := range balances {
		if r.rules.DuplicateFeed(b.Institution) {
			slog.DebugContext(ctx, "Skipping duplicate feed", "institution", b.Institution, "account", b.Account)
			continue
		}

		row := Row{AccountBalance: b, Locked: r.rules.Locked(b.Account)}
		if row.Locked {
			summary.Locked += b.Balance
		} else {
			summary.Liquid += b.Balance
		}
		summary.Total += b.Balance
		summary.Rows = append(summary.Rows, row)

		snapshots = append(snapshots, core.BalanceSnapshot{
			Date:        day,
			Institution: b.Institution,
			Account:     b.Account,
			Balance:     b.Balance,
		})
	}

	if len(snapshots) > 0 {
		if err := r.store.SaveBalanceSnapshot(ctx, snapshots); err != nil {
			return Summary{}, fmt.Errorf("save balance snapshots: %w", err)
		}
	}

	slog.InfoContext(ctx, "Reconciled balances",
		"accounts", len(summary.Rows),
		"liquid", summary.Liquid,
		"locked", summary.Locked,
		"total", summary.Total)
	return summary, nil
}

// FromAccountSet extracts parsed balances from a provider response. Accounts
// whose balance field does not parse are skipped with a warning rather than
// failing the whole pass.
func FromAccountSet(ctx context.Context, set *simplefin.AccountSet) []AccountBalance {
	if set == nil {
		return nil
	}
	balances := make([]AccountBalance, 0, len(set.Accounts))
	for _, acct := range set.Accounts {
		value, err := strconv.ParseFloat(acct.Balance, 64)
		if err != nil {
			slog.WarnContext(ctx, "Unparsable balance, skipping account",
				"institution", acct.InstitutionName(), "account", acct.AccountName(), "balance", acct.Balance)
			continue
		}
		balances = append(balances, AccountBalance{
			Institution: acct.InstitutionName(),
			Account:     acct.AccountName(),
			Balance:     value,
		})
	}
	return balances
}
