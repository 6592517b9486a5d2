package ingest

import (
	"log/slog"
	"strconv"
	"time"

	"conti/internal/core"
	"conti/internal/noise"
	"conti/internal/simplefin"
)

// SimpleFINAdapter normalizes aggregator account feeds into canonical
// candidates. Aggregator convention: negative amount means money left the
// user, positive means it arrived.
type SimpleFINAdapter struct {
	rules *noise.Ruleset
}

func NewSimpleFINAdapter(rules *noise.Ruleset) *SimpleFINAdapter {
	if rules == nil {
		rules = noise.Default()
	}
	return &SimpleFINAdapter{rules: rules}
}

// NormalizeAccounts flattens every transaction of every account into
// candidates, applying the shared noise rules per account and per description.
func (a *SimpleFINAdapter) NormalizeAccounts(accounts []simplefin.Account) ([]core.Transaction, Stats) {
	var out []core.Transaction
	var stats Stats

	for _, acct := range accounts {
		for _, tx := range acct.Transactions {
			candidate, ok := a.Normalize(acct, tx)
			if !ok {
				stats.Skipped++
				continue
			}
			stats.Accepted++
			out = append(out, *candidate)
		}
	}
	return out, stats
}

// Normalize maps one raw aggregator transaction to zero-or-one candidates.
// A false return means the record was filtered or incomplete, not that an
// error occurred.
func (a *SimpleFINAdapter) Normalize(acct simplefin.Account, tx simplefin.Transaction) (*core.Transaction, bool) {
	institution := acct.InstitutionName()
	account := acct.AccountName()

	if a.rules.ExcludeAccount(institution, account) {
		return nil, false
	}

	description := tx.Description
	if description == "" {
		description = tx.Memo
	}
	if description == "" {
		description = "No Desc"
	}
	if a.rules.ExcludeDescription(institution, description) {
		return nil, false
	}

	raw, err := strconv.ParseFloat(tx.Amount, 64)
	if err != nil {
		slog.Warn("Skipping transaction with unparsable amount",
			"account", account, "amount", tx.Amount)
		return nil, false
	}
	if tx.Posted <= 0 {
		slog.Warn("Skipping transaction without posted date",
			"account", account, "id", tx.ID)
		return nil, false
	}

	amount := raw
	txType := core.Income
	if raw < 0 {
		amount = -raw
		txType = core.Expense
	}

	day := core.Day(time.Unix(tx.Posted, 0))

	candidate := core.Transaction{
		ID:          tx.ID,
		Date:        day,
		Amount:      amount,
		Description: description,
		Category:    core.Uncategorized,
		Type:        txType,
		Method:      institution + " - " + account,
		Status:      core.StatusPending,
		Account:     account,
		PostedDate:  day,
		Details:     tx.Memo,
		Raw: map[string]string{
			"id":          tx.ID,
			"posted":      strconv.FormatInt(tx.Posted, 10),
			"amount":      tx.Amount,
			"description": tx.Description,
			"memo":        tx.Memo,
			"org":         institution,
			"account":     account,
		},
	}
	core.EnsureID(&candidate)
	return &candidate, true
}
