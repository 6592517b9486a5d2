// Package noise holds the shared exclusion vocabulary that decides which
// accounts and transactions are irrelevant to the actionable ledger despite
// being present in the source feed. One ruleset is consulted by every source
// adapter and by the balance reconciler, so the lists cannot drift apart.
package noise

import "strings"

// Ruleset describes which accounts are excluded from the transaction inbox and
// which are treated as locked (retirement/restricted) by the reconciler.
type Ruleset struct {
	// Keywords excluded by substring match against the account name.
	Keywords []string

	// ExactAccounts excluded by substring match against specific account names.
	ExactAccounts []string

	// BlockedInstitutions excluded by substring match against the institution name.
	BlockedInstitutions []string

	// InstitutionOverrides re-include institutions whose accounts would
	// otherwise be excluded. An institution generally excluded may still carry
	// ordinary cash flow (payroll landing in a brokerage-linked account).
	InstitutionOverrides []string

	// LockedAccounts are exact account names the reconciler classifies as
	// locked rather than liquid.
	LockedAccounts []string

	// DuplicateInstitutions are feeds skipped entirely because another feed
	// already reports the same accounts.
	DuplicateInstitutions []string

	// DescriptionFilters drop transactions whose uppercased description
	// contains any of the listed keywords, scoped per institution.
	DescriptionFilters map[string][]string
}

// Default returns the ruleset for the user's current account landscape.
func Default() *Ruleset {
	return &Ruleset{
		Keywords: []string{
			"401K", "401k",
			"Brokerage", "brokerage",
			"IRA", "ira",
			"Investment", "investment",
			"Stock Plan", "stock plan",
			"Crypto", "crypto",
			"Savings", "savings",
		},
		ExactAccounts: []string{
			"CAPITAL ONE 401K ASP",
			"Self-Directed Brokerage",
			"Robinhood Roth IRA",
			"Robinhood managed Roth IRA",
			"Robinhood managed individual",
			"Robinhood individual",
			"Crypto",
			"Brokerage Health Savings",
			"Brokerage General Investing Person",
			"Stock Plan",
			"Individual Brokerage",
		},
		BlockedInstitutions: []string{
			"Robinhood",
			"E*Trade",
		},
		// Salary and RSU deposits land at E*Trade, so its accounts stay in the
		// inbox even when they match an exclusion keyword.
		InstitutionOverrides: []string{
			"E*Trade",
		},
		LockedAccounts: []string{
			"CAPITAL ONE 401K ASP",
			"Self-Directed Brokerage",
			"Robinhood Roth IRA",
			"Robinhood managed Roth IRA",
		},
		DuplicateInstitutions: []string{
			"Fidelity 401k",
		},
		DescriptionFilters: map[string][]string{
			"E*Trade": {"DIVIDEND", "REINVESTMENT"},
		},
	}
}

// ExcludeAccount reports whether transactions from the given account should be
// dropped from the inbox. Keyword and exact-name exclusions are evaluated
// first, then institution blocks; institution overrides run last and reverse
// any earlier exclusion, so overrides always win.
func (r *Ruleset) ExcludeAccount(institution, account string) bool {
	exclude := false

	for _, k := range r.Keywords {
		if strings.Contains(account, k) {
			exclude = true
			break
		}
	}
	if !exclude {
		for _, name := range r.ExactAccounts {
			if strings.Contains(account, name) {
				exclude = true
				break
			}
		}
	}
	for _, inst := range r.BlockedInstitutions {
		if strings.Contains(institution, inst) {
			exclude = true
			break
		}
	}

	if exclude {
		for _, inst := range r.InstitutionOverrides {
			if strings.Contains(institution, inst) {
				return false
			}
		}
	}
	return exclude
}

// ExcludeDescription reports whether a transaction should be dropped based on
// institution-scoped description keywords (e.g. dividend churn inside an
// otherwise-included brokerage feed).
func (r *Ruleset) ExcludeDescription(institution, description string) bool {
	upper := strings.ToUpper(description)
	for inst, keywords := range r.DescriptionFilters {
		if !strings.Contains(institution, inst) {
			continue
		}
		for _, k := range keywords {
			if strings.Contains(upper, k) {
				return true
			}
		}
	}
	return false
}

// Locked reports whether an account's balance is retirement/restricted money,
// excluded from the liquid net-worth total. Exact-name match.
func (r *Ruleset) Locked(account string) bool {
	for _, name := range r.LockedAccounts {
		if account == name {
			return true
		}
	}
	return false
}

// DuplicateFeed reports whether an institution's feed duplicates another feed
// and should be skipped by the reconciler.
func (r *Ruleset) DuplicateFeed(institution string) bool {
	for _, name := range r.DuplicateInstitutions {
		if institution == name {
			return true
		}
	}
	return false
}
