// Package taxonomy holds the category vocabulary and fuzzy matching against it.
package taxonomy

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"conti/internal/core"
)

// Categories is the closed vocabulary every stored category must come from.
var Categories = []string{
	"Salary",
	"Interest Income",
	"Gift Income",
	"Rewards",
	"Restaurants",
	"Fast Food",
	"Groceries",
	"Health",
	"Entertainment",
	"Travel",
	"Gift Expense",
	"Gas",
	"Commute",
	"Subscriptions",
	"Personal Care",
	"Shopping",
	"Supplies",
	"Phone",
	"Misc Expense",
	"Pass-Through (Reimbursed)",
	"Misc Income",
	"Transfer",
	"Brokerage",
	"Roth IRA",
	"Donation",
	core.Uncategorized,
}

// maxEditDistance bounds how far a fuzzy match may drift. Anything further is
// treated as a different word, not a typo.
const maxEditDistance = 2

// IsValid reports whether name is exactly one of the known categories.
func IsValid(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Match resolves free-form input to a canonical category. Exact matches win,
// then case-insensitive matches, then the closest category within the edit
// distance bound. Returns ("", false) when nothing is close enough.
func Match(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if IsValid(input) {
		return input, true
	}

	lowered := strings.ToLower(input)
	for _, c := range Categories {
		if strings.ToLower(c) == lowered {
			return c, true
		}
	}

	best, bestDist := "", maxEditDistance+1
	for _, c := range Categories {
		d := levenshtein.ComputeDistance(lowered, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > maxEditDistance {
		return "", false
	}
	return best, true
}
