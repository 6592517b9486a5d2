// Package ingest maps raw source records into canonical transaction
// candidates. Adapters are pure transforms: they filter noise, normalize sign
// and direction, and gate on completeness; persistence happens downstream.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// Stats counts accepted vs. skipped rows for one adapter run. Skipped rows are
// not errors: footers, noise-filtered accounts, and unparsable single rows all
// land here while the batch keeps going.
type Stats struct {
	Accepted int
	Skipped  int
}

func (s Stats) String() string {
	return fmt.Sprintf("accepted=%d skipped=%d", s.Accepted, s.Skipped)
}

// parseAmount converts an amount string like "- $1,234.56" or "12.5" into a
// non-negative magnitude and a negative flag. The sign may be a leading token
// separated from the digits.
func parseAmount(raw string) (amount float64, negative bool, err error) {
	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false, fmt.Errorf("empty amount")
	}
	negative = strings.Contains(s, "-")
	s = strings.NewReplacer("+", "", "-", "").Replace(s)
	amount, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if amount < 0 {
		amount = -amount
	}
	return amount, negative, nil
}
