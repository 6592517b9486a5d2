package noise

import "testing"

func TestExcludeAccount(t *testing.T) {
	rules := Default()

	tests := []struct {
		name        string
		institution string
		account     string
		want        bool
	}{
		{"plain checking", "Capital One", "360 Checking", false},
		{"keyword 401k", "Fidelity", "CAPITAL ONE 401K ASP", true},
		{"keyword brokerage", "Schwab", "Individual Brokerage", true},
		{"keyword crypto", "Coinbase", "Crypto", true},
		{"keyword savings", "Ally", "Online Savings", true},
		{"blocked institution", "Robinhood", "Spending", true},
		{"exact name", "SoFi", "Brokerage Health Savings", true},
		{"credit card", "Chase", "Freedom Card", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.ExcludeAccount(tt.institution, tt.account); got != tt.want {
				t.Errorf("ExcludeAccount(%q, %q) = %v, want %v",
					tt.institution, tt.account, got, tt.want)
			}
		})
	}
}

func TestExcludeAccount_OverrideWinsAfterKeywordCheck(t *testing.T) {
	rules := Default()

	// "Stock Plan" matches a generic exclusion keyword, but the E*Trade
	// institution override must reverse the exclusion.
	if rules.ExcludeAccount("E*Trade", "Stock Plan") {
		t.Error("E*Trade override should re-include an account matching an exclusion keyword")
	}

	// The same account at any other institution stays excluded.
	if !rules.ExcludeAccount("Morgan Stanley", "Stock Plan") {
		t.Error("Stock Plan account without an override should stay excluded")
	}

	// The institution block itself is also reversed by the override.
	if rules.ExcludeAccount("E*Trade", "Complete Savings") == true {
		t.Error("E*Trade accounts should be re-included even when blocked by keyword and institution")
	}
}

func TestExcludeDescription(t *testing.T) {
	rules := Default()

	if !rules.ExcludeDescription("E*Trade", "Dividend payment AAPL") {
		t.Error("E*Trade dividend rows should be dropped")
	}
	if !rules.ExcludeDescription("E*Trade", "REINVESTMENT VTI") {
		t.Error("E*Trade reinvestment rows should be dropped")
	}
	if rules.ExcludeDescription("E*Trade", "PAYROLL ACME CORP") {
		t.Error("E*Trade payroll rows should be kept")
	}
	if rules.ExcludeDescription("Chase", "Dividend payment") {
		t.Error("description filters are institution-scoped")
	}
}

func TestLockedAndDuplicateFeed(t *testing.T) {
	rules := Default()

	if !rules.Locked("Self-Directed Brokerage") {
		t.Error("Self-Directed Brokerage should be locked")
	}
	if rules.Locked("360 Checking") {
		t.Error("checking accounts are liquid")
	}
	// Locked is an exact-name match, not substring.
	if rules.Locked("Self-Directed Brokerage 2") {
		t.Error("Locked should match exact names only")
	}

	if !rules.DuplicateFeed("Fidelity 401k") {
		t.Error("Fidelity 401k feed duplicates another feed")
	}
	if rules.DuplicateFeed("Fidelity") {
		t.Error("DuplicateFeed should match exact names only")
	}
}
