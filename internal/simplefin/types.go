package simplefin

// Wire types for the SimpleFIN /accounts document. Amounts and balances are
// decimal strings on the wire and stay strings here; parsing happens at the
// adapter boundary where a bad value can be skipped per row.

type AccountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []Account `json:"accounts"`
}

type Org struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
	URL    string `json:"sfin-url,omitempty"`
}

type Account struct {
	Org              Org           `json:"org"`
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Currency         string        `json:"currency"`
	Balance          string        `json:"balance"`
	AvailableBalance string        `json:"available-balance,omitempty"`
	BalanceDate      int64         `json:"balance-date"`
	Transactions     []Transaction `json:"transactions"`
}

type Transaction struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Memo        string `json:"memo,omitempty"`
	Payee       string `json:"payee,omitempty"`
	Pending     bool   `json:"pending,omitempty"`
}

// InstitutionName returns the org name, with a placeholder for feeds that
// omit it.
func (a Account) InstitutionName() string {
	if a.Org.Name == "" {
		return "Unknown Bank"
	}
	return a.Org.Name
}

// AccountName returns the account name, with a placeholder for feeds that
// omit it.
func (a Account) AccountName() string {
	if a.Name == "" {
		return "Unknown Acct"
	}
	return a.Name
}
