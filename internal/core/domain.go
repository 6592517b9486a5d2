package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense       TxType = "Expense"
	Income        TxType = "Income"
	Reimbursement TxType = "Reimbursement"
	Investment    TxType = "Investment"
	Transfer      TxType = "Transfer"
)

const (
	StatusPending  Status = "PENDING"
	StatusReviewed Status = "REVIEWED"
)

// Uncategorized is the category placeholder assigned to transactions that have
// not been labeled yet. The classifier never trains on it.
const Uncategorized = "Uncategorized"

// CategoryTransfer is the category paired with Transfer-typed transactions.
const CategoryTransfer = "Transfer"

// DateLayout is the calendar-day format used everywhere a date is stored or keyed.
const DateLayout = "2006-01-02"

type (
	TxType string

	Status string

	// Transaction is the canonical record shape every source is mapped into.
	// Amount is always a non-negative magnitude; direction is encoded by Type
	// alone, never by the sign of Amount.
	Transaction struct {
		ID          string
		Date        time.Time
		Amount      float64
		Description string
		Category    string
		Type        TxType
		Method      string
		Status      Status
		UserNotes   string
		Tags        string
		Account     string
		PostedDate  time.Time
		Details     string

		// Raw is a structured snapshot of the original source record, kept for
		// forensic replay without re-parsing source-specific literal syntax.
		Raw map[string]string
	}

	// BalanceSnapshot is a point-in-time account balance, unique per
	// (date, institution, account).
	BalanceSnapshot struct {
		Date        time.Time
		Institution string
		Account     string
		Balance     float64
	}
)

var (
	ErrNegativeAmount   = errors.New("amount must be non-negative")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyDescription = errors.New("empty description")
	ErrZeroDate         = errors.New("date cannot be zero")
)

func (t TxType) IsValid() bool {
	switch t {
	case Expense, Income, Reimbursement, Investment, Transfer:
		return true
	default:
		return false
	}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReviewed:
		return true
	default:
		return false
	}
}

// SignedAmount reconstructs the bank-side signed amount: negative for expenses,
// positive for everything else. The sign is the strongest type discriminator and
// is otherwise lost once the amount is stored unsigned.
func (t Transaction) SignedAmount() float64 {
	if t.Type == Expense {
		return -t.Amount
	}
	return t.Amount
}

func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.Amount < 0 {
		return ErrNegativeAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
