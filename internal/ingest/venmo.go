package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
)

// ErrHeaderNotFound means the export did not contain the expected column
// header within the leading banner lines; the whole file is rejected.
var ErrHeaderNotFound = errors.New("venmo: header row not found")

// venmoColumns are the columns a statement export must carry. The statement's
// own line ID is the dedup identity, so it is required.
var venmoColumns = []string{"ID", "Datetime", "Type", "Status", "Note", "From", "To", "Amount (total)"}

// maxBannerLines bounds how far into the file the header may sit. The real
// exports put it on the third line, after a banner.
const maxBannerLines = 10

var venmoDatetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// VenmoAdapter parses statement CSV exports. Rows become candidates with the
// statement line ID as identity; incoming funds default to Reimbursement
// unless the row is an internal transfer.
type VenmoAdapter struct{}

func NewVenmoAdapter() *VenmoAdapter {
	return &VenmoAdapter{}
}

// ParseFile normalizes a whole export. A malformed file (missing header or
// columns) aborts with an error; individual bad rows are skipped and counted.
func (a *VenmoAdapter) ParseFile(r io.Reader) ([]core.Transaction, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	cols, err := findHeader(reader)
	if err != nil {
		return nil, Stats{}, err
	}

	var out []core.Transaction
	var stats Stats
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("venmo: read row: %w", err)
		}

		candidate, ok := a.normalizeRow(cols, rec)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Accepted++
		out = append(out, *candidate)
	}
	return out, stats, nil
}

// findHeader scans past the banner for the row carrying the required columns
// and returns a name→index mapping.
func findHeader(reader *csv.Reader) (map[string]int, error) {
	for i := 0; i < maxBannerLines; i++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("venmo: read header: %w", err)
		}

		cols := make(map[string]int, len(rec))
		for idx, name := range rec {
			cols[strings.TrimSpace(name)] = idx
		}

		complete := true
		for _, required := range venmoColumns {
			if _, ok := cols[required]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return cols, nil
		}
	}
	return nil, ErrHeaderNotFound
}

func (a *VenmoAdapter) normalizeRow(cols map[string]int, rec []string) (*core.Transaction, bool) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	// Footer and summary rows carry no line ID.
	id := field("ID")
	if id == "" {
		return nil, false
	}

	date, err := parseVenmoDatetime(field("Datetime"))
	if err != nil {
		slog.Warn("Skipping venmo row with unparsable date", "id", id, "datetime", field("Datetime"))
		return nil, false
	}

	amount, negative, err := parseAmount(field("Amount (total)"))
	if err != nil {
		slog.Warn("Skipping venmo row with unparsable amount", "id", id, "amount", field("Amount (total)"))
		return nil, false
	}

	// Direction: internal transfers are their own type and category; other
	// incoming funds default to Reimbursement (peer payments are usually
	// splitting a bill, not income); outgoing is Expense.
	txType := core.Expense
	category := core.Uncategorized
	switch {
	case field("Type") == "Standard Transfer":
		txType = core.Transfer
		category = core.CategoryTransfer
	case !negative:
		txType = core.Reimbursement
	}

	day := core.Day(date)
	candidate := core.Transaction{
		ID:          id,
		Date:        day,
		Amount:      amount,
		Description: fmt.Sprintf("Venmo - %s / %s", field("From"), field("To")),
		Category:    category,
		Type:        txType,
		Method:      "Venmo",
		Status:      core.StatusPending,
		UserNotes:   field("Note"),
		Tags:        "venmo_import",
		Account:     "Venmo",
		PostedDate:  day,
		Details:     fmt.Sprintf("Statement status: %s", field("Status")),
		Raw: map[string]string{
			"id":       id,
			"datetime": field("Datetime"),
			"type":     field("Type"),
			"status":   field("Status"),
			"note":     field("Note"),
			"from":     field("From"),
			"to":       field("To"),
			"amount":   field("Amount (total)"),
		},
	}
	return &candidate, true
}

func parseVenmoDatetime(raw string) (time.Time, error) {
	for _, layout := range venmoDatetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}
