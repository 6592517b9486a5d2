package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"
)

// dialect captures the two differences between the backing stores: the
// driver's placeholder style and the migration set. All SQL below is written
// with '?' placeholders and rebound per dialect.
type dialect struct {
	name   string
	rebind func(query string) string
}

var (
	sqliteDialect = dialect{
		name:   "sqlite",
		rebind: func(q string) string { return q },
	}

	postgresDialect = dialect{
		name: "postgres",
		rebind: func(q string) string {
			var b strings.Builder
			n := 0
			for _, r := range q {
				if r == '?' {
					n++
					b.WriteString("$" + strconv.Itoa(n))
					continue
				}
				b.WriteRune(r)
			}
			return b.String()
		},
	}
)

// SQLStore implements Store for both dialects.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

const insertTransactionSQL = `
	INSERT INTO transactions
		(id, date, amount, description, category, type, method, status,
		 user_notes, tags, account, posted_date, details, raw)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`

// UpsertTransactions runs the batch inside one transaction with a savepoint
// per row, so one bad row rolls back alone while the rest commit. A conflict
// on the identity is the expected outcome of an idempotent re-sync and counts
// as a no-op, not an error.
func (s *SQLStore) UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert batch: %w", err)
	}
	defer dbtx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	query := s.d.rebind(insertTransactionSQL)
	inserted := 0

	for i := range txs {
		tx := txs[i]
		core.EnsureID(&tx)
		if err := tx.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid candidate", "id", tx.ID, "error", err)
			continue
		}

		rawJSON, err := json.Marshal(tx.Raw)
		if err != nil {
			slog.WarnContext(ctx, "Skipping candidate with unencodable raw payload",
				"id", tx.ID, "error", err)
			continue
		}

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := dbtx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
			return inserted, fmt.Errorf("savepoint: %w", err)
		}

		res, err := dbtx.ExecContext(ctx, query,
			tx.ID,
			tx.Date.Format(core.DateLayout),
			tx.Amount,
			tx.Description,
			tx.Category,
			string(tx.Type),
			tx.Method,
			string(tx.Status),
			tx.UserNotes,
			tx.Tags,
			tx.Account,
			tx.PostedDate.Format(core.DateLayout),
			tx.Details,
			string(rawJSON),
		)
		if err != nil {
			slog.WarnContext(ctx, "Row insert failed, continuing batch", "id", tx.ID, "error", err)
			if _, err := dbtx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); err != nil {
				return inserted, fmt.Errorf("rollback to savepoint: %w", err)
			}
			continue
		}
		if _, err := dbtx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return inserted, fmt.Errorf("release savepoint: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert batch: %w", err)
	}
	return inserted, nil
}

const selectTransactionSQL = `
	SELECT id, date, amount, description, category, type, method, status,
	       user_notes, tags, account, posted_date, details, raw
	FROM transactions`

func (s *SQLStore) GetByStatus(ctx context.Context, status core.Status) ([]core.Transaction, error) {
	query := s.d.rebind(selectTransactionSQL + " WHERE status = ? ORDER BY date DESC")
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("query transactions by status: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *SQLStore) GetAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, selectTransactionSQL+" ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("query all transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			tx                   core.Transaction
			date, posted, txType string
			status, rawJSON      string
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Amount, &tx.Description, &tx.Category,
			&txType, &tx.Method, &status, &tx.UserNotes, &tx.Tags,
			&tx.Account, &posted, &tx.Details, &rawJSON); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tx.Type = core.TxType(txType)
		tx.Status = core.Status(status)
		if d, err := time.Parse(core.DateLayout, date); err == nil {
			tx.Date = d
		}
		if d, err := time.Parse(core.DateLayout, posted); err == nil {
			tx.PostedDate = d
		}
		if rawJSON != "" {
			if err := json.Unmarshal([]byte(rawJSON), &tx.Raw); err != nil {
				slog.Warn("Dropping undecodable raw payload", "id", tx.ID, "error", err)
			}
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateFields(ctx context.Context, id string, f FieldUpdate) error {
	if f.IsZero() {
		return nil
	}
	if f.Type != nil && !f.Type.IsValid() {
		return core.ErrInvalidType
	}
	if f.Amount != nil && *f.Amount < 0 {
		return core.ErrNegativeAmount
	}

	var sets []string
	var args []any
	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if f.Category != nil {
		add("category", *f.Category)
	}
	if f.Type != nil {
		add("type", string(*f.Type))
	}
	if f.Tags != nil {
		add("tags", *f.Tags)
	}
	if f.UserNotes != nil {
		add("user_notes", *f.UserNotes)
	}
	if f.Amount != nil {
		add("amount", *f.Amount)
	}
	if f.Date != nil {
		add("date", f.Date.Format(core.DateLayout))
	}
	args = append(args, id)

	query := s.d.rebind("UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) MarkReviewed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?, ", len(ids))
	placeholders = strings.TrimSuffix(placeholders, ", ")

	// Guarded on the current status so the transition stays monotonic.
	query := s.d.rebind("UPDATE transactions SET status = ? WHERE id IN (" + placeholders + ") AND status = ?")

	args := make([]any, 0, len(ids)+2)
	args = append(args, string(core.StatusReviewed))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(core.StatusPending))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	return nil
}

const upsertBalanceSQL = `
	INSERT INTO balance_history (date, institution, account, balance)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (date, institution, account) DO UPDATE SET balance = excluded.balance`

func (s *SQLStore) SaveBalanceSnapshot(ctx context.Context, rows []core.BalanceSnapshot) error {
	query := s.d.rebind(upsertBalanceSQL)
	for _, row := range rows {
		_, err := s.db.ExecContext(ctx, query,
			row.Date.Format(core.DateLayout), row.Institution, row.Account, row.Balance)
		if err != nil {
			return fmt.Errorf("save balance snapshot %s/%s: %w", row.Institution, row.Account, err)
		}
	}
	return nil
}

func (s *SQLStore) GetBalanceHistory(ctx context.Context) ([]core.BalanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, institution, account, balance FROM balance_history ORDER BY date, institution, account")
	if err != nil {
		return nil, fmt.Errorf("query balance history: %w", err)
	}
	defer rows.Close()

	var out []core.BalanceSnapshot
	for rows.Next() {
		var snap core.BalanceSnapshot
		var date string
		if err := rows.Scan(&date, &snap.Institution, &snap.Account, &snap.Balance); err != nil {
			return nil, fmt.Errorf("scan balance snapshot: %w", err)
		}
		if d, err := time.Parse(core.DateLayout, date); err == nil {
			snap.Date = d
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLStore) NetWorthHistory(ctx context.Context) ([]NetWorthPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, SUM(balance) FROM balance_history GROUP BY date ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("query net worth history: %w", err)
	}
	defer rows.Close()

	var out []NetWorthPoint
	for rows.Next() {
		var p NetWorthPoint
		var date string
		if err := rows.Scan(&date, &p.Total); err != nil {
			return nil, fmt.Errorf("scan net worth point: %w", err)
		}
		if d, err := time.Parse(core.DateLayout, date); err == nil {
			p.Date = d
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
