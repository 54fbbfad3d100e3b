package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"zapledger/internal/core"
	"zapledger/internal/ledger"

	_ "modernc.org/sqlite"
)

const backendName = "sqlite"

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository is the document-style ledger kept in a local SQLite
// file. Dimension filters run on folded key columns so that matching is
// case-insensitive beyond ASCII.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// busy_timeout applies per connection, so it goes in the DSN.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Appender.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.BackendRejected, backendName, err)
	}

	var key any
	if tx.IdempotencyKey != "" {
		key = tx.IdempotencyKey
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, idempotency_key, description, amount, category, category_key,
			 payment_type, payment_type_key, sender_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING`,
		tx.ID, key, tx.Description, tx.Amount,
		tx.Category, core.FoldKey(tx.Category),
		tx.PaymentType, core.FoldKey(tx.PaymentType),
		tx.SenderID, tx.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.WriteFailed, backendName, fmt.Errorf("insert transaction: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.WriteFailed, backendName, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		var existing string
		err := r.db.QueryRowContext(ctx,
			`SELECT id FROM transactions WHERE idempotency_key = ?`, tx.IdempotencyKey).Scan(&existing)
		if err != nil {
			return ledger.Receipt{}, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("lookup duplicate: %w", err))
		}
		slog.InfoContext(ctx, "Duplicate transaction ignored",
			"idempotency_key", tx.IdempotencyKey,
			"existing_id", existing)
		return ledger.Receipt{Ref: existing, Duplicate: true}, nil
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount", tx.Amount,
		"category", tx.Category,
		"payment_type", tx.PaymentType)

	return ledger.Receipt{Ref: tx.ID}, nil
}

// Query implements ledger.Querier.
func (r *SQLiteRepository) Query(ctx context.Context, dim core.Dimension, value string) ([]float64, error) {
	var q string
	switch dim {
	case core.DimensionCategory:
		q = `SELECT amount FROM transactions WHERE category_key = ?`
	case core.DimensionPaymentType:
		q = `SELECT amount FROM transactions WHERE payment_type_key = ?`
	default:
		return nil, core.NewStoreError(core.BackendRejected, backendName, fmt.Errorf("unknown dimension %q", dim))
	}

	rows, err := r.db.QueryContext(ctx, q, core.FoldKey(value))
	if err != nil {
		return nil, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("query amounts: %w", err))
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("scan amount: %w", err))
		}
		v, ok := amountFromColumn(raw)
		if !ok {
			slog.WarnContext(ctx, "Skipping malformed amount", "dimension", dim, "value", value, "raw", raw)
			continue
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("iterate amounts: %w", err))
	}
	return out, nil
}

// amountFromColumn accepts what SQLite's dynamic typing may hand back for
// the amount column.
func amountFromColumn(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int64:
		return float64(v), true
	case string:
		f, err := core.ParseAmount(v)
		return f, err == nil
	case []byte:
		f, err := core.ParseAmount(string(v))
		return f, err == nil
	default:
		return 0, false
	}
}
