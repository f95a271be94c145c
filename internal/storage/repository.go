package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"tracker/internal/core"
	applog "tracker/internal/log"

	_ "modernc.org/sqlite"
)

const table = "transactions"

// timestampLayout is fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var columns = []string{
	"id", "title", "description", "amount_cents", "transaction_type",
	"category", "date", "created_at", "updated_at",
}

const (
	monthExpr   = "substr(`date`, 1, 7)"
	incomeExpr  = "COALESCE(SUM(CASE WHEN `transaction_type` = 'income' THEN `amount_cents` ELSE 0 END), 0)"
	expenseExpr = "COALESCE(SUM(CASE WHEN `transaction_type` = 'expense' THEN `amount_cents` ELSE 0 END), 0)"
)

type SQLiteRepository struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases
	// alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db: db,
		b:  entsql.Dialect(dialect.SQLite),
	}, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts t and returns it with the generated ID.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	query, args := r.b.Insert(table).
		Columns(columns[1:]...).
		Values(
			t.Title, t.Description, t.Amount.Cents, string(t.Type),
			string(t.Category), t.Date.String(),
			formatTimestamp(t.CreatedAt), formatTimestamp(t.UpdatedAt),
		).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read inserted id: %w", err)
	}
	t.ID = id

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return t, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	query, args := r.b.Select(columns...).
		From(r.b.Table(table)).
		Where(entsql.EQ("id", id)).
		Query()

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// List returns the transactions matching f, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	sel := r.b.Select(columns...).From(r.b.Table(table))
	if p := filterPredicate(f); p != nil {
		sel.Where(p)
	}
	sel.OrderBy(entsql.Desc("date"), entsql.Desc("created_at"), entsql.Desc("id"))

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Update overwrites every writable column of the row identified by t.ID.
// created_at is never modified.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	query, args := r.b.Update(table).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("amount_cents", t.Amount.Cents).
		Set("transaction_type", string(t.Type)).
		Set("category", string(t.Category)).
		Set("date", t.Date.String()).
		Set("updated_at", formatTimestamp(t.UpdatedAt)).
		Where(entsql.EQ("id", t.ID)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}

	return r.Get(ctx, t.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	query, args := r.b.Delete(table).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}

	slog.DebugContext(ctx, "Transaction deleted from SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id)
	return nil
}

// MonthlyStats aggregates every stored transaction by calendar month.
func (r *SQLiteRepository) MonthlyStats(ctx context.Context) ([]core.MonthlyStats, error) {
	query, args := r.b.Select(
		entsql.As(monthExpr, "month"),
		entsql.As(incomeExpr, "total_income"),
		entsql.As(expenseExpr, "total_expenses"),
		entsql.As(entsql.Count("*"), "transaction_count"),
	).
		From(r.b.Table(table)).
		GroupBy(monthExpr).
		OrderBy(entsql.Desc("month")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly stats: %w", err)
	}
	defer rows.Close()

	stats := make([]core.MonthlyStats, 0)
	for rows.Next() {
		var s core.MonthlyStats
		if err := rows.Scan(&s.Month, &s.TotalIncome.Cents, &s.TotalExpenses.Cents, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan monthly stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly stats: %w", err)
	}
	return stats, nil
}

// MonthSummary returns the totals of a single month.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, year, month int) (core.MonthlyStats, error) {
	first, last, _ := core.ListFilter{Year: &year, Month: &month}.DateRange()

	query, args := r.b.Select(
		entsql.As(incomeExpr, "total_income"),
		entsql.As(expenseExpr, "total_expenses"),
		entsql.As(entsql.Count("*"), "transaction_count"),
	).
		From(r.b.Table(table)).
		Where(entsql.And(
			entsql.GTE("date", first.String()),
			entsql.LTE("date", last.String()),
		)).
		Query()

	s := core.MonthlyStats{Month: core.MonthKey(year, month)}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&s.TotalIncome.Cents, &s.TotalExpenses.Cents, &s.TransactionCount)
	if err != nil {
		return core.MonthlyStats{}, fmt.Errorf("query month summary %s: %w", s.Month, err)
	}
	return s, nil
}

// filterPredicate translates a ListFilter into a WHERE clause, or nil when
// nothing is filtered.
func filterPredicate(f core.ListFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if first, last, ok := f.DateRange(); ok {
		preds = append(preds,
			entsql.GTE("date", first.String()),
			entsql.LTE("date", last.String()),
		)
	}
	if f.Type != nil {
		preds = append(preds, entsql.EQ("transaction_type", string(*f.Type)))
	}
	if f.Category != nil {
		preds = append(preds, entsql.EQ("category", string(*f.Category)))
	}
	if len(preds) == 0 {
		return nil
	}
	return entsql.And(preds...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                             core.Transaction
		typ, category                 string
		date, createdAt, updatedAtRaw string
	)
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Amount.Cents,
		&typ, &category, &date, &createdAt, &updatedAtRaw,
	); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has malformed date %q: %w", t.ID, date, err)
	}
	t.Date = d
	t.Type = core.TransactionType(typ)
	t.Category = core.Category(category)

	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAtRaw); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d updated_at: %w", t.ID, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
