package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteHistory implements HistoryStore on a local SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Append implements HistoryStore
func (s *SQLiteHistory) Append(ctx context.Context, rec EstimateRecord) (int64, error) {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO estimates (
			gross_income, location, filing_status,
			net_income_cents, total_tax_cents, total_expenses_cents,
			remaining_cents, analysis, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GrossIncome, rec.Location, rec.FilingStatus,
		rec.NetIncomeCents, rec.TotalTaxCents, rec.TotalExpensesCents,
		rec.RemainingCents, rec.Analysis, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert estimate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Estimate saved to SQLite",
		"id", id,
		"location", rec.Location,
		"net_income_cents", rec.NetIncomeCents)

	return id, nil
}

// List implements HistoryStore
func (s *SQLiteHistory) List(ctx context.Context, limit int) ([]EstimateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gross_income, location, filing_status,
		       net_income_cents, total_tax_cents, total_expenses_cents,
		       remaining_cents, analysis, created_at
		FROM estimates
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var records []EstimateRecord
	for rows.Next() {
		var rec EstimateRecord
		if err := rows.Scan(
			&rec.ID, &rec.GrossIncome, &rec.Location, &rec.FilingStatus,
			&rec.NetIncomeCents, &rec.TotalTaxCents, &rec.TotalExpensesCents,
			&rec.RemainingCents, &rec.Analysis, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}

	return records, nil
}

func (s *SQLiteHistory) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
