// Package postgres persists analysis runs. Reports are stored as JSON next
// to a few query-friendly columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"surveyweight/domain/analysis"
	"surveyweight/domain/core"
	"surveyweight/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS weighting_runs (
	id           TEXT PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL,
	indicator    TEXT NOT NULL,
	rows_total   INTEGER NOT NULL,
	respondents  INTEGER NOT NULL,
	report       JSONB NOT NULL
)`

// runRepository implements the RunRepository port.
type runRepository struct {
	db *sqlx.DB
}

// Connect opens a database handle and ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// NewRunRepository creates a run repository over an open handle.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// Save inserts a completed analysis report.
func (r *runRepository) Save(ctx context.Context, report *analysis.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `INSERT INTO weighting_runs (
		id, created_at, indicator, rows_total, respondents, report
	) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		report.RunID.String(), report.CreatedAt.Time(), report.Indicator.String(),
		report.Rows, report.Weights.RespondentCount, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetByID retrieves one stored report.
func (r *runRepository) GetByID(ctx context.Context, id core.RunID) (*analysis.Report, error) {
	query := `SELECT report FROM weighting_runs WHERE id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns the most recent reports, newest first.
func (r *runRepository) List(ctx context.Context, limit int) ([]analysis.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT report FROM weighting_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []analysis.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var report analysis.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}
