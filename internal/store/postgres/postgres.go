package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Sink implements store.ReportSink on PostgreSQL. One row per run plus one
// row per user outcome, so both the whole report and individual user results
// can be queried later.
type Sink struct {
	db *sql.DB
}

func NewSink(connStr string) (*Sink, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Sink{db: db}

	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

// SaveReport implements store.ReportSink.
func (s *Sink) SaveReport(ctx context.Context, report *models.ExecutionReport) error {
	signals, err := json.Marshal(report.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signal ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx, `
        INSERT INTO execution_runs (started_at, finished_at, signals)
        VALUES ($1, $2, $3)
        RETURNING id
    `, report.StartedAt, report.FinishedAt, signals).Scan(&runID)
	if err != nil {
		return fmt.Errorf("failed to save execution run: %w", err)
	}

	for username, outcome := range report.Users {
		detail, err := json.Marshal(outcome)
		if err != nil {
			return fmt.Errorf("failed to marshal outcome for %s: %w", username, err)
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO execution_outcomes (run_id, username, status, detail, created_at)
            VALUES ($1, $2, $3, $4, $5)
        `, runID, username, outcome.OK, detail, time.Now())
		if err != nil {
			return fmt.Errorf("failed to save outcome for %s: %w", username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit execution report: %w", err)
	}
	return nil
}

func (s *Sink) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS execution_runs (
			id SERIAL PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			signals JSONB NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS execution_outcomes (
			id SERIAL PRIMARY KEY,
			run_id INT NOT NULL REFERENCES execution_runs(id),
			username VARCHAR(100) NOT NULL,
			status BOOLEAN NOT NULL,
			detail JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
