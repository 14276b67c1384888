// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pathfinder-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// Schema is the DDL for the tables the planner reads and writes. Checklist
// and timeline overrides live in their own tables so that concurrent updates
// to different documents or steps never touch the same row.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		gpa           DOUBLE PRECISION,
		test_scores   JSONB NOT NULL DEFAULT '{}',
		max_tuition   DOUBLE PRECISION,
		interests     JSONB NOT NULL DEFAULT '{}',
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS counselors (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		specialization TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS counselor_assignments (
		counselor_id TEXT NOT NULL REFERENCES counselors(id) ON DELETE CASCADE,
		student_id   TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		PRIMARY KEY (counselor_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS application_progress (
		id                 UUID PRIMARY KEY,
		student_id         TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		university_id      TEXT NOT NULL,
		fit_score_snapshot INTEGER NOT NULL,
		application_status TEXT NOT NULL DEFAULT 'Not Started',
		notes              TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (student_id, university_id)
	)`,
	`CREATE TABLE IF NOT EXISTS checklist_overrides (
		progress_id   UUID NOT NULL REFERENCES application_progress(id) ON DELETE CASCADE,
		document_name TEXT NOT NULL,
		status        TEXT NOT NULL,
		file_ref      TEXT NOT NULL DEFAULT '',
		last_updated  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (progress_id, document_name)
	)`,
	`CREATE TABLE IF NOT EXISTS timeline_overrides (
		progress_id    UUID NOT NULL REFERENCES application_progress(id) ON DELETE CASCADE,
		step_name      TEXT NOT NULL,
		status         TEXT NOT NULL,
		completed_date TIMESTAMPTZ,
		PRIMARY KEY (progress_id, step_name)
	)`,
}

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Migrate creates any missing tables.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
