package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/retailpulse/storevisits/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    visits     TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'ongoing',
    results    TEXT NOT NULL DEFAULT '[]',
    error_logs TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Repository implements domain.JobStore using SQLite. Visit and outcome
// sequences are stored as JSON columns keyed by the job id.
type Repository struct {
	db *sql.DB
}

var _ domain.JobStore = (*Repository)(nil)

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new job.
func (r *Repository) Create(ctx context.Context, job *domain.Job) error {
	visits, err := json.Marshal(job.Visits)
	if err != nil {
		return fmt.Errorf("encode visits: %w", err)
	}
	results, err := json.Marshal(emptyIfNil(job.Results))
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	errorLogs, err := json.Marshal(emptyIfNil(job.ErrorLogs))
	if err != nil {
		return fmt.Errorf("encode error logs: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, visits, status, results, error_logs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(visits), job.Status, string(results), string(errorLogs),
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrJobExists
		}
		return err
	}
	return nil
}

// Get retrieves a job by id.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, visits, status, results, error_logs, created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	)
	return scanJob(row)
}

// Finalize commits the terminal status together with results and error
// logs in a single UPDATE, so readers never see a partial triple.
func (r *Repository) Finalize(ctx context.Context, id string, status domain.JobStatus, results []domain.ImageResult, errorLogs []domain.ImageError) error {
	resultsJSON, err := json.Marshal(emptyIfNil(results))
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	errorLogsJSON, err := json.Marshal(emptyIfNil(errorLogs))
	if err != nil {
		return fmt.Errorf("encode error logs: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, results = ?, error_logs = ?, updated_at = ? WHERE id = ?`,
		status, string(resultsJSON), string(errorLogsJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// FindOngoing returns all jobs still in the ongoing state, oldest first.
func (r *Repository) FindOngoing(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, visits, status, results, error_logs, created_at, updated_at
		 FROM jobs WHERE status = ? ORDER BY created_at ASC`,
		domain.StatusOngoing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var job domain.Job
	var status, visits, results, errorLogs string
	err := row.Scan(&job.ID, &visits, &status, &results, &errorLogs, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal([]byte(visits), &job.Visits); err != nil {
		return nil, fmt.Errorf("decode visits: %w", err)
	}
	if err := json.Unmarshal([]byte(results), &job.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if err := json.Unmarshal([]byte(errorLogs), &job.ErrorLogs); err != nil {
		return nil, fmt.Errorf("decode error logs: %w", err)
	}
	return &job, nil
}

// emptyIfNil keeps nil slices encoding as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
