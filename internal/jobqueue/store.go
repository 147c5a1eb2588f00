package jobqueue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hirelala/audio2vtt/internal/subtitle"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id            TEXT PRIMARY KEY,
    filename      TEXT NOT NULL,
    language      TEXT NOT NULL DEFAULT '',
    format        TEXT NOT NULL,
    audio         BLOB NOT NULL,
    status        TEXT NOT NULL,
    result        TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    word_count    INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL,
    started_at    TEXT,
    completed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Store tracks jobs in an in-memory SQLite database. Nothing is ever written
// to disk and rows live until the process exits; there is no eviction.
//
// Each store gets its own shared-cache database and holds a keeper
// connection open for its lifetime. An in-memory SQLite database is dropped
// when its last connection closes, so without the keeper a recycled pool
// connection would silently wipe every row.
type Store struct {
	db     *sql.DB
	keeper *sql.Conn
}

// storeSeq distinguishes shared-cache database names between stores.
var storeSeq atomic.Int64

// Open initializes the in-memory job database.
func Open() (*Store, error) {
	dsn := fmt.Sprintf("file:jobs-%d?mode=memory&cache=shared", storeSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job db: %w", err)
	}
	// The keeper occupies one slot permanently, leaving a single working
	// connection so status transitions never interleave mid-update.
	db.SetMaxOpenConns(2)

	keeper, err := db.Conn(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pin job db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = keeper.Close()
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = keeper.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, keeper: keeper}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.keeper != nil {
		_ = s.keeper.Close()
	}
	return s.db.Close()
}

// Register inserts a new pending job.
func (s *Store) Register(ctx context.Context, job *Job) error {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return fmt.Errorf("register job: missing id")
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.Status != StatusPending {
		return fmt.Errorf("register job: new jobs must be pending, got %q", job.Status)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, filename, language, format, audio, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Filename,
		job.Language,
		string(job.Format),
		job.Audio,
		string(job.Status),
		job.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("register job: %w", err)
	}
	return nil
}

// Get returns a point-in-time snapshot of a job without its audio payload, or
// nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, filename, language, format, status, result, error_message,
                word_count, created_at, started_at, completed_at
         FROM jobs WHERE id = ?`,
		id,
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Claim transitions a pending job to processing and returns it together with
// its audio payload. Returns nil when the job is unknown or no longer pending.
func (s *Store) Claim(ctx context.Context, id string) (*Job, error) {
	started := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(StatusProcessing), started, id, string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, filename, language, format, status, result, error_message,
                word_count, created_at, started_at, completed_at
         FROM jobs WHERE id = ?`,
		id,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	var audio []byte
	if err := s.db.QueryRowContext(ctx, `SELECT audio FROM jobs WHERE id = ?`, id).Scan(&audio); err != nil {
		return nil, fmt.Errorf("claim job audio: %w", err)
	}
	job.Audio = audio
	return job, nil
}

// Complete marks a processing job completed with its rendered result. Terminal
// rows are never touched, which keeps completed and failed jobs immutable.
func (s *Store) Complete(ctx context.Context, id, result string, wordCount int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, result = ?, word_count = ?, completed_at = ?
         WHERE id = ? AND status = ?`,
		string(StatusCompleted), result, wordCount,
		time.Now().UTC().Format(time.RFC3339Nano),
		id, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return requireTransition(res, id, StatusCompleted)
}

// Fail marks a pending or processing job failed with the given message.
// Pending jobs fail directly when admission is rejected.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		string(StatusFailed), message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id, string(StatusPending), string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return requireTransition(res, id, StatusFailed)
}

func requireTransition(res sql.Result, id string, to Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %s: no valid transition to %s", id, to)
	}
	return nil
}

// Counts tallies jobs per status. Each counter runs as its own query, so
// concurrent transitions can make the numbers momentarily inconsistent with
// one another.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&counts.Total); err != nil {
		return counts, fmt.Errorf("count jobs: %w", err)
	}
	perStatus := []struct {
		status Status
		target *int
	}{
		{StatusPending, &counts.Pending},
		{StatusProcessing, &counts.Processing},
		{StatusCompleted, &counts.Completed},
		{StatusFailed, &counts.Failed},
	}
	for _, entry := range perStatus {
		err := s.db.QueryRowContext(
			ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`, string(entry.status),
		).Scan(entry.target)
		if err != nil {
			return counts, fmt.Errorf("count %s jobs: %w", entry.status, err)
		}
	}
	return counts, nil
}

// List returns job snapshots, newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT id, filename, language, format, status, result, error_message,
                     word_count, created_at, started_at, completed_at
              FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job         Job
		format      string
		status      string
		createdAt   string
		startedAt   sql.NullString
		completedAt sql.NullString
	)
	err := row.Scan(
		&job.ID, &job.Filename, &job.Language, &format, &status,
		&job.Result, &job.ErrorMessage, &job.WordCount,
		&createdAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Format = subtitle.Format(format)
	job.Status = Status(status)
	if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		job.CreatedAt = parsed
	}
	if startedAt.Valid {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, startedAt.String); parseErr == nil {
			job.StartedAt = &parsed
		}
	}
	if completedAt.Valid {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, completedAt.String); parseErr == nil {
			job.CompletedAt = &parsed
		}
	}
	return &job, nil
}
