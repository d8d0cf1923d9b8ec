package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vidstitch/internal/services"
)

// Status tracks an artifact's lifecycle.
type Status string

const (
	StatusGenerated  Status = "generated"
	StatusDownloaded Status = "downloaded"
)

// Artifact is one generated video tracked in the ledger.
type Artifact struct {
	ID          string
	TaskID      string
	Provider    string
	Model       string
	Prompt      string
	Status      Status
	DownloadURL string
	LocalPath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists generation artifacts in SQLite so runs can be audited and
// provider-side outputs re-downloaded after a crash.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the artifact database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure artifacts dir: %w", err)
	}

	dbPath := filepath.Join(dir, "artifacts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    id TEXT PRIMARY KEY,
    task_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    prompt TEXT NOT NULL,
    status TEXT NOT NULL,
    download_url TEXT NOT NULL DEFAULT '',
    local_path TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_task_id ON artifacts(task_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_provider ON artifacts(provider);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// RecordGenerated inserts a new artifact for a provider task that finished
// generating. It satisfies the provider clients' recorder hook.
func (s *Store) RecordGenerated(ctx context.Context, provider, taskID, model, prompt, downloadURL string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, task_id, provider, model, prompt, status, download_url, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, provider, model, prompt, StatusGenerated, downloadURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// RecordDownloaded marks the newest artifact for a task as downloaded.
func (s *Store) RecordDownloaded(ctx context.Context, taskID, localPath string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, local_path = ?, updated_at = ?
         WHERE id = (SELECT id FROM artifacts WHERE task_id = ? ORDER BY created_at DESC LIMIT 1)`,
		StatusDownloaded, localPath, now, taskID,
	)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "", "record download",
			fmt.Sprintf("no artifact for task %s", taskID), nil)
	}
	return nil
}

// List returns artifacts newest first, optionally filtered by provider.
func (s *Store) List(ctx context.Context, provider string) ([]Artifact, error) {
	query := `SELECT id, task_id, provider, model, prompt, status, download_url, local_path, created_at, updated_at
              FROM artifacts`
	args := []any{}
	if provider != "" {
		query += ` WHERE provider = ?`
		args = append(args, provider)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	return out, rows.Err()
}

// GetByTaskID returns the newest artifact recorded for a provider task.
func (s *Store) GetByTaskID(ctx context.Context, taskID string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, provider, model, prompt, status, download_url, local_path, created_at, updated_at
         FROM artifacts WHERE task_id = ? ORDER BY created_at DESC LIMIT 1`, taskID)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, services.Wrap(services.ErrNotFound, "", "get artifact",
			fmt.Sprintf("no artifact for task %s", taskID), nil)
	}
	return artifact, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var artifact Artifact
	var createdAt, updatedAt string
	err := row.Scan(
		&artifact.ID, &artifact.TaskID, &artifact.Provider, &artifact.Model,
		&artifact.Prompt, &artifact.Status, &artifact.DownloadURL, &artifact.LocalPath,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, err
		}
		return Artifact{}, fmt.Errorf("scan artifact: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		artifact.CreatedAt = ts
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		artifact.UpdatedAt = ts
	}
	return artifact, nil
}
