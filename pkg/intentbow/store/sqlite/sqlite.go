package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	intents_path TEXT,
	artifact_dir TEXT,
	vocabulary TEXT NOT NULL DEFAULT '[]',
	labels TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS run_epochs (
	run_id TEXT NOT NULL,
	epoch INTEGER NOT NULL,
	loss REAL NOT NULL,
	accuracy REAL NOT NULL,
	PRIMARY KEY(run_id, epoch),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateRun inserts a new run
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	vocabJSON, err := json.Marshal(nonNil(r.Vocabulary))
	if err != nil {
		return err
	}
	labelsJSON, err := json.Marshal(nonNil(r.Labels))
	if err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = store.StatusRunning
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, finished_at, status, intents_path, artifact_dir, vocabulary, labels)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`, r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), string(status),
		r.IntentsPath, r.ArtifactDir, string(vocabJSON), string(labelsJSON))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.ID)
	}
	return nil
}

// AppendEpoch records one epoch of a run. Re-sending an epoch overwrites it.
func (s *sqliteStore) AppendEpoch(ctx context.Context, runID string, e store.Epoch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := runExists(ctx, tx, runID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO run_epochs (run_id, epoch, loss, accuracy)
VALUES (?, ?, ?, ?)
ON CONFLICT(run_id, epoch) DO UPDATE SET
	loss=excluded.loss,
	accuracy=excluded.accuracy;
`, runID, e.Epoch, e.Loss, e.Accuracy)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// FinishRun marks a run as finished
func (s *sqliteStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time, status store.Status) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE runs SET finished_at = ?, status = ? WHERE id = ?;
`, formatTime(finishedAt), string(status), runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return nil
}

// GetRun retrieves a run with its epochs
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, status, intents_path, artifact_dir, vocabulary, labels
FROM runs WHERE id = ?;
`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return store.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT epoch, loss, accuracy FROM run_epochs WHERE run_id = ? ORDER BY epoch;
`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var e store.Epoch
		if err := rows.Scan(&e.Epoch, &e.Loss, &e.Accuracy); err != nil {
			return store.Run{}, err
		}
		r.Epochs = append(r.Epochs, e)
	}
	return r, rows.Err()
}

// ListRuns returns runs, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, status, intents_path, artifact_dir, vocabulary, labels
FROM runs
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var r store.Run
	var started, finished, status, vocabJSON, labelsJSON string
	var intentsPath, artifactDir sql.NullString
	if err := sc.Scan(&r.ID, &started, &finished, &status, &intentsPath, &artifactDir, &vocabJSON, &labelsJSON); err != nil {
		return store.Run{}, err
	}

	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return store.Run{}, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return store.Run{}, fmt.Errorf("run %s finished_at: %w", r.ID, err)
	}
	r.Status = store.Status(status)
	r.IntentsPath = intentsPath.String
	r.ArtifactDir = artifactDir.String
	if err := json.Unmarshal([]byte(vocabJSON), &r.Vocabulary); err != nil {
		return store.Run{}, err
	}
	if err := json.Unmarshal([]byte(labelsJSON), &r.Labels); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

func runExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?;`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
