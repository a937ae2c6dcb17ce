package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"harmonise/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  resource TEXT NOT NULL,
  input TEXT NOT NULL,
  output TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT,
  rowCount INTEGER NOT NULL DEFAULT 0,
  issueCount INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS issues (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNumber INTEGER NOT NULL,
  field TEXT NOT NULL,
  datatype TEXT NOT NULL,
  value TEXT NOT NULL,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_issues_runId ON issues(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its generated id.
func (d *DB) StartRun(resource, input, output string) (string, error) {
	id := uuid.NewString()
	_, err := d.conn.Exec(`
INSERT INTO runs (id, resource, input, output, startedAt) VALUES (?, ?, ?, ?, ?)
`, id, resource, input, output, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

// IssueRecorder inserts a run's issues as they arrive. The inserts share one
// transaction, committed by Close.
type IssueRecorder struct {
	runID string
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

func (d *DB) RecordIssues(runID string) (*IssueRecorder, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare(`INSERT INTO issues (runId, rowNumber, field, datatype, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &IssueRecorder{runID: runID, tx: tx, stmt: stmt}, nil
}

func (r *IssueRecorder) WriteIssue(issue internal.Issue) error {
	if _, err := r.stmt.Exec(r.runID, issue.RowNumber, issue.Field, issue.Datatype, issue.Value); err != nil {
		return err
	}
	r.count++
	return nil
}

// Count is the number of issues written so far.
func (r *IssueRecorder) Count() int {
	return r.count
}

func (r *IssueRecorder) Close() error {
	if err := r.stmt.Close(); err != nil {
		_ = r.tx.Rollback()
		return err
	}
	return r.tx.Commit()
}

// FinishRun stores the run totals.
func (d *DB) FinishRun(runID string, rows, issues int) error {
	_, err := d.conn.Exec(`
UPDATE runs SET finishedAt = ?, rowCount = ?, issueCount = ? WHERE id = ?
`, time.Now().UTC().Format(time.RFC3339), rows, issues, runID)
	return err
}

func (d *DB) GetRun(runID string) (*internal.RunRow, error) {
	var run internal.RunRow
	var finishedAt sql.NullString
	err := d.conn.QueryRow(`
SELECT id, resource, input, output, startedAt, finishedAt, rowCount, issueCount FROM runs WHERE id = ?
`, runID).Scan(&run.ID, &run.Resource, &run.Input, &run.Output, &run.StartedAt, &finishedAt, &run.Rows, &run.Issues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.FinishedAt = finishedAt.String
	return &run, nil
}

// LatestRun returns the most recently started run, or nil when none exist.
func (d *DB) LatestRun() (*internal.RunRow, error) {
	var id string
	err := d.conn.QueryRow(`SELECT id FROM runs ORDER BY startedAt DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.GetRun(id)
}

func (d *DB) ListIssues(runID string) ([]internal.Issue, error) {
	rows, err := d.conn.Query(`
SELECT rowNumber, field, datatype, value FROM issues WHERE runId = ? ORDER BY id
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Issue
	for rows.Next() {
		var issue internal.Issue
		if err := rows.Scan(&issue.RowNumber, &issue.Field, &issue.Datatype, &issue.Value); err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// IssueCounts groups a run's issues by field and datatype, largest first.
func (d *DB) IssueCounts(runID string) ([]internal.IssueCount, error) {
	rows, err := d.conn.Query(`
SELECT field, datatype, COUNT(*) AS n FROM issues WHERE runId = ?
GROUP BY field, datatype
ORDER BY n DESC, field, datatype
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.IssueCount
	for rows.Next() {
		var c internal.IssueCount
		if err := rows.Scan(&c.Field, &c.Datatype, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
