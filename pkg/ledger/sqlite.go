package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"speechbatch/pkg/batch"
	"speechbatch/pkg/db"
	"speechbatch/pkg/tts"
)

// NotAttemptedKind marks tasks a halted or cancelled run never reached.
const NotAttemptedKind = "not_attempted"

// SQLiteLedger implements Ledger.
type SQLiteLedger struct {
	db *db.DB
}

// NewSQLiteLedger creates a new ledger.
func NewSQLiteLedger(d *db.DB) *SQLiteLedger {
	return &SQLiteLedger{db: d}
}

// Open initialises the database at path and wraps it in a ledger.
func Open(path string) (*SQLiteLedger, error) {
	d, err := db.Init(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteLedger(d), nil
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database for maintenance.
func (s *SQLiteLedger) DB() *db.DB {
	return s.db
}

// --- Runs ---

// RecordRun stores the run header and every attempted task in one transaction.
func (s *SQLiteLedger) RecordRun(ctx context.Context, report *batch.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, engine, locale, started_at, finished_at, total, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Engine, report.Locale,
		report.Started.UnixMilli(), report.Finished.UnixMilli(),
		report.Total()+len(report.Pending), len(report.Failed())+len(report.Pending))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO results (run_id, seq, filename, text, ok, bytes, format, error, error_kind, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range report.Results {
		var errMsg, kind string
		if res.Err != nil {
			errMsg = res.Err.Error()
			kind = tts.KindOf(res.Err).String()
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, i, res.Task.Filename, res.Task.Text, res.OK(),
			res.Bytes, res.Format, errMsg, kind, res.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", res.Task.Filename, err)
		}
	}

	// Unattempted tasks count as failed so a later retry of failures produces them too.
	for i, task := range report.Pending {
		if _, err := stmt.ExecContext(ctx,
			report.RunID, len(report.Results)+i, task.Filename, task.Text, false,
			0, "", "not attempted", NotAttemptedKind, 0); err != nil {
			return fmt.Errorf("failed to insert pending %s: %w", task.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	slog.Debug("Run recorded", "run_id", report.RunID, "results", len(report.Results), "pending", len(report.Pending))
	return nil
}

// LastRun returns the most recent run for locale, or nil if there is none.
// An empty locale matches any run.
func (s *SQLiteLedger) LastRun(ctx context.Context, locale string) (*Run, error) {
	query := `SELECT id, engine, locale, started_at, finished_at, total, failed FROM runs`
	var args []any
	if locale != "" {
		query += ` WHERE locale = ?`
		args = append(args, locale)
	}
	query += ` ORDER BY started_at DESC LIMIT 1`

	var r Run
	var started, finished int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.Engine, &r.Locale, &started, &finished, &r.Total, &r.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	r.StartedAt = time.UnixMilli(started)
	r.FinishedAt = time.UnixMilli(finished)
	return &r, nil
}

// Entries returns the recorded tasks of a run in run order.
func (s *SQLiteLedger) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, filename, text, ok, bytes, format, error, error_kind, duration_ms
		 FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var format, errMsg, kind sql.NullString
		var ms int64
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Filename, &e.Text, &e.OK, &e.Bytes, &format, &errMsg, &kind, &ms); err != nil {
			return nil, err
		}
		e.Format = format.String
		e.Error = errMsg.String
		e.ErrorKind = kind.String
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// FailedInLastRun returns the filenames that failed in the latest run for locale.
func (s *SQLiteLedger) FailedInLastRun(ctx context.Context, locale string) ([]string, error) {
	run, err := s.LastRun(ctx, locale)
	if err != nil || run == nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename FROM results WHERE run_id = ? AND ok = 0 ORDER BY seq`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- State ---

func (s *SQLiteLedger) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteLedger) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC().Format("2006-01-02 15:04:05"))
	return err
}
