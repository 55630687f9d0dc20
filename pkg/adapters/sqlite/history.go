// Package sqlite persists the audit trail in a SQLite database using the pure-Go
// driver, so the binary stays CGO-free.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	workflow TEXT NOT NULL,
	stage TEXT,
	action TEXT NOT NULL,
	task TEXT,
	status TEXT NOT NULL,
	args_json TEXT,
	result_json TEXT,
	error_code TEXT,
	at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_log_session ON audit_log (session_id, id)`,
}

// History is a ports.History backed by a SQLite table.
type History struct {
	DB *sql.DB
}

// Open opens (or creates) the database at dsn and prepares the schema.
// Use ":memory:" for a throwaway database.
func Open(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	h, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// New prepares the schema on an already opened database.
func New(db *sql.DB) (*History, error) {
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			return nil, fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return &History{DB: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.DB.Close()
}

// Record appends one audit record.
func (h *History) Record(ctx context.Context, rec domain.AuditRecord) error {
	args, err := nullableJSON(rec.Args, len(rec.Args) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}
	result, err := nullableJSON(rec.Result, rec.Result == nil)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = h.DB.ExecContext(ctx,
		`INSERT INTO audit_log (session_id, workflow, stage, action, task, status, args_json, result_json, error_code, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Workflow, rec.Stage, string(rec.Action), rec.Task, string(rec.Status),
		args, result, rec.Error, rec.At.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// History returns the records of one session in insertion order.
func (h *History) History(ctx context.Context, sessionID string) ([]domain.AuditRecord, error) {
	rows, err := h.DB.QueryContext(ctx,
		`SELECT session_id, workflow, stage, action, task, status, args_json, result_json, error_code, at
		 FROM audit_log WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			rec                  domain.AuditRecord
			action, status, at   string
			stage, task, code    sql.NullString
			argsJSON, resultJSON sql.NullString
		)
		if err := rows.Scan(&rec.SessionID, &rec.Workflow, &stage, &action, &task, &status,
			&argsJSON, &resultJSON, &code, &at); err != nil {
			return nil, err
		}
		rec.Stage, rec.Task, rec.Error = stage.String, task.String, code.String
		rec.Action, rec.Status = domain.ActionType(action), domain.Status(status)

		if argsJSON.Valid {
			if err := json.Unmarshal([]byte(argsJSON.String), &rec.Args); err != nil {
				return nil, fmt.Errorf("corrupt args for session %s: %w", sessionID, err)
			}
		}
		if resultJSON.Valid {
			if err := json.Unmarshal([]byte(resultJSON.String), &rec.Result); err != nil {
				return nil, fmt.Errorf("corrupt result for session %s: %w", sessionID, err)
			}
		}
		if rec.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("corrupt timestamp for session %s: %w", sessionID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sessions lists the sessions with at least one record, most recently active first.
func (h *History) Sessions(ctx context.Context) ([]string, error) {
	rows, err := h.DB.QueryContext(ctx,
		`SELECT session_id FROM audit_log GROUP BY session_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableJSON(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
