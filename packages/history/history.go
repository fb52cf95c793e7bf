// Package history records fired results into a local SQLite file so past
// runs can be inspected later. It is an optional collaborator: the dispatch
// core itself keeps no persistent state.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id          TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	spec_name   TEXT NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status_code INTEGER,
	attempts    INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	error       TEXT,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);
`

// Entry is one recorded row.
type Entry struct {
	ID         string
	SessionID  string
	SpecName   string
	Method     string
	URL        string
	StatusCode int
	Attempts   int
	Elapsed    time.Duration
	Error      string
	RecordedAt time.Time
}

type Recorder struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Recorder{db: db, timeout: 30 * time.Second}, nil
}

func (r *Recorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Record stores one result row. A nil result with a non-nil err records the
// failure with empty request detail.
func (r *Recorder) Record(res *wire.Result, resErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var (
		id, sessionID, specName, method, url string
		statusCode, attempts                 int
		elapsedMs                            int64
		errText                              string
	)

	if res != nil {
		id = res.ID.String()
		sessionID = res.SessionID.String()
		specName = res.SpecName
		method = res.Request.Method
		url = res.Request.URL
		statusCode = res.Response.StatusCode
		attempts = res.Attempts
		elapsedMs = res.Elapsed.Milliseconds()
	}
	if resErr != nil {
		errText = resErr.Error()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO results (id, session_id, spec_name, method, url, status_code, attempts, elapsed_ms, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sessionID, specName, method, url, statusCode, attempts, elapsedMs, errText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// RecordBatch stores every result of one batch, pairing the batch error (if
// any) with the rows that have no result.
func (r *Recorder) RecordBatch(results []*wire.Result, batchErr error) error {
	for _, res := range results {
		rowErr := batchErr
		if res != nil {
			rowErr = nil
		}
		if err := r.Record(res, rowErr); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the most recently recorded entries, newest first.
func (r *Recorder) Recent(limit int) ([]*Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, spec_name, method, url, status_code, attempts, elapsed_ms, error, recorded_at
		 FROM results ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var elapsedMs int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SpecName, &e.Method, &e.URL,
			&e.StatusCode, &e.Attempts, &elapsedMs, &e.Error, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
