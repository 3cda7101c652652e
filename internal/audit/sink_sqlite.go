package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const createEventsTable = `CREATE TABLE IF NOT EXISTS audit_events (
	id               TEXT PRIMARY KEY,
	version          TEXT NOT NULL,
	ts               TEXT NOT NULL,
	request_id       TEXT NOT NULL,
	client_id        TEXT,
	source           TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	high_need        INTEGER,
	probability      REAL,
	prediction_error TEXT,
	focus_codes      TEXT,
	rule_ids         TEXT,
	error            TEXT,
	latency_ms       REAL NOT NULL,
	scores           TEXT
)`

const insertEvent = `INSERT INTO audit_events
	(id, version, ts, request_id, client_id, source, outcome, high_need, probability,
	 prediction_error, focus_codes, rule_ids, error, latency_ms, scores)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink stores audit events in a local SQLite database.
type SQLiteSink struct {
	path string
	db   *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and ensures the
// events table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &SQLiteSink{path: path, db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteSink) Name() string { return "sqlite:" + s.path }

func (s *SQLiteSink) Deliver(ctx context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}

	var highNeed, prob any
	if ev.Prediction != nil {
		highNeed = ev.Prediction.HighNeed
		prob = ev.Prediction.Probability
	}
	var scores any
	if len(ev.Scores) > 0 {
		b, err := json.Marshal(ev.Scores)
		if err != nil {
			return fmt.Errorf("encode scores: %w", err)
		}
		scores = string(b)
	}

	_, err := s.db.ExecContext(ctx, insertEvent,
		ev.ID,
		ev.Version,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		ev.RequestID,
		ev.ClientID,
		ev.Source,
		string(ev.Outcome),
		highNeed,
		prob,
		ev.PredictionError,
		strings.Join(ev.FocusCodes, ","),
		strings.Join(ev.RuleIDs, ","),
		ev.Error,
		ev.LatencyMs,
		scores,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// CountByOutcome returns stored event counts per outcome.
func (s *SQLiteSink) CountByOutcome(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM audit_events GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[Outcome]int)
	for rows.Next() {
		var o string
		var n int
		if err := rows.Scan(&o, &n); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out[Outcome(o)] = n
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close(context.Context) error {
	return s.db.Close()
}
