// Package persistence provides SQLite-based storage for evaluated charts.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/wuxing/internal/engine"
)

// ErrNotFound is returned when no evaluation has the requested id.
var ErrNotFound = errors.New("evaluation not found")

// schemaVersion is bumped whenever the evaluations table changes shape.
const schemaVersion = "1"

// DB wraps a SQLite connection for the evaluation archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		chart_label TEXT NOT NULL,
		day_master TEXT NOT NULL,
		strength TEXT NOT NULL,
		useful TEXT NOT NULL,
		chart_json TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS archive_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return db.SaveMeta("schema_version", schemaVersion)
}

// Summary is one archived evaluation without its payload.
type Summary struct {
	ID         string `db:"id" json:"id"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
	ChartLabel string `db:"chart_label" json:"chart"`
	DayMaster  string `db:"day_master" json:"day_master"`
	Strength   string `db:"strength" json:"strength"`
	Useful     string `db:"useful" json:"useful"`
}

// Created returns the creation time.
func (s Summary) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// Evaluation is an archived evaluation with its stored result.
type Evaluation struct {
	Summary
	ChartJSON  string `db:"chart_json" json:"-"`
	ResultJSON string `db:"result_json" json:"-"`
}

// Payload returns the stored result JSON for verbatim replay.
func (e Evaluation) Payload() json.RawMessage {
	return json.RawMessage(e.ResultJSON)
}

// chartLabel renders the present pillars as "丙寅 己亥 丁丑 丁未".
func chartLabel(res *engine.Result) string {
	label := ""
	for _, p := range []string{
		res.Chart.Year, res.Chart.Month, res.Chart.Day, res.Chart.Hour,
		res.Chart.Luck, res.Chart.Annual, res.Chart.Monthly, res.Chart.Daily, res.Chart.Hourly,
	} {
		if p == "" {
			continue
		}
		if label != "" {
			label += " "
		}
		label += p
	}
	return label
}

// SaveEvaluation archives a result and returns its new id.
func (db *DB) SaveEvaluation(res *engine.Result) (string, error) {
	chartJSON, err := json.Marshal(res.Chart)
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(`INSERT INTO evaluations
		(id, created_at, chart_label, day_master, strength, useful, chart_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UnixMilli(), chartLabel(res),
		res.DayMaster.Stem.String(), res.DayMaster.Strength.String(), res.Gods.Useful.String(),
		string(chartJSON), string(resultJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert evaluation: %w", err)
	}

	slog.Info("evaluation saved", "id", id, "day_master", res.DayMaster.Stem, "strength", res.DayMaster.Strength)
	return id, nil
}

// GetEvaluation returns one archived evaluation.
func (db *DB) GetEvaluation(id string) (*Evaluation, error) {
	var e Evaluation
	err := db.conn.Get(&e, `SELECT id, created_at, chart_label, day_master, strength, useful,
		chart_json, result_json FROM evaluations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEvaluation removes one archived evaluation.
func (db *DB) DeleteEvaluation(id string) error {
	res, err := db.conn.Exec("DELETE FROM evaluations WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("evaluation deleted", "id", id)
	return nil
}

// RecentEvaluations returns the most recent N evaluations, newest first.
func (db *DB) RecentEvaluations(limit int) ([]Summary, error) {
	var out []Summary
	err := db.conn.Select(&out,
		`SELECT id, created_at, chart_label, day_master, strength, useful
		 FROM evaluations ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	return out, err
}

// CountEvaluations returns the archive size.
func (db *DB) CountEvaluations() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM evaluations")
	return n, err
}

// SaveMeta stores a key-value pair in archive metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO archive_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM archive_meta WHERE key = ?", key)
	return value, err
}
