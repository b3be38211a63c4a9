package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id              TEXT PRIMARY KEY,
		source          TEXT NOT NULL,
		raw_text        TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		sentiment       TEXT DEFAULT '',
		priority        TEXT DEFAULT '',
		category        TEXT DEFAULT '',
		summary         TEXT DEFAULT '',
		priority_reason TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	CREATE INDEX IF NOT EXISTS idx_feedback_priority ON feedback(priority);

	CREATE TABLE IF NOT EXISTS analysis_log (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp      DATETIME NOT NULL,
		total_feedback INTEGER NOT NULL,
		negative_count INTEGER NOT NULL,
		p0_count       INTEGER NOT NULL,
		p1_count       INTEGER NOT NULL,
		data           TEXT NOT NULL,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_log_timestamp ON analysis_log(timestamp);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		run_date   TEXT PRIMARY KEY,
		claimed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func InsertFeedback(db *sql.DB, rec FeedbackRecord) error {
	_, err := db.Exec(
		`INSERT INTO feedback (id, source, raw_text, created_at, sentiment, priority, category, summary, priority_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.RawText, rec.CreatedAt,
		rec.Sentiment, rec.Priority, rec.Category, rec.Summary, rec.PriorityReason,
	)
	return err
}

const feedbackColumns = `id, source, raw_text, created_at, sentiment, priority, category, summary, priority_reason`

func scanFeedbackRows(rows *sql.Rows) ([]FeedbackRecord, error) {
	defer rows.Close()
	var out []FeedbackRecord
	for rows.Next() {
		var r FeedbackRecord
		if err := rows.Scan(
			&r.ID, &r.Source, &r.RawText, &r.CreatedAt,
			&r.Sentiment, &r.Priority, &r.Category, &r.Summary, &r.PriorityReason,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetFeedbackByDateRange returns records whose created_at falls in [from, to),
// newest first. Stored timestamps are canonical UTC RFC3339, so string
// comparison orders correctly.
func GetFeedbackByDateRange(db *sql.DB, from, to time.Time) ([]FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT `+feedbackColumns+` FROM feedback
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC, id DESC`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	return scanFeedbackRows(rows)
}

func GetAllFeedback(db *sql.DB) ([]FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT ` + feedbackColumns + ` FROM feedback
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	return scanFeedbackRows(rows)
}

func GetRecentFeedback(db *sql.DB, limit int) ([]FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT `+feedbackColumns+` FROM feedback
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return scanFeedbackRows(rows)
}

func GetFeedbackByID(db *sql.DB, id string) (FeedbackRecord, error) {
	var r FeedbackRecord
	err := db.QueryRow(
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`, id,
	).Scan(
		&r.ID, &r.Source, &r.RawText, &r.CreatedAt,
		&r.Sentiment, &r.Priority, &r.Category, &r.Summary, &r.PriorityReason,
	)
	return r, err
}

// --- Analysis log ---

func InsertAnalysisLog(db *sql.DB, entry AnalysisLogEntry) error {
	_, err := db.Exec(
		`INSERT INTO analysis_log (timestamp, total_feedback, negative_count, p0_count, p1_count, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.TotalFeedback, entry.NegativeCount,
		entry.P0Count, entry.P1Count, entry.Data,
	)
	return err
}

func GetAnalysisLogsSince(db *sql.DB, since time.Time) ([]AnalysisLogEntry, error) {
	rows, err := db.Query(
		`SELECT id, timestamp, total_feedback, negative_count, p0_count, p1_count, data, created_at
		 FROM analysis_log WHERE timestamp >= ?
		 ORDER BY timestamp DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisLogEntry
	for rows.Next() {
		var e AnalysisLogEntry
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.TotalFeedback, &e.NegativeCount,
			&e.P0Count, &e.P1Count, &e.Data, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Run claims ---

// ClaimAnalysisRun records that a daily run for runDate has started. Returns
// false when another invocation already claimed the date, making the trigger
// layer at-most-once per UTC calendar day.
func ClaimAnalysisRun(db *sql.DB, runDate string) (bool, error) {
	res, err := db.Exec(`INSERT OR IGNORE INTO analysis_runs (run_date) VALUES (?)`, runDate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
