package database

import (
	"database/sql"
	"time"
)

const summaryColumns = "id, date, region, summary, sentiment, article_count, created_at"

// Today returns today's date as YYYY-MM-DD. UTC, to match the
// datetime('now') default on collected_at.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// UpsertDailySummary inserts a summary or updates the existing one for
// the same (date, region) pair in place.
func (db *DB) UpsertDailySummary(s DailySummary) (UpsertResult, error) {
	var id int64
	err := db.conn.QueryRow(
		"SELECT id FROM daily_summaries WHERE date = ? AND region = ?",
		s.Date, s.Region,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := db.conn.Exec(
			`INSERT INTO daily_summaries (date, region, summary, sentiment, article_count)
			VALUES (?, ?, ?, ?, ?)`,
			s.Date, s.Region, s.Summary, s.Sentiment, s.ArticleCount,
		)
		if err != nil {
			return UpsertResult{}, err
		}
		newID, err := result.LastInsertId()
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{ID: newID, Inserted: true}, nil

	case err != nil:
		return UpsertResult{}, err

	default:
		_, err := db.conn.Exec(
			`UPDATE daily_summaries SET summary = ?, sentiment = ?, article_count = ?
			WHERE id = ?`,
			s.Summary, s.Sentiment, s.ArticleCount, id,
		)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{ID: id, Inserted: false}, nil
	}
}

// GetDailySummary returns the summary for a (date, region), or nil.
func (db *DB) GetDailySummary(date, region string) (*DailySummary, error) {
	row := db.conn.QueryRow(
		`SELECT `+summaryColumns+` FROM daily_summaries WHERE date = ? AND region = ?`,
		date, region,
	)
	var s DailySummary
	if err := row.Scan(&s.ID, &s.Date, &s.Region, &s.Summary, &s.Sentiment,
		&s.ArticleCount, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListDailySummaries returns the most recent summaries, newest date first.
func (db *DB) ListDailySummaries(limit int) ([]DailySummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(
		`SELECT `+summaryColumns+` FROM daily_summaries
		ORDER BY date DESC, region LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// DailySummariesByDateRange returns summaries between two dates
// (inclusive), newest first.
func (db *DB) DailySummariesByDateRange(start, end string) ([]DailySummary, error) {
	rows, err := db.conn.Query(
		`SELECT `+summaryColumns+` FROM daily_summaries
		WHERE date >= ? AND date <= ? ORDER BY date DESC, region`, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]DailySummary, error) {
	var summaries []DailySummary
	for rows.Next() {
		var s DailySummary
		if err := rows.Scan(&s.ID, &s.Date, &s.Region, &s.Summary, &s.Sentiment,
			&s.ArticleCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
