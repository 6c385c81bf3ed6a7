package database

import (
	"database/sql"
	"time"
)

const articleColumns = `id, url, title, source, region, published_at, collected_at,
	relevance_score, matched_keywords, category, excerpt, ai_summary, notified`

// NewArticle holds the fields the collector supplies for an upsert.
// CollectedAt and AISummary are owned by the database and never set
// from a collection pass.
type NewArticle struct {
	URL             string
	Title           string
	Source          string
	Region          string
	PublishedAt     *time.Time
	RelevanceScore  int
	MatchedKeywords string
	Category        string
	Excerpt         string
}

// UpsertArticle inserts a new article or, when the URL already exists,
// updates its score, keywords, category and region in place. The
// original collected_at and any existing ai_summary are preserved.
func (db *DB) UpsertArticle(a NewArticle) (UpsertResult, error) {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM articles WHERE url = ?", a.URL).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		var publishedAt *string
		if a.PublishedAt != nil {
			s := a.PublishedAt.UTC().Format("2006-01-02 15:04:05")
			publishedAt = &s
		}
		result, err := db.conn.Exec(
			`INSERT INTO articles (url, title, source, region, published_at,
				relevance_score, matched_keywords, category, excerpt)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.URL, a.Title, a.Source, a.Region, publishedAt,
			a.RelevanceScore, a.MatchedKeywords, a.Category, a.Excerpt,
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
			`UPDATE articles SET relevance_score = ?, matched_keywords = ?,
				category = ?, region = ? WHERE id = ?`,
			a.RelevanceScore, a.MatchedKeywords, a.Category, a.Region, id,
		)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{ID: id, Inserted: false}, nil
	}
}

// ArticlesByDateRegion returns articles in a region whose collection
// timestamp falls on the given calendar date (YYYY-MM-DD), ordered by
// descending relevance score.
func (db *DB) ArticlesByDateRegion(date, region string) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT `+articleColumns+` FROM articles
		WHERE date(collected_at) = ? AND region = ?
		ORDER BY relevance_score DESC`, date, region,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListArticles returns the most recently collected articles, optionally
// filtered by category.
func (db *DB) ListArticles(category string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY collected_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticleByID returns a single article, or nil if absent.
func (db *DB) GetArticleByID(id int64) (*Article, error) {
	row := db.conn.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateArticleAISummary stores an AI-generated short summary.
func (db *DB) UpdateArticleAISummary(id int64, summary string) error {
	_, err := db.conn.Exec("UPDATE articles SET ai_summary = ? WHERE id = ?", summary, id)
	return err
}

// MarkNotified flags an article as already announced.
func (db *DB) MarkNotified(id int64) error {
	_, err := db.conn.Exec("UPDATE articles SET notified = 1 WHERE id = ?", id)
	return err
}

// GetUnnotifiedArticles returns articles not yet announced, oldest first.
func (db *DB) GetUnnotifiedArticles(limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(
		`SELECT `+articleColumns+` FROM articles
		WHERE notified = 0 ORDER BY collected_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetStats returns aggregate counts by category, source and region.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{
		ByCategory: make(map[string]int),
		BySource:   make(map[string]int),
		ByRegion:   make(map[string]int),
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&s.TotalArticles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM daily_summaries").Scan(&s.TotalSummaries); err != nil {
		return nil, err
	}

	groups := []struct {
		sql  string
		dest map[string]int
	}{
		{"SELECT COALESCE(category, 'Unknown'), COUNT(*) FROM articles GROUP BY category", s.ByCategory},
		{"SELECT source, COUNT(*) FROM articles GROUP BY source", s.BySource},
		{"SELECT region, COUNT(*) FROM articles GROUP BY region", s.ByRegion},
	}
	for _, g := range groups {
		rows, err := db.conn.Query(g.sql)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, err
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return s, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var notified int
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Source, &a.Region,
			&a.PublishedAt, &a.CollectedAt, &a.RelevanceScore,
			&a.MatchedKeywords, &a.Category, &a.Excerpt, &a.AISummary, &notified); err != nil {
			return nil, err
		}
		a.Notified = notified != 0
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var notified int
	if err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Source, &a.Region,
		&a.PublishedAt, &a.CollectedAt, &a.RelevanceScore,
		&a.MatchedKeywords, &a.Category, &a.Excerpt, &a.AISummary, &notified); err != nil {
		return nil, err
	}
	a.Notified = notified != 0
	return &a, nil
}
