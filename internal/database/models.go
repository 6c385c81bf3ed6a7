package database

// Article is a persisted news article. URL is the natural key; a
// re-collected article with the same URL updates in place.
type Article struct {
	ID              int64   `json:"id"`
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	Source          string  `json:"source"`
	Region          string  `json:"region"`
	PublishedAt     *string `json:"published_at"`
	CollectedAt     string  `json:"collected_at"`
	RelevanceScore  int     `json:"relevance_score"`
	MatchedKeywords *string `json:"matched_keywords"`
	Category        *string `json:"category"`
	Excerpt         *string `json:"excerpt"`
	AISummary       *string `json:"ai_summary"`
	Notified        bool    `json:"notified"`
}

// DailySummary is one narrative + sentiment record per (date, region).
type DailySummary struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"` // YYYY-MM-DD
	Region       string `json:"region"`
	Summary      string `json:"summary"`
	Sentiment    string `json:"sentiment"` // positive, negative, neutral
	ArticleCount int    `json:"article_count"`
	CreatedAt    string `json:"created_at"`
}

// UpsertResult reports whether an upsert inserted a new row or updated
// an existing one.
type UpsertResult struct {
	ID       int64
	Inserted bool
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles  int            `json:"total_articles"`
	TotalSummaries int            `json:"total_summaries"`
	ByCategory     map[string]int `json:"by_category"`
	BySource       map[string]int `json:"by_source"`
	ByRegion       map[string]int `json:"by_region"`
}
