package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleArticle(url string) NewArticle {
	pub := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	return NewArticle{
		URL:             url,
		Title:           "Fed cuts rates",
		Source:          "BBC Business",
		Region:          "us",
		PublishedAt:     &pub,
		RelevanceScore:  2,
		MatchedKeywords: "fed, interest rate",
		Category:        "Banking & Finance",
		Excerpt:         "The Fed cut rates today.",
	}
}

func countArticles(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestUpsertArticleInsertThenUpdate(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertArticle(sampleArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !first.Inserted {
		t.Error("first upsert should insert")
	}

	stored, _ := db.GetArticleByID(first.ID)
	if stored == nil {
		t.Fatal("expected stored article")
	}
	originalCollected := stored.CollectedAt

	// Give the row an AI summary, then re-collect with different scoring.
	if err := db.UpdateArticleAISummary(first.ID, "short AI take"); err != nil {
		t.Fatalf("update summary: %v", err)
	}

	again := sampleArticle("https://example.com/a")
	again.RelevanceScore = 5
	again.MatchedKeywords = "fed, interest rate, treasury"
	again.Category = "Interest Rates"
	again.Region = "china"

	second, err := db.UpsertArticle(again)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Inserted {
		t.Error("second upsert should update, not insert")
	}
	if second.ID != first.ID {
		t.Errorf("expected same row id, got %d and %d", first.ID, second.ID)
	}
	if n := countArticles(t, db); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}

	updated, _ := db.GetArticleByID(first.ID)
	if updated.RelevanceScore != 5 {
		t.Errorf("score not updated: %d", updated.RelevanceScore)
	}
	if updated.Category == nil || *updated.Category != "Interest Rates" {
		t.Errorf("category not updated: %v", updated.Category)
	}
	if updated.Region != "china" {
		t.Errorf("region not updated: %q", updated.Region)
	}
	if updated.MatchedKeywords == nil || *updated.MatchedKeywords != "fed, interest rate, treasury" {
		t.Errorf("keywords not updated: %v", updated.MatchedKeywords)
	}
	if updated.CollectedAt != originalCollected {
		t.Errorf("collected_at must be preserved: %q vs %q", updated.CollectedAt, originalCollected)
	}
	if updated.AISummary == nil || *updated.AISummary != "short AI take" {
		t.Errorf("ai_summary must be preserved: %v", updated.AISummary)
	}
}

func TestArticlesByDateRegionOrdering(t *testing.T) {
	db := openTestDB(t)

	low := sampleArticle("https://example.com/low")
	low.RelevanceScore = 1
	high := sampleArticle("https://example.com/high")
	high.RelevanceScore = 7
	other := sampleArticle("https://example.com/other")
	other.Region = "china"

	for _, a := range []NewArticle{low, high, other} {
		if _, err := db.UpsertArticle(a); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := db.ArticlesByDateRegion(Today(), "us")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 us articles, got %d", len(got))
	}
	if got[0].URL != "https://example.com/high" || got[1].URL != "https://example.com/low" {
		t.Errorf("expected descending relevance order, got %q then %q", got[0].URL, got[1].URL)
	}

	none, err := db.ArticlesByDateRegion("1999-01-01", "us")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no articles for old date, got %d", len(none))
	}
}

func TestListArticlesByCategory(t *testing.T) {
	db := openTestDB(t)

	a := sampleArticle("https://example.com/a")
	b := sampleArticle("https://example.com/b")
	b.Category = "Gold"
	db.UpsertArticle(a)
	db.UpsertArticle(b)

	gold, err := db.ListArticles("Gold", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(gold) != 1 || gold[0].URL != "https://example.com/b" {
		t.Errorf("unexpected category filter result: %+v", gold)
	}

	all, err := db.ListArticles("", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 articles, got %d", len(all))
	}
}

func TestUpsertDailySummaryIdempotent(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertDailySummary(DailySummary{
		Date: "2026-03-10", Region: "us",
		Summary: "Calm day.", Sentiment: "neutral", ArticleCount: 3,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !first.Inserted {
		t.Error("first upsert should insert")
	}

	second, err := db.UpsertDailySummary(DailySummary{
		Date: "2026-03-10", Region: "us",
		Summary: "Markets rallied.", Sentiment: "positive", ArticleCount: 5,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Inserted {
		t.Error("second upsert should update")
	}

	var n int
	db.conn.QueryRow("SELECT COUNT(*) FROM daily_summaries").Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 summary row, got %d", n)
	}

	got, _ := db.GetDailySummary("2026-03-10", "us")
	if got == nil {
		t.Fatal("expected summary")
	}
	if got.Summary != "Markets rallied." || got.Sentiment != "positive" || got.ArticleCount != 5 {
		t.Errorf("stale summary after upsert: %+v", got)
	}

	// A different region on the same date is its own row.
	db.UpsertDailySummary(DailySummary{
		Date: "2026-03-10", Region: "china",
		Summary: "Quiet.", Sentiment: "neutral", ArticleCount: 1,
	})
	db.conn.QueryRow("SELECT COUNT(*) FROM daily_summaries").Scan(&n)
	if n != 2 {
		t.Errorf("expected 2 summary rows, got %d", n)
	}
}

func TestDailySummariesByDateRange(t *testing.T) {
	db := openTestDB(t)

	for _, d := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		db.UpsertDailySummary(DailySummary{
			Date: d, Region: "us", Summary: "s", Sentiment: "neutral",
		})
	}

	got, err := db.DailySummariesByDateRange("2026-03-09", "2026-03-10")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Date != "2026-03-10" {
		t.Errorf("expected newest first, got %q", got[0].Date)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.UpsertArticle(sampleArticle("https://example.com/a"))
	db.UpsertArticle(sampleArticle("https://example.com/b"))

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalArticles != 2 {
		t.Errorf("expected 2 articles, got %d", stats.TotalArticles)
	}
	if stats.BySource["BBC Business"] != 2 {
		t.Errorf("unexpected source counts: %v", stats.BySource)
	}
	if stats.ByRegion["us"] != 2 {
		t.Errorf("unexpected region counts: %v", stats.ByRegion)
	}
}
