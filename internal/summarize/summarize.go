// Package summarize turns a day's persisted articles into one
// narrative + sentiment record per (date, region).
package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"econwatch/internal/database"
	"econwatch/internal/llm"
)

const dailySystemPrompt = `You are a financial news analyst. Your task:
1. Summarize the day's news in 1-3 concise lines.
2. Assess the overall impact on the stock market.
3. Reply with JSON in this format: {"summary": "...", "sentiment": "positive|negative|neutral"}

Sentiment criteria:
- positive: news likely to lift the market (growth, supportive policy, strong data)
- negative: news likely to weigh on the market (recession, high inflation, tightening, risk events)
- neutral: no clear or offsetting market impact`

// DailyResult is the outcome of aggregating one (date, region).
type DailyResult struct {
	Date         string
	Region       string
	Summary      string
	Sentiment    string
	ArticleCount int
	// Generated is false when there were no articles to summarize.
	// That is not an error; nothing is written in that case.
	Generated bool
}

// PairResult is one entry of a bulk aggregation run.
type PairResult struct {
	Date    string
	Region  string
	Skipped bool // no articles for the pair
	Err     error
}

// BatchResult collects bulk aggregation outcomes.
type BatchResult struct {
	Pairs     []PairResult
	Generated int
	Skipped   int
	Failed    int
}

// Aggregator builds daily summaries from persisted articles.
type Aggregator struct {
	db        *database.DB
	provider  llm.Provider
	regions   []string
	maxTokens int
}

// NewAggregator creates an Aggregator over the configured regions.
func NewAggregator(db *database.DB, provider llm.Provider, regions []string, maxTokens int) *Aggregator {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Aggregator{db: db, provider: provider, regions: regions, maxTokens: maxTokens}
}

// GenerateDaily summarizes one (date, region). When the day has no
// articles it returns Generated=false and performs no upsert.
// Generation-capability failures are returned to the caller.
func (a *Aggregator) GenerateDaily(ctx context.Context, date, region string) (*DailyResult, error) {
	articles, err := a.db.ArticlesByDateRegion(date, region)
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	if len(articles) == 0 {
		log.Printf("nothing to summarize for %s %s", date, region)
		return &DailyResult{Date: date, Region: region}, nil
	}

	if a.provider == nil {
		return nil, fmt.Errorf("no LLM provider available")
	}

	reply, err := a.provider.Generate(ctx, dailySystemPrompt, a.buildPrompt(date, region, articles), a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("empty reply from generation capability")
	}

	summary, sentiment := parseReply(reply)

	if _, err := a.db.UpsertDailySummary(database.DailySummary{
		Date:         date,
		Region:       region,
		Summary:      summary,
		Sentiment:    sentiment,
		ArticleCount: len(articles),
	}); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}

	log.Printf("daily summary for %s %s: %d articles, sentiment %s", date, region, len(articles), sentiment)
	return &DailyResult{
		Date:         date,
		Region:       region,
		Summary:      summary,
		Sentiment:    sentiment,
		ArticleCount: len(articles),
		Generated:    true,
	}, nil
}

// GenerateRecent aggregates the last `days` calendar days across all
// configured regions, sequentially. One pair's failure is recorded and
// the batch continues.
func (a *Aggregator) GenerateRecent(ctx context.Context, days int) *BatchResult {
	if days <= 0 {
		days = 7
	}

	now := time.Now().UTC()
	batch := &BatchResult{}
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		for _, region := range a.regions {
			result, err := a.GenerateDaily(ctx, date, region)
			pair := PairResult{Date: date, Region: region, Err: err}
			switch {
			case err != nil:
				log.Printf("summary for %s %s failed: %v", date, region, err)
				batch.Failed++
			case !result.Generated:
				pair.Skipped = true
				batch.Skipped++
			default:
				batch.Generated++
			}
			batch.Pairs = append(batch.Pairs, pair)
		}
	}

	log.Printf("bulk aggregation complete: %d generated, %d skipped, %d failed",
		batch.Generated, batch.Skipped, batch.Failed)
	return batch
}

func (a *Aggregator) buildPrompt(date, region string, articles []database.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s\nRegion: %s\nArticle count: %d\n\nArticles:\n", date, region, len(articles))
	for i, art := range articles {
		excerpt := "none"
		if art.AISummary != nil && *art.AISummary != "" {
			excerpt = *art.AISummary
		} else if art.Excerpt != nil && *art.Excerpt != "" {
			excerpt = *art.Excerpt
		}
		fmt.Fprintf(&sb, "%d. %s\n   Source: %s\n   Excerpt: %s\n\n", i+1, art.Title, art.Source, excerpt)
	}
	sb.WriteString("Summarize the news and assess the impact on the stock market.")
	return sb.String()
}

// parseReply extracts (summary, sentiment) from a model reply. The
// reply should be a JSON object, possibly inside a code fence; when it
// is not, the whole reply becomes the summary with neutral sentiment.
// The fallback is part of the contract: reply format is not guaranteed.
func parseReply(reply string) (summary, sentiment string) {
	parsed := llm.ParseJSONResponse(reply)
	if parsed == nil {
		return strings.TrimSpace(reply), "neutral"
	}

	summary = strings.TrimSpace(llm.GetString(parsed, "summary", ""))
	if summary == "" {
		summary = strings.TrimSpace(reply)
	}
	sentiment = normalizeSentiment(llm.GetString(parsed, "sentiment", "neutral"))
	return summary, sentiment
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	default:
		return "neutral"
	}
}
