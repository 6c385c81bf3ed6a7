package summarize

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"econwatch/internal/database"
	"econwatch/internal/feed"
	"econwatch/internal/llm"
)

const articleSystemPrompt = `You are a financial news analyst. Summarize the article in 2-3 sentences, focusing on facts and market relevance. Reply with plain text only.`

// maxArticleChars bounds how much page text goes into the prompt.
const maxArticleChars = 6000

// ArticleSummarizer produces a stored AI summary for one article by
// fetching its page and extracting the readable body.
type ArticleSummarizer struct {
	db       *database.DB
	provider llm.Provider
	client   *http.Client
}

func NewArticleSummarizer(db *database.DB, provider llm.Provider) *ArticleSummarizer {
	return &ArticleSummarizer{
		db:       db,
		provider: provider,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Summarize fetches the article page, extracts its text and stores a
// short generated summary on the article row. It returns the summary.
func (s *ArticleSummarizer) Summarize(ctx context.Context, articleID int64) (string, error) {
	article, err := s.db.GetArticleByID(articleID)
	if err != nil {
		return "", fmt.Errorf("loading article %d: %w", articleID, err)
	}
	if article == nil {
		return "", fmt.Errorf("article %d not found", articleID)
	}
	if s.provider == nil {
		return "", fmt.Errorf("no LLM provider available")
	}

	text, err := s.extract(ctx, article.URL)
	if err != nil {
		// The page may be paywalled or gone; the feed excerpt still
		// gives the model something to work with.
		log.Printf("extracting %s failed, falling back to excerpt: %v", article.URL, err)
		if article.Excerpt == nil || *article.Excerpt == "" {
			return "", fmt.Errorf("extracting article text: %w", err)
		}
		text = *article.Excerpt
	}

	prompt := fmt.Sprintf("Title: %s\nSource: %s\n\n%s", article.Title, article.Source, text)
	reply, err := s.provider.Generate(ctx, articleSystemPrompt, prompt, 256)
	if err != nil {
		return "", fmt.Errorf("generating article summary: %w", err)
	}
	summary := strings.TrimSpace(reply)
	if summary == "" {
		return "", fmt.Errorf("empty reply from generation capability")
	}

	if err := s.db.UpdateArticleAISummary(articleID, summary); err != nil {
		return "", fmt.Errorf("saving article summary: %w", err)
	}
	return summary, nil
}

func (s *ArticleSummarizer) extract(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", feed.BrowserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	text := ""
	if parsed, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		text = strings.TrimSpace(parsed.TextContent)
	}
	if text == "" {
		// Readability found no article body; crude tag stripping is
		// better than nothing.
		text = feed.CleanText(string(body))
	}
	if text == "" {
		return "", fmt.Errorf("no readable text")
	}
	return feed.Truncate(text, maxArticleChars), nil
}
