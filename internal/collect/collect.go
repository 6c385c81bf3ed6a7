// Package collect orchestrates one collection pass across all
// configured sources: fetch, parse, normalize, classify.
package collect

import (
	"context"
	"log"
	"time"

	"econwatch/internal/classify"
	"econwatch/internal/config"
	"econwatch/internal/feed"
)

// Candidate is a scored, classified article produced by one collection
// pass. It is transient: the persistence layer decides insert vs update
// by URL.
type Candidate struct {
	Title           string
	URL             string
	Source          string
	Region          string
	Published       *time.Time
	Score           int
	MatchedKeywords []string
	Category        string
	Excerpt         string
}

// Collector runs the fetch-parse-classify pipeline over every source
// that has a feed URL.
type Collector struct {
	cfg      *config.Config
	fetcher  *feed.Fetcher
	parser   *feed.Parser
	resolver *classify.RegionResolver
}

// New creates a Collector from the region configuration.
func New(cfg *config.Config) *Collector {
	return &Collector{
		cfg:      cfg,
		fetcher:  feed.NewFetcher(time.Duration(cfg.Collect.TimeoutSeconds) * time.Second),
		parser:   feed.NewParser(),
		resolver: classify.NewRegionResolver(cfg),
	}
}

// Collect gathers relevant candidate articles from all configured
// sources, in source-iteration order. A failure in one source is
// logged and contributes zero articles; it never aborts the pass.
// Sources without a feed URL are skipped without being fetched.
func (c *Collector) Collect(ctx context.Context) []Candidate {
	log.Println("starting news collection")

	var all []Candidate
	for _, region := range c.cfg.Regions {
		for _, src := range region.Sources {
			if src.RSS == "" {
				log.Printf("skipping %s (no feed URL)", src.Name)
				continue
			}

			candidates, err := c.collectSource(ctx, region, src)
			if err != nil {
				log.Printf("source %s failed: %v", src.Name, err)
				continue
			}
			log.Printf("found %d relevant articles from %s", len(candidates), src.Name)
			all = append(all, candidates...)
		}
	}

	log.Printf("collection complete: %d articles total", len(all))
	return all
}

func (c *Collector) collectSource(ctx context.Context, region config.Region, src config.Source) ([]Candidate, error) {
	raw, err := c.fetcher.Fetch(ctx, src.RSS)
	if err != nil {
		return nil, err
	}

	items, err := c.parser.Parse(string(raw))
	if err != nil {
		return nil, err
	}

	// The resolver answers from the same tables we are iterating, so
	// this region is also the one whose keywords score the item. The
	// annotation below is the single resolution point; nothing
	// downstream re-resolves.
	resolved := c.resolver.Resolve(src.Name)

	var candidates []Candidate
	for _, item := range items {
		title := feed.DecodeEntities(item.Title)
		description := feed.CleanText(item.Description)

		matched := classify.MatchKeywords(title+" "+description, region.Keywords)
		if len(matched) == 0 {
			continue
		}

		candidates = append(candidates, Candidate{
			Title:           title,
			URL:             item.Link,
			Source:          src.Name,
			Region:          resolved,
			Published:       item.Published,
			Score:           len(matched),
			MatchedKeywords: matched,
			Category:        classify.Categorize(matched, region.Categories),
			Excerpt:         feed.Truncate(description, c.cfg.Collect.ExcerptLimit),
		})
	}
	return candidates, nil
}
