// Package feed fetches syndication feeds and extracts item records
// from their markup.
package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one entry extracted from a feed. Title and Link are always
// non-empty; Published may be nil when the feed omits or mangles the
// publication timestamp. Description is raw markup, not yet normalized.
type Item struct {
	Title       string
	Link        string
	Published   *time.Time
	Description string
}

// Parser extracts item sequences from raw feed markup.
type Parser struct {
	inner *gofeed.Parser
}

// NewParser creates a feed Parser.
func NewParser() *Parser {
	return &Parser{inner: gofeed.NewParser()}
}

// Parse extracts items from raw syndication markup. CDATA-wrapped and
// plain text fields are both accepted. Items with an empty title or
// link after trimming are dropped silently. A malformed tail yields
// whatever complete items precede it rather than failing the feed.
func (p *Parser) Parse(raw string) ([]Item, error) {
	parsed, err := p.inner.ParseString(raw)
	if err != nil {
		salvaged, ok := salvage(raw)
		if !ok {
			return nil, err
		}
		parsed, err = p.inner.ParseString(salvaged)
		if err != nil {
			return nil, err
		}
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = strings.TrimSpace(it.GUID)
		}
		if title == "" || link == "" {
			continue
		}

		var published *time.Time
		if it.PublishedParsed != nil {
			published = it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			published = it.UpdatedParsed
		}

		items = append(items, Item{
			Title:       title,
			Link:        link,
			Published:   published,
			Description: it.Description,
		})
	}
	return items, nil
}

// salvage truncates markup after the last complete </item> and closes
// the document, so a feed cut off mid-transfer still yields its
// complete items.
func salvage(raw string) (string, bool) {
	idx := strings.LastIndex(raw, "</item>")
	if idx < 0 {
		return "", false
	}
	return raw[:idx+len("</item>")] + "</channel></rss>", true
}
