package feed

import (
	"regexp"
	"strconv"
	"strings"
)

// namedEntities is the fixed table of named character references that
// appear in the feeds we track, applied in order. &amp; goes last so a
// decoded ampersand cannot combine with trailing text into a second
// entity. Unknown named entities pass through.
var namedEntities = []struct{ entity, char string }{
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&apos;", "'"},
	{"&nbsp;", " "},
	{"&mdash;", "—"},
	{"&ndash;", "–"},
	{"&hellip;", "…"},
	{"&ldquo;", "“"},
	{"&rdquo;", "”"},
	{"&lsquo;", "‘"},
	{"&rsquo;", "’"},
	{"&amp;", "&"},
}

var (
	decimalEntityRe = regexp.MustCompile(`&#(\d+);`)
	hexEntityRe     = regexp.MustCompile(`&#[xX]([0-9A-Fa-f]+);`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
)

// DecodeEntities replaces the common named character references plus
// decimal (&#NNN;) and hexadecimal (&#xHH;) numeric references with
// their literal characters.
func DecodeEntities(text string) string {
	text = decimalEntityRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.ParseInt(m[2:len(m)-1], 10, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	text = hexEntityRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.ParseInt(m[3:len(m)-1], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})

	for _, e := range namedEntities {
		text = strings.ReplaceAll(text, e.entity, e.char)
	}

	return text
}

// StripTags removes anything matching an angle-bracket tag pattern and
// collapses consecutive whitespace to single spaces, then trims.
func StripTags(text string) string {
	text = tagRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// CleanText is the canonical normalization for feed descriptions:
// entities are decoded first, then tags are stripped. Decoding before
// stripping is deliberate; pick one order and keep it.
func CleanText(text string) string {
	return StripTags(DecodeEntities(text))
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
