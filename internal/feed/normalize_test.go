package feed

import "testing"

func TestDecodeEntitiesNamed(t *testing.T) {
	got := DecodeEntities("Tom &amp; Jerry &#39;s")
	if got != "Tom & Jerry 's" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeEntitiesNumeric(t *testing.T) {
	cases := []struct{ in, want string }{
		{"&#65;BC", "ABC"},
		{"&#x41;BC", "ABC"},
		{"caf&#233;", "café"},
		{"&#x2F;path", "/path"},
	}
	for _, c := range cases {
		if got := DecodeEntities(c.in); got != c.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeEntitiesUnknownPassesThrough(t *testing.T) {
	if got := DecodeEntities("a &copy; b"); got != "a &copy; b" {
		t.Errorf("unknown entity changed: %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<b>Hi</b>   there"); got != "Hi there" {
		t.Errorf("got %q", got)
	}
	if got := StripTags("<p>one</p>\n<p>two</p>"); got != "one two" {
		t.Errorf("got %q", got)
	}
}

func TestCleanTextDecodesThenStrips(t *testing.T) {
	in := `<a href="x">Rates &amp; Bonds</a> &#8212; daily`
	want := "Rates & Bonds — daily"
	if got := CleanText(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 3); got != "hel" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("got %q", got)
	}
	// Rune-safe truncation.
	if got := Truncate("tỷ giá", 4); got != "tỷ g" {
		t.Errorf("got %q", got)
	}
}
