package llm

import (
	"testing"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"summary": "X", "sentiment": "positive"}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["summary"] != "X" {
		t.Errorf("expected summary='X', got %v", result["summary"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"summary\": \"X\", \"sentiment\": \"positive\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["summary"] != "X" || result["sentiment"] != "positive" {
		t.Errorf("unexpected fields: %v", result)
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"summary\": \"X\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["summary"] != "X" {
		t.Errorf("expected summary='X', got %v", result["summary"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if result := ParseJSONResponse("markets were mixed today"); result != nil {
		t.Error("expected nil for prose reply")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	if result := ParseJSONResponse(""); result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONResponseWhitespace(t *testing.T) {
	result := ParseJSONResponse("  \n  {\"summary\": \"X\"}  \n  ")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["summary"] != "X" {
		t.Errorf("expected summary='X', got %v", result["summary"])
	}
}

func TestGetString(t *testing.T) {
	m := map[string]any{"a": "x", "n": 3.0}
	if got := GetString(m, "a", "d"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := GetString(m, "n", "d"); got != "d" {
		t.Errorf("non-string should fall back, got %q", got)
	}
	if got := GetString(m, "missing", "d"); got != "d" {
		t.Errorf("missing should fall back, got %q", got)
	}
}
