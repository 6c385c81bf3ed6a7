package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if got := cfg.RegionNames(); len(got) != 3 || got[0] != "vietnam" || got[1] != "us" || got[2] != "china" {
		t.Errorf("unexpected region order: %v", got)
	}

	if cfg.DefaultRegion != "vietnam" {
		t.Errorf("expected default_region 'vietnam', got %q", cfg.DefaultRegion)
	}

	vn := cfg.Region("vietnam")
	if vn == nil {
		t.Fatal("expected vietnam region")
	}
	if len(vn.Sources) == 0 || len(vn.Keywords) == 0 {
		t.Error("expected vietnam sources and keywords to be populated")
	}
	if len(vn.Categories) == 0 || vn.Categories[0].Name != "Margin Lending" {
		t.Errorf("expected first vietnam category 'Margin Lending', got %+v", vn.Categories)
	}

	// The inert source keeps its slot but has no feed URL.
	var inert bool
	for _, s := range vn.Sources {
		if s.RSS == "" {
			inert = true
		}
	}
	if !inert {
		t.Error("expected at least one source without a feed URL in defaults")
	}

	if cfg.Collect.IntervalMinutes != 60 {
		t.Errorf("expected 60 minute interval, got %d", cfg.Collect.IntervalMinutes)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
summarization:
  provider: openai
  model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Summarization.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Summarization.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields.
	if cfg.Summarization.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Summarization.OllamaURL)
	}
	if cfg.Collect.ExcerptLimit != 500 {
		t.Errorf("expected default excerpt_limit 500, got %d", cfg.Collect.ExcerptLimit)
	}
}

func TestParseRejectsUnknownDefaultRegion(t *testing.T) {
	data := []byte(`
default_region: mars
regions:
  - name: vietnam
`)
	if _, err := parse(data); err == nil {
		t.Error("expected error for default_region not in regions")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Regions) != 3 {
		t.Errorf("expected 3 regions, got %d", len(cfg.Regions))
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load embedded defaults: %v", err)
	}
	if cfg.Region("us") == nil {
		t.Error("expected embedded defaults to define the us region")
	}
}
