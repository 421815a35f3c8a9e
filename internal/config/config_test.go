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

	if len(cfg.Products) != 3 {
		t.Errorf("expected 3 products, got %d", len(cfg.Products))
	}
	if cfg.Products[0].Name != "Elden Ring" || cfg.Products[0].AppID != 1245620 {
		t.Errorf("unexpected first product: %+v", cfg.Products[0])
	}
	if cfg.Steam.PageSize != 100 {
		t.Errorf("expected page_size 100, got %d", cfg.Steam.PageSize)
	}
	if cfg.Analysis.Version != "hybrid_v2" {
		t.Errorf("expected version 'hybrid_v2', got %q", cfg.Analysis.Version)
	}
	if cfg.Analysis.LexiconOverrides["peak"] != 4.0 {
		t.Errorf("expected 'peak' override 4.0, got %v", cfg.Analysis.LexiconOverrides["peak"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
products:
  - name: "Test Game"
    app_id: 42
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Steam.Filter != "recent" {
		t.Errorf("expected default filter 'recent', got %q", cfg.Steam.Filter)
	}
	if cfg.Analysis.TargetLanguage != "en" {
		t.Errorf("expected default target_language 'en', got %q", cfg.Analysis.TargetLanguage)
	}
	if cfg.Analysis.ShortTextLimit != 20 {
		t.Errorf("expected default short_text_limit 20, got %d", cfg.Analysis.ShortTextLimit)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"no products", `steam: {page_size: 50}`},
		{"missing app_id", "products:\n  - name: Game"},
		{"missing name", "products:\n  - app_id: 42"},
		{"page size too large", "products:\n  - {name: Game, app_id: 42}\nsteam: {page_size: 500}"},
		{"zero target count", "products:\n  - {name: Game, app_id: 42}\nsteam: {reviews_per_product: 0}"},
		{"zero short text limit", "products:\n  - {name: Game, app_id: 42}\nanalysis: {short_text_limit: 0}"},
		{"negative short text limit", "products:\n  - {name: Game, app_id: 42}\nanalysis: {short_text_limit: -5}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parse([]byte(tc.data))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Products) == 0 {
		t.Error("expected products to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
