package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.OutputRoot != "./migrations" {
		t.Errorf("OutputRoot = %q, want ./migrations", cfg.OutputRoot)
	}
	if cfg.Source.Platform != "woocommerce" {
		t.Errorf("Source.Platform = %q, want woocommerce", cfg.Source.Platform)
	}
	if cfg.Retry.BaseDelay != 500*time.Millisecond {
		t.Errorf("Retry.BaseDelay = %v, want 500ms", cfg.Retry.BaseDelay)
	}
	if cfg.Directory.LookupDelay != time.Second {
		t.Errorf("Directory.LookupDelay = %v, want 1s", cfg.Directory.LookupDelay)
	}
	if !cfg.Exports.Products || !cfg.Exports.CSV {
		t.Error("unset exports should default to all enabled")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
listen: ":9000"
source:
  platform: storefront
  base_url: https://shop.example.com
  admin_token: tok123
exports:
  products: true
  csv: true
footprint:
  max_pages: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q, want :9000", cfg.Listen)
	}
	if cfg.Source.Platform != "storefront" {
		t.Errorf("Source.Platform = %q, want storefront", cfg.Source.Platform)
	}
	if cfg.Source.AdminToken != "tok123" {
		t.Errorf("Source.AdminToken = %q, want tok123", cfg.Source.AdminToken)
	}
	if cfg.Footprint.MaxPages != 50 {
		t.Errorf("Footprint.MaxPages = %d, want 50", cfg.Footprint.MaxPages)
	}
	// Explicit exports are kept as-is, not expanded to all.
	if cfg.Exports.Orders {
		t.Error("Exports.Orders should stay false when exports are set explicitly")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"75", 75},
		{" 10 ", 10},
		{"0", 0},
		{"-5", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		var logged []string
		got := ParseLimit(tt.in, func(s string) { logged = append(logged, s) })
		if got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseLimit_WarnsOnInvalid(t *testing.T) {
	var logged []string
	ParseLimit("abc", func(s string) { logged = append(logged, s) })
	if len(logged) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(logged))
	}
}
