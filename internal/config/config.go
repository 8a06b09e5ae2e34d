package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes the store being migrated from.
type SourceConfig struct {
	// Platform selects the fetch capability set: "woocommerce" (store catalog
	// API + WordPress REST) or "storefront" (storefront API with admin token).
	Platform string `yaml:"platform"`
	BaseURL  string `yaml:"base_url"`

	// WooCommerce REST credentials.
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`

	// WordPress REST credentials (application password).
	WPUsername    string `yaml:"wp_username"`
	WPAppPassword string `yaml:"wp_app_password"`

	// Storefront API admin token.
	AdminToken string `yaml:"admin_token"`

	Insecure bool `yaml:"insecure"` // skip TLS verification
}

// HasWooCredentials reports whether store catalog API credentials are set.
func (s *SourceConfig) HasWooCredentials() bool {
	return s.ConsumerKey != "" && s.ConsumerSecret != ""
}

// HasWPCredentials reports whether WordPress REST credentials are set.
func (s *SourceConfig) HasWPCredentials() bool {
	return s.WPUsername != "" && s.WPAppPassword != ""
}

// ExportFlags selects which optional stages run.
type ExportFlags struct {
	Products      bool `yaml:"products"`
	Variations    bool `yaml:"variations"`
	Plugins       bool `yaml:"plugins"`
	Themes        bool `yaml:"themes"`
	Footprints    bool `yaml:"footprints"` // public, unauthenticated detection
	Design        bool `yaml:"design"`
	Pages         bool `yaml:"pages"`
	Posts         bool `yaml:"posts"`
	Media         bool `yaml:"media"`
	Menus         bool `yaml:"menus"`
	Widgets       bool `yaml:"widgets"`
	Settings      bool `yaml:"settings"`
	Shipping      bool `yaml:"shipping"`
	Gateways      bool `yaml:"gateways"`
	Customers     bool `yaml:"customers"`
	Orders        bool `yaml:"orders"`
	Coupons       bool `yaml:"coupons"`
	Subscriptions bool `yaml:"subscriptions"`
	CSV           bool `yaml:"csv"`
	JSONL         bool `yaml:"jsonl"`
	XLSX          bool `yaml:"xlsx"`
}

// AllExports returns flags with every export enabled.
func AllExports() ExportFlags {
	return ExportFlags{
		Products: true, Variations: true, Plugins: true, Themes: true,
		Footprints: true, Design: true, Pages: true, Posts: true,
		Media: true, Menus: true, Widgets: true, Settings: true,
		Shipping: true, Gateways: true, Customers: true, Orders: true,
		Coupons: true, Subscriptions: true, CSV: true, JSONL: true,
	}
}

// RetryConfig bounds per-call retries. Attempts of 0 disables retries.
type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// FilterConfig restricts the catalog fetch to category/tag subsets.
type FilterConfig struct {
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
}

// FootprintConfig bounds the public footprint crawl.
type FootprintConfig struct {
	ExtraURLs []string `yaml:"extra_urls"`
	MaxPages  int      `yaml:"max_pages"` // 0 = unlimited
	MaxBytes  int64    `yaml:"max_bytes"` // 0 = unlimited
}

// DirectoryConfig controls the plugin/theme directory enrichment phase.
type DirectoryConfig struct {
	LookupDelay time.Duration `yaml:"lookup_delay"`
}

// TargetConfig describes a store to provision during replay.
type TargetConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	WPUsername     string `yaml:"wp_username"`
	WPAppPassword  string `yaml:"wp_app_password"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen     string          `yaml:"listen"`
	OutputRoot string          `yaml:"output_root"`
	Source     SourceConfig    `yaml:"source"`
	Target     TargetConfig    `yaml:"target"`
	Exports    ExportFlags     `yaml:"exports"`
	Retry      RetryConfig     `yaml:"retry"`
	Filters    FilterConfig    `yaml:"filters"`
	Footprint  FootprintConfig `yaml:"footprint"`
	Directory  DirectoryConfig `yaml:"directory"`
}

// Load reads a YAML config file and applies defaults for anything unset.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults fills in anything still unset.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.OutputRoot == "" {
		c.OutputRoot = "./migrations"
	}
	if c.Source.Platform == "" {
		c.Source.Platform = "woocommerce"
	}
	if c.Exports == (ExportFlags{}) {
		c.Exports = AllExports()
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
	if c.Directory.LookupDelay == 0 {
		c.Directory.LookupDelay = time.Second
	}
}

// ParseLimit parses a numeric limit entered by a user. Invalid or negative
// input falls back to 0 (unlimited) with a warning, never an error.
func ParseLimit(s string, logger func(string)) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		if logger != nil {
			logger(fmt.Sprintf("  WARNING: invalid limit %q, using unlimited", s))
		}
		return 0
	}
	return n
}
