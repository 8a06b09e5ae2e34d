package models

// Entity represents a generic store object (product, order, page, etc.)
// as returned by a platform API, kept as raw JSON fields.
type Entity map[string]interface{}

// Footprint is a plugin or theme detected on a store, either through
// authenticated introspection or from public page assets.
type Footprint struct {
	Type        string `json:"type"` // "plugin", "theme" or "mu-plugin"
	Slug        string `json:"slug"`
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`

	// Directory enrichment outcome: "resolved", "not_found", "lookup_error",
	// "skipped_mu_plugin", "skipped_non_directory_slug" or "missing_slug".
	DirectoryStatus string `json:"directory_status,omitempty"`
}

// ExtensionArtifact is a captured plugin or theme bundle on disk.
type ExtensionArtifact struct {
	Slug       string `json:"slug"`
	Type       string `json:"type"` // "plugin" or "theme"
	BundlePath string `json:"bundle_path"`
}

// CrawlSummary reports what the public footprint crawl actually processed.
type CrawlSummary struct {
	ProcessedPageCount   int   `json:"processed_page_count"`
	TotalBytesDownloaded int64 `json:"total_bytes_downloaded"`
	PageLimitReached     bool  `json:"page_limit_reached"`
	ByteLimitReached     bool  `json:"byte_limit_reached"`
}
