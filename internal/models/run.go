package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Run identifies one execution of the migration pipeline against one store.
// It is created at run start and discarded at run end, never persisted.
type Run struct {
	SourceURL  string
	StoreID    string
	OutputRoot string
	Timestamp  string // UTC token used in every generated filename
}

// NewRun derives a Run from the source URL. The store id is built from the
// URL host plus path segments, each sanitized to a filesystem-safe token.
// Re-running the same store yields the same id; the timestamp disambiguates
// file names within the shared folder.
func NewRun(sourceURL, outputRoot string) *Run {
	return &Run{
		SourceURL:  sourceURL,
		StoreID:    DeriveStoreID(sourceURL),
		OutputRoot: outputRoot,
		Timestamp:  time.Now().UTC().Format("20060102-150405"),
	}
}

// FilePrefix returns the "{storeId}_{timestamp}" prefix shared by every
// generated file of this run.
func (r *Run) FilePrefix() string {
	return fmt.Sprintf("%s_%s", r.StoreID, r.Timestamp)
}

// DeriveStoreID sanitizes a store URL into a filesystem-safe identifier.
func DeriveStoreID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return SanitizeToken(rawURL)
	}
	parts := []string{SanitizeToken(u.Host)}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		parts = append(parts, SanitizeToken(seg))
	}
	return strings.Join(parts, "_")
}

// SanitizeToken replaces anything outside [a-z0-9-] with hyphens and trims
// leading/trailing hyphens, lowercasing the input first.
func SanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
