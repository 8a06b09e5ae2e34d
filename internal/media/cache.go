// Package media provides the run-scoped download cache: each distinct
// source URL is materialized to a local file exactly once per run.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/storeport/storeport/internal/models"
)

// Reference is a resolved media file. Within a run, each distinct source
// URL maps to exactly one Reference; consumers hold only the relative path.
type Reference struct {
	SourceURL    string `json:"source_url"`
	RelativePath string `json:"relative_path"`
	AbsolutePath string `json:"absolute_path"`
}

// Downloader fetches a raw URL, returning body and content type.
type Downloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Cache deduplicates downloads by exact URL string. It is run-scoped and
// single-owner: the orchestrator is the only writer, stages never overlap,
// so no locking is needed.
type Cache struct {
	client Downloader
	refs   map[string]*Reference
	logger func(string)
}

// NewCache creates an empty run-scoped cache.
func NewCache(client Downloader, logger func(string)) *Cache {
	return &Cache{
		client: client,
		refs:   make(map[string]*Reference),
		logger: logger,
	}
}

// Resolve returns the Reference for a URL, downloading it into root/subdir
// on first sight. A failed download returns nil and is NOT cached, so a
// later reference to the same URL retries; successes are permanent.
func (c *Cache) Resolve(ctx context.Context, rawURL, root, subdir string) *Reference {
	if rawURL == "" {
		return nil
	}
	if ref, ok := c.refs[rawURL]; ok {
		return ref
	}

	body, contentType, err := c.client.Download(ctx, rawURL)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: media download failed for %s: %v", rawURL, err))
		return nil
	}

	relPath := filepath.Join(subdir, Filename(rawURL, contentType))
	ref, err := c.store(rawURL, root, relPath, body)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: writing media file for %s: %v", rawURL, err))
		return nil
	}
	return ref
}

// ResolveLibraryItem resolves a WordPress media library item. When the
// source URL carries the server-assigned upload-date folder (uploads/YYYY/MM),
// the relative path mirrors that structure instead of the flat hash scheme.
// Deduplication is still by URL through the same cache map.
func (c *Cache) ResolveLibraryItem(ctx context.Context, item models.Entity, root string) *Reference {
	rawURL, _ := item["source_url"].(string)
	if rawURL == "" {
		return nil
	}
	if ref, ok := c.refs[rawURL]; ok {
		return ref
	}

	body, contentType, err := c.client.Download(ctx, rawURL)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: media download failed for %s: %v", rawURL, err))
		return nil
	}

	var relPath string
	if year, month, ok := uploadDateFolder(rawURL); ok {
		relPath = filepath.Join("media", year, month, path.Base(mustPath(rawURL)))
	} else {
		relPath = filepath.Join("media", Filename(rawURL, contentType))
	}
	ref, err := c.store(rawURL, root, relPath, body)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: writing media file for %s: %v", rawURL, err))
		return nil
	}
	return ref
}

// Len returns the number of cached references.
func (c *Cache) Len() int {
	return len(c.refs)
}

// References returns all cached references.
func (c *Cache) References() []*Reference {
	refs := make([]*Reference, 0, len(c.refs))
	for _, r := range c.refs {
		refs = append(refs, r)
	}
	return refs
}

func (c *Cache) store(rawURL, root, relPath string, body []byte) (*Reference, error) {
	absPath := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(absPath, body, 0644); err != nil {
		return nil, err
	}
	ref := &Reference{SourceURL: rawURL, RelativePath: relPath, AbsolutePath: absPath}
	c.refs[rawURL] = ref
	return ref, nil
}

// Filename derives a unique, filesystem-safe file name for a URL: the
// sanitized path stem, a short deterministic URL hash, and an extension
// from the URL path or the content-type fallback table.
func Filename(rawURL, contentType string) string {
	p := mustPath(rawURL)
	base := path.Base(p)
	ext := path.Ext(base)
	stem := models.SanitizeToken(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = "media"
	}
	if ext == "" || len(ext) > 6 {
		ext = extensionFor(contentType)
	}
	return fmt.Sprintf("%s_%s%s", stem, ShortHash(rawURL), strings.ToLower(ext))
}

// ShortHash returns the first 8 hex characters of the SHA-256 of s.
func ShortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:8]
}

// contentTypeExt maps content types to extensions for URLs without one.
var contentTypeExt = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/x-icon":  ".ico",
	"text/css":      ".css",
	"font/woff":     ".woff",
	"font/woff2":    ".woff2",
	"font/ttf":      ".ttf",
	"application/pdf": ".pdf",
}

func extensionFor(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if ext, ok := contentTypeExt[strings.TrimSpace(contentType)]; ok {
		return ext
	}
	return ".bin"
}

// uploadDateFolder extracts the uploads/YYYY/MM hint from a media URL path.
func uploadDateFolder(rawURL string) (year, month string, ok bool) {
	segs := strings.Split(mustPath(rawURL), "/")
	for i, s := range segs {
		if s == "uploads" && i+2 < len(segs) {
			y, m := segs[i+1], segs[i+2]
			if len(y) == 4 && len(m) == 2 && isDigits(y) && isDigits(m) {
				return y, m, true
			}
		}
	}
	return "", "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func mustPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
