// Package design captures a snapshot of a store's public design assets:
// stylesheets, fonts, images and icons, with a content-hashed manifest.
package design

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/storeport/storeport/internal/media"
)

// ManifestEntry describes one captured design asset.
type ManifestEntry struct {
	Type        string `json:"type"` // "stylesheet", "font", "image", "icon"
	File        string `json:"file"`
	SourceURL   string `json:"source_url"`
	ResolvedURL string `json:"resolved_url"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentHash string `json:"content_hash"`
	Rel         string `json:"rel,omitempty"`   // icons: link rel value
	Media       string `json:"media,omitempty"` // stylesheets: media attr
}

// Manifest is the design snapshot index written to design/manifest.json.
type Manifest struct {
	BaseURL string          `json:"base_url"`
	Entries []ManifestEntry `json:"entries"`
}

// Downloader fetches a raw URL, returning body and content type.
type Downloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, string, error)
}

var cssURLRe = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// Capture downloads the storefront's design assets under storeDir/design.
// Individual asset failures are logged and skipped; the capture only fails
// as a whole when the homepage itself cannot be fetched.
func Capture(ctx context.Context, client Downloader, baseURL, storeDir string, logger func(string)) (*Manifest, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	page, _, err := client.Download(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching homepage: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing homepage: %w", err)
	}

	cap := &capture{
		client:   client,
		base:     base,
		storeDir: storeDir,
		logger:   logger,
		manifest: &Manifest{BaseURL: baseURL},
		files:    make(map[string]bool),
	}

	refs := extractAssetRefs(doc)
	for _, ref := range refs {
		switch ref.kind {
		case "stylesheet":
			cap.captureStylesheet(ctx, ref)
		case "icon":
			cap.capture(ctx, "icon", ref, "design/icons")
		case "image":
			cap.capture(ctx, "image", ref, "design/assets")
		}
	}

	if err := cap.writeManifest(); err != nil {
		return nil, err
	}
	logger(fmt.Sprintf("  %d design assets captured", len(cap.manifest.Entries)))
	return cap.manifest, nil
}

type assetRef struct {
	kind  string // "stylesheet", "icon", "image"
	url   string
	rel   string
	media string
}

type capture struct {
	client   Downloader
	base     *url.URL
	storeDir string
	logger   func(string)
	manifest *Manifest
	files    map[string]bool
}

// capture downloads one asset and records a manifest entry. File names are
// unique by construction: a hash over (prefix, index, url-or-seed) is
// appended, so an existing file is never overwritten.
func (c *capture) capture(ctx context.Context, entryType string, ref assetRef, subdir string) *ManifestEntry {
	resolved := c.resolve(ref.url)
	if resolved == "" {
		return nil
	}
	body, contentType, err := c.client.Download(ctx, resolved)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: design asset skipped %s: %v", resolved, err))
		return nil
	}

	idx := len(c.manifest.Entries)
	name := c.uniqueName(entryType, idx, resolved, contentType)
	relPath := filepath.Join(subdir, name)
	absPath := filepath.Join(c.storeDir, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		c.logger(fmt.Sprintf("  WARNING: design asset skipped %s: %v", resolved, err))
		return nil
	}
	if err := os.WriteFile(absPath, body, 0644); err != nil {
		c.logger(fmt.Sprintf("  WARNING: design asset skipped %s: %v", resolved, err))
		return nil
	}

	sum := sha256.Sum256(body)
	entry := ManifestEntry{
		Type:        entryType,
		File:        relPath,
		SourceURL:   ref.url,
		ResolvedURL: resolved,
		ContentType: contentType,
		SizeBytes:   int64(len(body)),
		ContentHash: hex.EncodeToString(sum[:]),
		Rel:         ref.rel,
		Media:       ref.media,
	}
	c.manifest.Entries = append(c.manifest.Entries, entry)
	return &c.manifest.Entries[len(c.manifest.Entries)-1]
}

// captureStylesheet downloads a stylesheet, then captures the fonts it
// references through @font-face url() declarations.
func (c *capture) captureStylesheet(ctx context.Context, ref assetRef) {
	entry := c.capture(ctx, "stylesheet", ref, "design/assets")
	if entry == nil {
		return
	}
	absPath := filepath.Join(c.storeDir, entry.File)
	css, err := os.ReadFile(absPath)
	if err != nil {
		return
	}
	sheetURL, _ := url.Parse(entry.ResolvedURL)
	for _, m := range cssURLRe.FindAllStringSubmatch(string(css), -1) {
		raw := strings.TrimSpace(m[1])
		if !isFontURL(raw) {
			continue
		}
		fontURL := raw
		if sheetURL != nil {
			if u, err := sheetURL.Parse(raw); err == nil {
				fontURL = u.String()
			}
		}
		c.capture(ctx, "font", assetRef{kind: "font", url: fontURL}, "design/assets")
	}
}

// uniqueName builds "<prefix>-<idx>_<hash><ext>"; the hash covers the
// prefix, index and URL (or a fallback seed when the URL is empty), so no
// two distinct assets collide within a run.
func (c *capture) uniqueName(prefix string, idx int, rawURL, contentType string) string {
	seed := rawURL
	if seed == "" {
		seed = fmt.Sprintf("asset-%d", idx)
	}
	hash := media.ShortHash(fmt.Sprintf("%s|%d|%s", prefix, idx, seed))

	ext := strings.ToLower(path.Ext(urlPath(rawURL)))
	if ext == "" || len(ext) > 6 {
		ext = extensionFromContentType(contentType)
	}
	name := fmt.Sprintf("%s-%03d_%s%s", prefix, idx, hash, ext)
	// Hash disambiguation makes collisions impossible by construction;
	// track names anyway so a collision would surface as a skip, never
	// an overwrite.
	if c.files[name] {
		name = fmt.Sprintf("%s-%03d_%s-dup%s", prefix, idx, hash, ext)
	}
	c.files[name] = true
	return name
}

func (c *capture) resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	u, err := c.base.Parse(raw)
	if err != nil {
		return ""
	}
	return u.String()
}

func (c *capture) writeManifest() error {
	if err := os.MkdirAll(filepath.Join(c.storeDir, "design"), 0755); err != nil {
		return fmt.Errorf("creating design folder: %w", err)
	}
	data, err := json.MarshalIndent(c.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	manifestPath := filepath.Join(c.storeDir, "design", "manifest.json")
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// extractAssetRefs walks the parsed homepage for stylesheet links, icons
// and images (img src and og:image).
func extractAssetRefs(doc *html.Node) []assetRef {
	var refs []assetRef
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				rel := strings.ToLower(attr(n, "rel"))
				href := attr(n, "href")
				switch {
				case rel == "stylesheet" && href != "":
					refs = append(refs, assetRef{kind: "stylesheet", url: href, media: attr(n, "media")})
				case strings.Contains(rel, "icon") && href != "":
					refs = append(refs, assetRef{kind: "icon", url: href, rel: rel})
				}
			case "img":
				if src := attr(n, "src"); src != "" {
					refs = append(refs, assetRef{kind: "image", url: src})
				}
			case "meta":
				if strings.EqualFold(attr(n, "property"), "og:image") {
					if content := attr(n, "content"); content != "" {
						refs = append(refs, assetRef{kind: "image", url: content})
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return refs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isFontURL(raw string) bool {
	lower := strings.ToLower(raw)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range []string{".woff", ".woff2", ".ttf", ".otf", ".eot"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func extensionFromContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	switch strings.TrimSpace(contentType) {
	case "text/css":
		return ".css"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return ".ico"
	case "font/woff":
		return ".woff"
	case "font/woff2":
		return ".woff2"
	}
	return ".bin"
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
