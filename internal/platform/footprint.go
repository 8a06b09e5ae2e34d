package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/storeport/storeport/internal/models"
)

// FootprintOptions bounds the public footprint crawl.
type FootprintOptions struct {
	ExtraURLs []string
	MaxPages  int   // 0 = unlimited
	MaxBytes  int64 // 0 = unlimited
}

var extensionPathRe = regexp.MustCompile(`/wp-content/(plugins|themes|mu-plugins)/([A-Za-z0-9_.-]+)/`)

// DetectFootprints crawls public store pages without credentials and infers
// plugin/theme slugs from asset URLs. It never fails the run: per-page fetch
// errors are logged and skipped, and the summary reports how much of the
// site was actually processed against the configured limits.
func DetectFootprints(ctx context.Context, client *Client, baseURL string, opts FootprintOptions, logger func(string)) ([]models.Footprint, models.CrawlSummary, error) {
	var summary models.CrawlSummary

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, summary, fmt.Errorf("parsing base URL: %w", err)
	}

	queue := append([]string{baseURL}, opts.ExtraURLs...)
	visited := make(map[string]bool)
	seen := make(map[string]*models.Footprint) // "type/slug" → footprint

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return footprintList(seen), summary, err
		}
		if opts.MaxPages > 0 && summary.ProcessedPageCount >= opts.MaxPages {
			summary.PageLimitReached = true
			break
		}
		if opts.MaxBytes > 0 && summary.TotalBytesDownloaded >= opts.MaxBytes {
			summary.ByteLimitReached = true
			break
		}

		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		body, _, err := client.Download(ctx, pageURL)
		if err != nil {
			logger(fmt.Sprintf("  WARNING: footprint crawl skipped %s: %v", pageURL, err))
			continue
		}
		summary.ProcessedPageCount++
		summary.TotalBytesDownloaded += int64(len(body))

		collectFootprints(string(body), seen)

		for _, link := range extractLinks(body, base) {
			if !visited[link] {
				queue = append(queue, link)
			}
		}

		// Re-check the page cap immediately so reaching it exactly is
		// reported even when the queue happens to drain at the same time.
		if opts.MaxPages > 0 && summary.ProcessedPageCount >= opts.MaxPages {
			summary.PageLimitReached = true
			break
		}
		if opts.MaxBytes > 0 && summary.TotalBytesDownloaded >= opts.MaxBytes {
			summary.ByteLimitReached = true
			break
		}
	}

	return footprintList(seen), summary, nil
}

// collectFootprints scans raw page text for extension asset paths. Scanning
// the text rather than parsed attributes also catches URLs inside inline
// CSS and script blocks.
func collectFootprints(page string, seen map[string]*models.Footprint) {
	for _, m := range extensionPathRe.FindAllStringSubmatch(page, -1) {
		kind := m[1]
		slug := m[2]
		var fpType string
		switch kind {
		case "plugins":
			fpType = "plugin"
		case "mu-plugins":
			fpType = "mu-plugin"
		case "themes":
			fpType = "theme"
		}
		key := fpType + "/" + slug
		if _, ok := seen[key]; !ok {
			seen[key] = &models.Footprint{Type: fpType, Slug: slug}
		}
	}
}

// extractLinks returns same-host page links found in anchor tags.
func extractLinks(body []byte, base *url.URL) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if link, ok := resolveSameHost(attr.Val, base); ok {
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// resolveSameHost resolves href against base and keeps only same-host HTML
// page candidates (no fragments, no obvious asset extensions).
func resolveSameHost(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil || u.Host != base.Host {
		return "", false
	}
	u.Fragment = ""
	lower := strings.ToLower(u.Path)
	for _, ext := range []string{".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".pdf", ".zip", ".woff", ".woff2"} {
		if strings.HasSuffix(lower, ext) {
			return "", false
		}
	}
	return u.String(), true
}

func footprintList(seen map[string]*models.Footprint) []models.Footprint {
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]models.Footprint, 0, len(keys))
	for _, k := range keys {
		result = append(result, *seen[k])
	}
	return result
}
