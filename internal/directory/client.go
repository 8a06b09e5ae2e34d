// Package directory resolves detected plugin/theme slugs against the public
// extension directory, without re-querying a slug twice or violating the
// directory's rate limits.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/storeport/storeport/internal/models"
)

// Lookup statuses recorded on a footprint.
const (
	StatusResolved          = "resolved"
	StatusNotFound          = "not_found"
	StatusLookupError       = "lookup_error"
	StatusMissingSlug       = "missing_slug"
	StatusSkippedMUPlugin   = "skipped_mu_plugin"
	StatusSkippedNonDirSlug = "skipped_non_directory_slug"
)

const (
	defaultPluginsEndpoint = "https://api.wordpress.org/plugins/info/1.2/"
	defaultThemesEndpoint  = "https://api.wordpress.org/themes/info/1.2/"
)

// Directory slugs are lowercase alphanumerics and hyphens. Anything else
// (a file path, a sanitized display name with odd characters) is never
// listed publicly, so we skip the lookup entirely.
var directorySlugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type lookupKey struct {
	Type string
	Slug string
}

type lookupResult struct {
	Status string
	Info   *extensionInfo
}

type extensionInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Homepage    string `json:"homepage"`
	DownloadURL string `json:"download_link"`
	Error       string `json:"error"`
}

// Client looks up extension metadata with at most one network call per
// (type, slug) per run, including cached failures. A shared rate limiter
// throttles the whole enrichment phase to one call per delay interval.
type Client struct {
	httpClient      *http.Client
	limiter         *rate.Limiter
	cache           map[lookupKey]lookupResult
	pluginsEndpoint string
	themesEndpoint  string
	logger          func(string)
}

// NewClient creates a directory client with the given inter-call delay.
func NewClient(delay time.Duration, logger func(string)) *Client {
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		limiter:         rate.NewLimiter(rate.Every(delay), 1),
		cache:           make(map[lookupKey]lookupResult),
		pluginsEndpoint: defaultPluginsEndpoint,
		themesEndpoint:  defaultThemesEndpoint,
		logger:          logger,
	}
}

// WithEndpoints points the client at alternate directory endpoints
// (mirrors, test servers).
func (c *Client) WithEndpoints(plugins, themes string) *Client {
	c.pluginsEndpoint = plugins
	c.themesEndpoint = themes
	return c
}

// Enrich annotates a footprint in place with directory metadata or one of
// the skip/failure statuses. Lookups, including failed ones, are cached so
// a single slug never causes more than one network call per run.
func (c *Client) Enrich(ctx context.Context, fp *models.Footprint) {
	if fp.Slug == "" {
		fp.DirectoryStatus = StatusMissingSlug
		return
	}
	if fp.Type == "mu-plugin" {
		// Must-use plugins are never listed in the public directory.
		fp.DirectoryStatus = StatusSkippedMUPlugin
		return
	}
	if !directorySlugRe.MatchString(fp.Slug) {
		fp.DirectoryStatus = StatusSkippedNonDirSlug
		return
	}

	key := lookupKey{Type: fp.Type, Slug: fp.Slug}
	if cached, ok := c.cache[key]; ok {
		c.apply(fp, cached)
		return
	}

	result := c.lookup(ctx, fp.Type, fp.Slug)
	c.cache[key] = result
	c.apply(fp, result)
}

func (c *Client) apply(fp *models.Footprint, result lookupResult) {
	fp.DirectoryStatus = result.Status
	if result.Status != StatusResolved || result.Info == nil {
		return
	}
	fp.Name = result.Info.Name
	fp.Version = result.Info.Version
	fp.Author = result.Info.Author
	fp.Homepage = result.Info.Homepage
	fp.DownloadURL = result.Info.DownloadURL
}

// lookup issues exactly one directory call. Transport errors and bad
// responses are cached as lookup_error; a well-formed "no such extension"
// reply is cached as not_found.
func (c *Client) lookup(ctx context.Context, fpType, slug string) lookupResult {
	// Sequential throttle: one directory call per delay interval,
	// regardless of catalog size.
	if err := c.limiter.Wait(ctx); err != nil {
		return lookupResult{Status: StatusLookupError}
	}

	endpoint := c.pluginsEndpoint
	action := "plugin_information"
	if fpType == "theme" {
		endpoint = c.themesEndpoint
		action = "theme_information"
	}
	params := url.Values{
		"action":        {action},
		"request[slug]": {slug},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: directory lookup for %s/%s: %v", fpType, slug, err))
		return lookupResult{Status: StatusLookupError}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: directory lookup for %s/%s: %v", fpType, slug, err))
		return lookupResult{Status: StatusLookupError}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return lookupResult{Status: StatusNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger(fmt.Sprintf("  WARNING: directory lookup for %s/%s: HTTP %d", fpType, slug, resp.StatusCode))
		return lookupResult{Status: StatusLookupError}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger(fmt.Sprintf("  WARNING: directory lookup for %s/%s: %v", fpType, slug, err))
		return lookupResult{Status: StatusLookupError}
	}

	var info extensionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		c.logger(fmt.Sprintf("  WARNING: directory lookup for %s/%s: parsing response: %v", fpType, slug, err))
		return lookupResult{Status: StatusLookupError}
	}
	if info.Error != "" || info.Name == "" {
		return lookupResult{Status: StatusNotFound}
	}
	return lookupResult{Status: StatusResolved, Info: &info}
}
