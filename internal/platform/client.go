package platform

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/storeport/storeport/internal/config"
	"github.com/storeport/storeport/internal/models"
)

const perPage = 100

// Client is a shared HTTP client used by platform implementations.
// Every outbound call is wrapped in the retry policy: up to Attempts tries
// with exponentially growing delay, applied to the individual call only.
type Client struct {
	baseURL    string
	username   string
	password   string
	token      string
	httpClient *http.Client
	retry      config.RetryConfig
	clock      clock.Clock
}

// NewClient creates a Client for a source store.
func NewClient(src *config.SourceConfig, rc config.RetryConfig) *Client {
	transport := &http.Transport{}
	if src.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	c := &Client{
		baseURL:    src.BaseURL,
		token:      src.AdminToken,
		httpClient: &http.Client{Transport: transport},
		retry:      rc,
		clock:      clock.WallClock,
	}
	if src.Platform == "storefront" {
		return c
	}
	c.username = src.ConsumerKey
	c.password = src.ConsumerSecret
	return c
}

// WithBasicAuth returns a copy of the client using the given basic-auth
// credentials (WordPress REST uses the application password, not the
// store API consumer key).
func (c *Client) WithBasicAuth(username, password string) *Client {
	cp := *c
	cp.username = username
	cp.password = password
	cp.token = ""
	return &cp
}

// do performs one HTTP call under the retry policy. Attempts of 0 disables
// retries entirely; context cancellation stops the retry loop.
func (c *Client) do(ctx context.Context, call func() error) error {
	if c.retry.Attempts <= 0 {
		return call()
	}
	return retry.Call(retry.CallArgs{
		Func:        call,
		Attempts:    c.retry.Attempts,
		Delay:       c.retry.BaseDelay,
		MaxDelay:    c.retry.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var body []byte
	err := c.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, truncate(string(body), 200))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

// GetAll fetches every page of a page-numbered endpoint. Both the store
// catalog API and the WordPress REST API paginate with page/per_page and
// return a bare JSON array per page; a short page ends the loop.
func (c *Client) GetAll(ctx context.Context, path string, params url.Values) ([]models.Entity, error) {
	var all []models.Entity
	for page := 1; ; page++ {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("page", strconv.Itoa(page))
		p.Set("per_page", strconv.Itoa(perPage))

		body, err := c.Get(ctx, path, p)
		if err != nil {
			return nil, err
		}
		var items []models.Entity
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("parsing page %d of %s: %w", page, path, err)
		}
		all = append(all, items...)
		if len(items) < perPage {
			return all, nil
		}
	}
}

// Download fetches a raw resource (no auth header, arbitrary content type)
// and returns body and content type. Used for media and design assets.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	var body []byte
	var contentType string
	err := c.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("GET %s: HTTP %d", rawURL, resp.StatusCode)
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// Ping checks connectivity by hitting the given path.
func (c *Client) Ping(ctx context.Context, path string) error {
	_, err := c.Get(ctx, path, nil)
	return err
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
