package vaultsite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"vaultdl/internal/core/domain"
)

const (
	// DefaultOrigin is the vault host all relative form actions resolve against.
	DefaultOrigin = "https://vault.retroarchive.example"

	// DefaultSiteName is the prefix the vault puts in front of page titles.
	DefaultSiteName = "Vault"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// maxPageSize bounds how much of a download page is read for scraping.
	maxPageSize = 4 << 20
)

// Config holds settings for the vault site client.
type Config struct {
	// Origin is the vault host, e.g. "https://vault.retroarchive.example".
	// Empty means DefaultOrigin.
	Origin string

	// SiteName is the title prefix stripped during extraction.
	// Empty means DefaultSiteName.
	SiteName string

	// UserAgent overrides the browser User-Agent sent on every request.
	UserAgent string

	// Timeout bounds individual page and probe requests, not payload
	// transfers. Zero means 60s.
	Timeout time.Duration
}

// Client talks to the vault host. It owns the run's cookie jar; every request
// issued through it carries and accumulates session cookies, which is what
// authorizes the payload download after the page visit.
type Client struct {
	origin    string
	siteName  string
	userAgent string
	http      *http.Client
}

// NewClient creates a vault site client with a fresh cookie jar.
func NewClient(cfg Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	origin := cfg.Origin
	if origin == "" {
		origin = DefaultOrigin
	}
	siteName := cfg.SiteName
	if siteName == "" {
		siteName = DefaultSiteName
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		origin:    origin,
		siteName:  siteName,
		userAgent: userAgent,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// HTTPClient exposes the cookie-carrying client so the transfer engine can
// reuse the same session for the streamed payload request.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Jar: c.http.Jar}
}

// Origin returns the configured vault host.
func (c *Client) Origin() string {
	return c.origin
}

// UserAgent returns the browser User-Agent this session presents, so the
// transfer engine can present the same one.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// FetchPage retrieves the raw page text for a work item's URL.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create page request: %w", err)
	}
	c.applyBrowserHeaders(req, "")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read page body: %w", err)
	}
	return string(body), resp.StatusCode, nil
}

// Extract scrapes the download fields out of page text.
func (c *Client) Extract(page string) (domain.PageMetadata, string, error) {
	return ExtractMetadata(page, c.siteName)
}

// Resolve normalizes a form action into the absolute download target.
func (c *Client) Resolve(formAction, mediaID string) domain.DownloadTarget {
	return domain.DownloadTarget{
		ResolvedURL: ResolveDownloadURL(formAction, mediaID, c.origin),
	}
}

// ProbeSize asks the host for the payload's Content-Length via HEAD.
// The value is advisory; 0 means the host did not say.
func (c *Client) ProbeSize(ctx context.Context, rawURL, referer string) (int64, error) {
	resp, err := c.head(ctx, rawURL, referer)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return 0, nil
}

// SuggestedFilename recovers the server-suggested filename from the
// Content-Disposition header of a header-only request.
func (c *Client) SuggestedFilename(ctx context.Context, rawURL, referer string) (string, error) {
	resp, err := c.head(ctx, rawURL, referer)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return "", nil
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return "", nil
	}
	return params["filename"], nil
}

func (c *Client) head(ctx context.Context, rawURL, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create head request: %w", err)
	}
	c.applyBrowserHeaders(req, referer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) applyBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}

// WriteCookieSnapshot dumps the origin's current cookies as JSON to path.
// The snapshot is a transient, process-scoped debugging artifact; sessions
// are never restored from it.
func (c *Client) WriteCookieSnapshot(path string) error {
	u, err := url.Parse(c.origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", c.origin, err)
	}

	cookies := c.http.Jar.Cookies(u)
	snapshot := make(map[string]string, len(cookies))
	for _, ck := range cookies {
		snapshot[ck.Name] = ck.Value
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cookie snapshot: %w", err)
	}
	return nil
}
