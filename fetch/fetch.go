// Package fetch provides the shared HTTP session used by the link
// collector and the detail extractor. The session is safe for concurrent
// use by multiple workers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Client wraps an http.Client with error classification and an optional
// politeness rate limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	RatePerSec float64 // 0 disables the limiter
}

// NewClient builds a shared session from opts.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:   limiter,
		userAgent: opts.UserAgent,
	}
}

// WithTransport swaps the underlying round tripper. Used by tests to
// inject an httpmock transport.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// Transport returns the underlying round tripper so that collaborators
// (the colly collector) can share the same connection pool.
func (c *Client) Transport() http.RoundTripper {
	return c.httpClient.Transport
}

// Get fetches url and returns the raw body decoded as UTF-8. Any failure
// comes back classified through the fetch error taxonomy.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", Classify(err, 0)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return "", Classify(nil, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Classify(err, 0)
	}

	// Bodies are treated as UTF-8 regardless of what the transport layer
	// would have detected from headers or meta tags.
	return string(body), nil
}

// GetDocument fetches url and parses the body into a goquery document.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
