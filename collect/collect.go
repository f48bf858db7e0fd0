// Package collect walks the paginated catalog listing and accumulates
// unique detail-page URLs until pagination is exhausted.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lmazurina/bookcrawl/config"
	"github.com/lmazurina/bookcrawl/fetch"
	"github.com/lmazurina/bookcrawl/metrics"
)

// State describes how a pagination walk ended.
type State int

const (
	// StateFetching is the in-progress state.
	StateFetching State = iota
	// StateExhausted means the walk hit the end-of-catalog 404.
	StateExhausted
	// StateAborted means a non-404 fetch failure stopped the walk early.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Collector accumulates detail links from listing pages.
type Collector struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *metrics.Metrics
	base      *url.URL

	pagesWalked int

	mu        sync.Mutex
	pageHrefs []string
	lastErr   error
}

// New builds a Collector sharing the session's transport. metrics may be
// nil.
func New(cfg *config.Config, client *fetch.Client, m *metrics.Metrics) (*Collector, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	base, err := url.Parse(cfg.CatalogueBase())
	if err != nil {
		return nil, fmt.Errorf("parse catalogue base: %w", err)
	}

	// Revisits must stay allowed: the daemon fires the same page walk
	// once per day, and colly's visited guard would otherwise fail every
	// Visit after the first run.
	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if client != nil {
		collector.WithTransport(client.Transport())
	}

	c := &Collector{
		cfg:       cfg,
		collector: collector,
		metrics:   m,
		base:      base,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
	})

	collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.metrics.ObserveDuration(time.Since(start))
		}
	})

	collector.OnHTML("h3 a[href]", func(e *colly.HTMLElement) {
		c.mu.Lock()
		c.pageHrefs = append(c.pageHrefs, e.Attr("href"))
		c.mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		c.mu.Lock()
		c.lastErr = fetch.Classify(err, statusCode)
		c.mu.Unlock()
	})

	return c, nil
}

// WithTransport swaps the collector's round tripper. Used by tests to
// inject an httpmock transport.
func (c *Collector) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// Run walks listing pages from startPage until the catalog is exhausted
// or a fetch fails. It always returns whatever links were accumulated,
// deduplicated after resolution against the catalogue base and frozen in
// first-seen order, plus the terminal state.
func (c *Collector) Run(ctx context.Context, startPage int) ([]string, State) {
	seen, err := lru.New[string, struct{}](c.cfg.DedupeMaxSize)
	if err != nil {
		slog.Error("dedupe cache init", slog.Any("error", err))
		return nil, StateAborted
	}

	state := StateFetching
	page := startPage
	c.pagesWalked = 0
	var ordered []string

	for state == StateFetching {
		if ctx.Err() != nil {
			slog.Info("link collection cancelled",
				slog.Int("page", page),
				slog.Int("links", len(ordered)),
			)
			state = StateAborted
			break
		}
		if c.cfg.MaxPages > 0 && page-startPage >= c.cfg.MaxPages {
			slog.Info("page cap reached",
				slog.Int("pages", c.cfg.MaxPages),
				slog.Int("links", len(ordered)),
			)
			state = StateExhausted
			break
		}

		hrefs, err := c.visitPage(page)
		if err != nil {
			category := fetch.TypeLabel(err)
			c.metrics.IncError(category)
			if fetch.IsNotFound(err) {
				slog.Info("catalog exhausted",
					slog.Int("pages", page-startPage),
					slog.Int("links", len(ordered)),
				)
				state = StateExhausted
			} else {
				slog.Error("listing page fetch failed",
					slog.Int("page", page),
					slog.String("category", category),
					slog.Any("error", err),
				)
				state = StateAborted
			}
			break
		}

		c.metrics.IncPages()
		c.pagesWalked++
		added := 0
		for _, href := range hrefs {
			abs, ok := c.resolve(href)
			if !ok {
				continue
			}
			if seen.Contains(abs) {
				continue
			}
			seen.Add(abs, struct{}{})
			ordered = append(ordered, abs)
			added++
		}
		c.metrics.AddLinks(added)

		slog.Debug("processed listing page",
			slog.Int("page", page),
			slog.Int("new_links", added),
			slog.Int("total_links", len(ordered)),
		)
		page++
	}

	return ordered, state
}

// Pages returns how many listing pages the last Run fetched successfully.
func (c *Collector) Pages() int {
	return c.pagesWalked
}

func (c *Collector) visitPage(page int) ([]string, error) {
	c.mu.Lock()
	c.pageHrefs = nil
	c.lastErr = nil
	c.mu.Unlock()

	visitErr := c.collector.Visit(c.cfg.PageURL(page))
	c.collector.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return nil, c.lastErr
	}
	if visitErr != nil {
		return nil, fetch.Classify(visitErr, 0)
	}
	out := make([]string, len(c.pageHrefs))
	copy(out, c.pageHrefs)
	return out, nil
}

// resolve turns a detail href into an absolute URL against the fixed
// catalogue base.
func (c *Collector) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		slog.Debug("skipping malformed href", slog.String("href", href))
		return "", false
	}
	return c.base.ResolveReference(ref).String(), true
}
