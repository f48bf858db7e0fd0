package collect

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/lmazurina/bookcrawl/config"
	"github.com/lmazurina/bookcrawl/metrics"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test"
	cfg.CataloguePath = "catalogue"
	cfg.Timeout = time.Second
	return cfg
}

func listingPage(first, count int) string {
	var builder strings.Builder
	builder.WriteString("<html><body><section>")
	for i := 0; i < count; i++ {
		id := first + i
		fmt.Fprintf(&builder, "<h3><a href=\"book-%d/index.html\" title=\"Book %d\">Book %d</a></h3>", id, id, id)
	}
	builder.WriteString("</section></body></html>")
	return builder.String()
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func newCollector(t *testing.T, cfg *config.Config, transport *httpmock.MockTransport) *Collector {
	t.Helper()
	c, err := New(cfg, nil, metrics.New())
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	c.WithTransport(transport)
	return c
}

func TestRunWalksUntilNotFound(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder(listingPage(1, 20)))
	transport.RegisterResponder("GET", cfg.PageURL(2), htmlResponder(listingPage(21, 20)))
	transport.RegisterResponder("GET", cfg.PageURL(3), htmlResponder(listingPage(41, 10)))
	transport.RegisterResponder("GET", cfg.PageURL(4), httpmock.NewStringResponder(404, "not found"))

	c := newCollector(t, cfg, transport)
	links, state := c.Run(context.Background(), 1)

	if state != StateExhausted {
		t.Fatalf("state = %v, want exhausted", state)
	}
	if len(links) != 50 {
		t.Fatalf("links = %d, want 50", len(links))
	}
	if links[0] != "http://example.test/catalogue/book-1/index.html" {
		t.Fatalf("first link = %q", links[0])
	}
}

func TestRunDeduplicatesAcrossPages(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	// Page 2 repeats page 1's items entirely.
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder(listingPage(1, 5)))
	transport.RegisterResponder("GET", cfg.PageURL(2), htmlResponder(listingPage(1, 5)))
	transport.RegisterResponder("GET", cfg.PageURL(3), httpmock.NewStringResponder(404, ""))

	c := newCollector(t, cfg, transport)
	links, state := c.Run(context.Background(), 1)

	if state != StateExhausted {
		t.Fatalf("state = %v, want exhausted", state)
	}
	if len(links) != 5 {
		t.Fatalf("links = %d, want 5 after dedupe", len(links))
	}
}

func TestRunAbortsOnServerError(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder(listingPage(1, 20)))
	transport.RegisterResponder("GET", cfg.PageURL(2), httpmock.NewStringResponder(500, "boom"))

	c := newCollector(t, cfg, transport)
	links, state := c.Run(context.Background(), 1)

	if state != StateAborted {
		t.Fatalf("state = %v, want aborted", state)
	}
	if len(links) != 20 {
		t.Fatalf("links = %d, want the 20 collected before the failure", len(links))
	}
}

func TestRunEmptyPageDoesNotTerminate(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder("<html><body>no anchors</body></html>"))
	transport.RegisterResponder("GET", cfg.PageURL(2), htmlResponder(listingPage(1, 3)))
	transport.RegisterResponder("GET", cfg.PageURL(3), httpmock.NewStringResponder(404, ""))

	c := newCollector(t, cfg, transport)
	links, state := c.Run(context.Background(), 1)

	if state != StateExhausted {
		t.Fatalf("state = %v, want exhausted", state)
	}
	if len(links) != 3 {
		t.Fatalf("links = %d, want 3 from the second page", len(links))
	}
}

func TestRunRespectsMaxPagesCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 2
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder(listingPage(1, 4)))
	transport.RegisterResponder("GET", cfg.PageURL(2), htmlResponder(listingPage(5, 4)))
	// Page 3 exists but must never be requested.
	transport.RegisterResponder("GET", cfg.PageURL(3), htmlResponder(listingPage(9, 4)))

	c := newCollector(t, cfg, transport)
	links, state := c.Run(context.Background(), 1)

	if state != StateExhausted {
		t.Fatalf("state = %v, want exhausted", state)
	}
	if len(links) != 8 {
		t.Fatalf("links = %d, want 8", len(links))
	}
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newCollector(t, cfg, transport)
	links, state := c.Run(ctx, 1)

	if state != StateAborted {
		t.Fatalf("state = %v, want aborted", state)
	}
	if len(links) != 0 {
		t.Fatalf("links = %d, want 0", len(links))
	}
}

func TestRunRepeatable(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.PageURL(1), htmlResponder(listingPage(1, 5)))
	transport.RegisterResponder("GET", cfg.PageURL(2), httpmock.NewStringResponder(404, ""))

	c := newCollector(t, cfg, transport)

	for run := 1; run <= 2; run++ {
		links, state := c.Run(context.Background(), 1)
		if state != StateExhausted {
			t.Fatalf("run %d state = %v, want exhausted", run, state)
		}
		if len(links) != 5 {
			t.Fatalf("run %d links = %d, want 5", run, len(links))
		}
	}
}

func TestStateString(t *testing.T) {
	if StateFetching.String() != "fetching" || StateExhausted.String() != "exhausted" || StateAborted.String() != "aborted" {
		t.Fatalf("unexpected state strings: %v %v %v", StateFetching, StateExhausted, StateAborted)
	}
}
