// Package scraper wires the crawl pipeline end to end: link collection,
// batched extraction, and persistence.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmazurina/bookcrawl/batch"
	"github.com/lmazurina/bookcrawl/collect"
	"github.com/lmazurina/bookcrawl/config"
	"github.com/lmazurina/bookcrawl/extract"
	"github.com/lmazurina/bookcrawl/fetch"
	"github.com/lmazurina/bookcrawl/metrics"
	"github.com/lmazurina/bookcrawl/models"
	"github.com/lmazurina/bookcrawl/pipeline"
)

// Scraper runs the full crawl-and-extract pipeline.
type Scraper struct {
	cfg          *config.Config
	client       *fetch.Client
	collector    *collect.Collector
	orchestrator *batch.Orchestrator
	Metrics      *metrics.Metrics
}

// New builds a Scraper instance configured from cfg.
func New(cfg *config.Config) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	m := metrics.New()
	client := fetch.NewClient(fetch.Options{
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		RatePerSec: cfg.RatePerSec,
	})

	collector, err := collect.New(cfg, client, m)
	if err != nil {
		return nil, fmt.Errorf("build collector: %w", err)
	}

	return &Scraper{
		cfg:          cfg,
		client:       client,
		collector:    collector,
		orchestrator: batch.New(extract.New(client), cfg, m),
		Metrics:      m,
	}, nil
}

// WithTransport swaps the round tripper on the shared session and the
// listing collector. Used by tests to inject an httpmock transport.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.client.WithTransport(rt)
	s.collector.WithTransport(rt)
}

// Run executes one full crawl and returns the aggregated result. The run
// always completes with a (possibly partial) record list; fetch and
// markup failures surface only as log lines and empty records.
func (s *Scraper) Run(ctx context.Context) *models.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()

	links, state := s.collector.Run(ctx, s.cfg.StartPage)
	slog.Info("link collection finished",
		slog.String("state", state.String()),
		slog.Int("pages", s.collector.Pages()),
		slog.Int("links", len(links)),
	)

	records, stats := s.orchestrator.Process(ctx, links)

	return &models.Result{
		Records:    records,
		StartTime:  start,
		EndTime:    time.Now(),
		PageCount:  s.collector.Pages(),
		LinkCount:  len(links),
		BatchCount: stats.Batches,
		EmptyCount: stats.Empty,
		Exhausted:  state == collect.StateExhausted,
	}
}

// Scrape runs the full pipeline and, when save is set, persists the
// records to the configured output file.
func (s *Scraper) Scrape(ctx context.Context, save bool) ([]*models.Record, error) {
	result := s.Run(ctx)
	if save {
		if err := s.Save(result.Records); err != nil {
			return result.Records, err
		}
	}
	return result.Records, nil
}

// Save persists records to the configured output file, overwriting any
// previous contents.
func (s *Scraper) Save(records []*models.Record) error {
	writer, err := pipeline.NewWriter(s.cfg.OutputFormat, s.cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return fmt.Errorf("write records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}

	slog.Info("records saved",
		slog.String("file", s.cfg.OutputFile),
		slog.String("format", s.cfg.OutputFormat),
		slog.Int("records", len(records)),
	)
	return nil
}
