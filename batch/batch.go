// Package batch partitions the collected URL set into fixed-size batches
// and fans each batch out over a bounded worker pool.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lmazurina/bookcrawl/config"
	"github.com/lmazurina/bookcrawl/metrics"
	"github.com/lmazurina/bookcrawl/models"
)

// Extractor produces one record per detail URL. Implementations never
// fail; a broken page yields an empty record.
type Extractor interface {
	Extract(ctx context.Context, itemURL string) *models.Record
}

// Stats summarises one orchestration run.
type Stats struct {
	Batches int
	Empty   int
}

// Orchestrator drives batched, concurrency-bounded extraction.
type Orchestrator struct {
	extractor  Extractor
	metrics    *metrics.Metrics
	batchSize  int
	maxWorkers int
	delay      time.Duration
}

// New builds an Orchestrator from cfg. metrics may be nil.
func New(extractor Extractor, cfg *config.Config, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		metrics:    m,
		batchSize:  cfg.BatchSize,
		maxWorkers: cfg.MaxWorkers,
		delay:      cfg.Delay,
	}
}

// Process extracts every URL, batch by batch. Batches run strictly in
// sequence; items within a batch run concurrently and are collected in
// completion order, so ordering is batch-stable only. Each URL yields
// exactly one record (possibly empty); a failed item never aborts its
// batch. Cancellation is honoured between batches only: a dispatched
// batch always drains.
func (o *Orchestrator) Process(ctx context.Context, urls []string) ([]*models.Record, Stats) {
	records := make([]*models.Record, 0, len(urls))
	var stats Stats

	for start := 0; start < len(urls); start += o.batchSize {
		if start > 0 {
			if !o.pause(ctx) {
				slog.Info("orchestration cancelled between batches",
					slog.Int("processed", len(records)),
					slog.Int("remaining", len(urls)-start),
				)
				break
			}
		}

		end := start + o.batchSize
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]

		stats.Batches++
		o.metrics.IncBatches()
		slog.Info("processing batch",
			slog.Int("batch", stats.Batches),
			slog.Int("size", len(chunk)),
		)

		for _, record := range o.runBatch(ctx, chunk) {
			if record.Empty() {
				stats.Empty++
				o.metrics.IncEmptyRecords()
			}
			records = append(records, record)
		}
	}

	return records, stats
}

// runBatch dispatches one goroutine per URL, gated by a semaphore of
// maxWorkers, and drains results in completion order.
func (o *Orchestrator) runBatch(ctx context.Context, chunk []string) []*models.Record {
	results := make(chan *models.Record, len(chunk))
	sem := make(chan struct{}, o.maxWorkers)
	var wg sync.WaitGroup

	for _, itemURL := range chunk {
		wg.Add(1)
		go func(itemURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			record := o.extractor.Extract(ctx, itemURL)
			if record == nil {
				record = models.NewRecord()
			}
			o.metrics.IncItems()
			slog.Debug("processed item", slog.String("url", itemURL), slog.Bool("empty", record.Empty()))
			results <- record
		}(itemURL)
	}

	wg.Wait()
	close(results)

	out := make([]*models.Record, 0, len(chunk))
	for record := range results {
		out = append(out, record)
	}
	return out
}

// pause applies the fixed inter-batch throttle, reporting false when the
// context finished during the wait.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
