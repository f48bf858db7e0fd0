package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmazurina/bookcrawl/config"
	"github.com/lmazurina/bookcrawl/models"
	"github.com/lmazurina/bookcrawl/scraper"
	"github.com/lmazurina/bookcrawl/schedule"
)

func main() {
	defaultCfg := config.DefaultConfig()

	batchDefault := defaultCfg.BatchSize
	if value, ok, err := config.EnvInt("BOOKCRAWL_BATCH_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKCRAWL_BATCH_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		batchDefault = value
	}
	workersDefault := defaultCfg.MaxWorkers
	if value, ok, err := config.EnvInt("BOOKCRAWL_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKCRAWL_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("BOOKCRAWL_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("BOOKCRAWL_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Base URL to crawl")
	startPage := flag.Int("start-page", defaultCfg.StartPage, "Listing page to start from")
	maxPages := flag.Int("max-pages", defaultCfg.MaxPages, "Safety cap on listing pages (0 = walk until 404)")
	batchSize := flag.Int("batch-size", batchDefault, "Detail URLs per batch")
	maxWorkers := flag.Int("workers", workersDefault, "Concurrent extractions per batch")
	delaySec := flag.Float64("delay", defaultCfg.Delay.Seconds(), "Pause between batches (seconds)")
	timeoutSec := flag.Float64("timeout", defaultCfg.Timeout.Seconds(), "Per-request timeout (seconds)")
	ratePerSec := flag.Float64("rate", defaultCfg.RatePerSec, "Politeness limit in requests per second (0 = unlimited)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: text, json, or dual")
	noSave := flag.Bool("no-save", false, "Run without persisting results")
	daemon := flag.Bool("daemon", false, "Run the daily schedule instead of a one-shot crawl")
	scheduleAt := flag.String("schedule-at", defaultCfg.ScheduleAt, "Daily firing time for daemon mode (HH:MM)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.StartPage = *startPage
	cfg.MaxPages = *maxPages
	cfg.BatchSize = *batchSize
	cfg.MaxWorkers = *maxWorkers
	cfg.Delay = time.Duration(*delaySec * float64(time.Second))
	cfg.Timeout = time.Duration(*timeoutSec * float64(time.Second))
	cfg.RatePerSec = *ratePerSec
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.ScheduleAt = *scheduleAt
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.New(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	if *daemon {
		err = runDaemon(ctx, s, cfg)
	} else {
		err = runOnce(ctx, s, cfg, !*noSave)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", shutdownErr))
		}
		cancel()
	}

	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, s *scraper.Scraper, cfg *config.Config, save bool) error {
	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Int("workers", cfg.MaxWorkers),
	)

	result := s.Run(ctx)
	if save {
		if err := s.Save(result.Records); err != nil {
			return err
		}
	}

	printSummary(result, cfg.OutputFile, save)
	return nil
}

func runDaemon(ctx context.Context, s *scraper.Scraper, cfg *config.Config) error {
	trigger, err := schedule.New(cfg.ScheduleAt, cfg.PollInterval, func(ctx context.Context) (int, error) {
		records, err := s.Scrape(ctx, true)
		return len(records), err
	})
	if err != nil {
		return fmt.Errorf("build trigger: %w", err)
	}

	if err := trigger.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printSummary(result *models.Result, outputFile string, saved bool) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Pages walked:  %d\n", result.PageCount)
	fmt.Printf("  Links found:   %d\n", result.LinkCount)
	fmt.Printf("  Records:       %d\n", len(result.Records))
	fmt.Printf("  Empty records: %d\n", result.EmptyCount)
	fmt.Printf("  Batches:       %d\n", result.BatchCount)
	fmt.Printf("  Exhausted:     %v\n", result.Exhausted)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	if saved {
		fmt.Printf("  Output file:   %s\n", outputFile)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
