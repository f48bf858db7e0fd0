package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL       string
	CataloguePath string
	StartPage     int
	MaxPages      int // 0 means walk until the catalog 404s
	BatchSize     int
	MaxWorkers    int
	Delay         time.Duration
	Timeout       time.Duration
	RatePerSec    float64 // 0 disables the politeness limiter
	DedupeMaxSize int
	OutputFile    string
	OutputFormat  string // text, json, or dual
	UserAgent     string
	MetricsAddr   string
	ScheduleAt    string // daily firing time, HH:MM wall clock
	PollInterval  time.Duration
	Verbose       bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://books.toscrape.com",
		CataloguePath: "catalogue",
		StartPage:     1,
		MaxPages:      0,
		BatchSize:     50,
		MaxWorkers:    10,
		Delay:         2 * time.Second,
		Timeout:       10 * time.Second,
		RatePerSec:    0,
		DedupeMaxSize: 100000,
		OutputFile:    "books_data.txt",
		OutputFormat:  "text",
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MetricsAddr:   "",
		ScheduleAt:    "19:00",
		PollInterval:  45 * time.Second,
		Verbose:       false,
	}
}

// CatalogueBase returns the absolute catalogue base with a trailing slash,
// the reference against which detail hrefs are resolved.
func (c *Config) CatalogueBase() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if c.CataloguePath == "" {
		return base + "/"
	}
	return base + "/" + strings.Trim(c.CataloguePath, "/") + "/"
}

// PageURL returns the listing URL for a 1-based page number.
func (c *Config) PageURL(n int) string {
	return fmt.Sprintf("%spage-%d.html", c.CatalogueBase(), n)
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.StartPage <= 0 {
		return fmt.Errorf("start page must be positive")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RatePerSec < 0 {
		return fmt.Errorf("rate per second cannot be negative")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be text, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if _, _, err := ParseClock(c.ScheduleAt); err != nil {
		return fmt.Errorf("invalid schedule time: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	return nil
}

// ParseClock parses an HH:MM wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("parse %q: out of range", s)
	}
	return hour, minute, nil
}
