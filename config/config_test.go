package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "zero start page",
			mutate: func(cfg *Config) {
				cfg.StartPage = 0
			},
			wantErr: "start page",
		},
		{
			name: "negative max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = -1
			},
			wantErr: "max pages",
		},
		{
			name: "zero batch size",
			mutate: func(cfg *Config) {
				cfg.BatchSize = 0
			},
			wantErr: "batch size",
		},
		{
			name: "zero workers",
			mutate: func(cfg *Config) {
				cfg.MaxWorkers = 0
			},
			wantErr: "max workers",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -1 * time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "bad schedule time",
			mutate: func(cfg *Config) {
				cfg.ScheduleAt = "25:99"
			},
			wantErr: "schedule time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestPageURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://example.test"
	cfg.CataloguePath = "catalogue"

	if got := cfg.PageURL(1); got != "http://example.test/catalogue/page-1.html" {
		t.Fatalf("page url = %q", got)
	}
	if got := cfg.PageURL(37); got != "http://example.test/catalogue/page-37.html" {
		t.Fatalf("page url = %q", got)
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("19:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if hour != 19 || minute != 0 {
		t.Fatalf("clock = %d:%d, want 19:00", hour, minute)
	}

	for _, bad := range []string{"", "24:00", "10:60", "abc"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BOOKCRAWL_TEST_STR", " value ")
	if got, ok := EnvString("BOOKCRAWL_TEST_STR"); !ok || got != "value" {
		t.Fatalf("EnvString = %q/%v", got, ok)
	}
	if _, ok := EnvString("BOOKCRAWL_TEST_MISSING"); ok {
		t.Fatalf("missing env should not be present")
	}

	t.Setenv("BOOKCRAWL_TEST_INT", "42")
	value, ok, err := EnvInt("BOOKCRAWL_TEST_INT")
	if err != nil || !ok || value != 42 {
		t.Fatalf("EnvInt = %d/%v/%v", value, ok, err)
	}

	t.Setenv("BOOKCRAWL_TEST_INT", "nope")
	if _, _, err := EnvInt("BOOKCRAWL_TEST_INT"); err == nil {
		t.Fatalf("non-integer env should error")
	}
}
