package models

import "time"

// Result holds the overall outcome of one crawl run.
type Result struct {
	Records    []*Record
	StartTime  time.Time
	EndTime    time.Time
	PageCount  int
	LinkCount  int
	BatchCount int
	EmptyCount int
	// Exhausted reports whether link collection ended on the end-of-
	// catalog signal rather than an unexpected fetch failure.
	Exhausted bool
}
