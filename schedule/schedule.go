// Package schedule fires the crawl pipeline once per calendar day at a
// fixed wall-clock time.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lmazurina/bookcrawl/config"
)

// Job is one firing of the pipeline. It reports how many records the run
// produced.
type Job func(ctx context.Context) (int, error)

// Trigger polls the clock and runs the job when the scheduled time of
// day has passed. Firings never overlap: the job runs synchronously in
// the polling loop.
type Trigger struct {
	hour   int
	minute int
	poll   time.Duration
	job    Job

	now      func() time.Time
	lastFire string // calendar day of the last firing, YYYY-MM-DD
}

// New builds a Trigger firing daily at the HH:MM wall-clock time in at.
func New(at string, poll time.Duration, job Job) (*Trigger, error) {
	hour, minute, err := config.ParseClock(at)
	if err != nil {
		return nil, err
	}
	if poll <= 0 {
		poll = 45 * time.Second
	}
	t := &Trigger{
		hour:   hour,
		minute: minute,
		poll:   poll,
		job:    job,
		now:    time.Now,
	}
	t.seed(t.now())
	return t, nil
}

// seed marks today as already fired when the trigger is armed after the
// scheduled time, so the first firing happens at the next day's HH:MM
// rather than immediately on startup.
func (t *Trigger) seed(now time.Time) {
	if now.Hour()*60+now.Minute() >= t.hour*60+t.minute {
		t.lastFire = now.Format("2006-01-02")
	}
}

// Run blocks, polling until ctx finishes. Between firings the process
// idles on the poll interval.
func (t *Trigger) Run(ctx context.Context) error {
	slog.Info("daily schedule armed",
		slog.String("at", time.Date(0, 1, 1, t.hour, t.minute, 0, 0, time.UTC).Format("15:04")),
		slog.Duration("poll", t.poll),
	)

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		t.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick fires the job when the scheduled time has arrived and today has
// not fired yet. It reports whether a firing happened.
func (t *Trigger) tick(ctx context.Context) bool {
	now := t.now()
	if !t.due(now) {
		return false
	}
	t.lastFire = now.Format("2006-01-02")

	runID := uuid.NewString()
	start := now
	slog.Info("scheduled run started",
		slog.String("run_id", runID),
		slog.Time("start", start),
	)

	count, err := t.job(ctx)
	end := t.now()
	if err != nil {
		slog.Error("scheduled run failed",
			slog.String("run_id", runID),
			slog.Time("end", end),
			slog.Any("error", err),
		)
		return true
	}

	slog.Info("scheduled run finished",
		slog.String("run_id", runID),
		slog.Time("end", end),
		slog.Duration("duration", end.Sub(start)),
		slog.Int("records", count),
	)
	return true
}

func (t *Trigger) due(now time.Time) bool {
	if now.Format("2006-01-02") == t.lastFire {
		return false
	}
	minutesOfDay := now.Hour()*60 + now.Minute()
	return minutesOfDay >= t.hour*60+t.minute
}
