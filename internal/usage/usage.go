// Package usage tracks token and call consumption against an inference
// model's quota and blocks callers until the relevant window resets.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const dayWindow = 24 * time.Hour

// Stats holds the rolling token and call counters for one pipeline run.
// Minute counters are zeroed on a 60-second cadence by the owner of the
// tracker; day counters reset once more than 24h has passed since LastReset.
type Stats struct {
	MinuteTokens    int
	DayTokens       int
	TotalTokens     int
	Calls           int
	LastMinuteCalls int
	LastDayCalls    int
	LastReset       time.Time
}

// NewStats returns zeroed stats anchored at now.
func NewStats(now time.Time) *Stats {
	return &Stats{LastReset: now}
}

// Pricing holds per-1K-token prices in USD.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Limits describes a model's quota. Nil fields mean the cap does not apply
// and never blocks.
type Limits struct {
	ModelName string
	RPM       *int // requests per minute
	RPD       *int // requests per day
	TPM       *int // tokens per minute
	TPD       *int // tokens per day
	Pricing   *Pricing
}

// DefaultModel is the model preset used when none is configured.
const DefaultModel = "gemini-2.0-flash-lite"

func intPtr(v int) *int { return &v }

// freeTierLimits mirrors the published free-tier quota for the models the
// engine runs against.
var freeTierLimits = map[string]Limits{
	"gemini-2.0-flash-lite": {
		ModelName: "gemini-2.0-flash-lite",
		RPM:       intPtr(30),
		RPD:       intPtr(1500),
		TPM:       intPtr(1_000_000),
		Pricing:   &Pricing{InputPer1K: 0.075, OutputPer1K: 0.30},
	},
}

// LimitsForModel returns the quota preset for a model name.
func LimitsForModel(name string) (Limits, bool) {
	l, ok := freeTierLimits[name]
	return l, ok
}

// SleepFunc pauses for d or returns early with the context's error.
// Injectable so tests never block on real quota windows.
type SleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tracker gates inference calls against a model's limits. Safe for
// concurrent use; the worker's minute ticker and the pipeline stages share
// one tracker per run.
type Tracker struct {
	limits Limits
	log    *slog.Logger

	mu    sync.Mutex
	stats *Stats

	now   func() time.Time
	sleep SleepFunc
}

// NewTracker builds a tracker over freshly zeroed stats.
func NewTracker(limits Limits, log *slog.Logger) *Tracker {
	t := &Tracker{
		limits: limits,
		log:    log,
		now:    time.Now,
		sleep:  realSleep,
	}
	t.stats = NewStats(t.now())
	return t
}

// WithClock overrides the time source and sleep behavior, for tests.
func (t *Tracker) WithClock(now func() time.Time, sleep SleepFunc) *Tracker {
	t.now = now
	t.sleep = sleep
	t.stats.LastReset = now()
	return t
}

// CheckDailyReset zeroes the day counters once the 24h window has elapsed.
func (t *Tracker) CheckDailyReset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.stats.LastReset) > dayWindow {
		t.stats.DayTokens = 0
		t.stats.LastDayCalls = 0
		t.stats.LastReset = now
	}
}

// CheckRateLimits blocks until the next inference call is allowed under the
// model's quota. Quota exhaustion is handled here by waiting, never surfaced
// as a failure; the only error is context cancellation.
func (t *Tracker) CheckRateLimits(ctx context.Context) error {
	t.mu.Lock()

	if t.limits.RPD != nil && t.stats.LastDayCalls >= *t.limits.RPD {
		wait := dayWindow - t.now().Sub(t.stats.LastReset)
		if wait < 0 {
			wait = 0
		}
		t.log.Warn("daily request limit reached, waiting for window reset",
			slog.Int("rpd", *t.limits.RPD),
			slog.Duration("wait", wait))
		t.mu.Unlock()
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
		t.mu.Lock()
		t.stats.LastDayCalls = 0
	}

	if t.limits.RPM != nil && t.stats.LastMinuteCalls >= *t.limits.RPM {
		t.log.Warn("minute request limit reached, waiting for next minute",
			slog.Int("rpm", *t.limits.RPM))
		t.mu.Unlock()
		if err := t.sleep(ctx, time.Minute); err != nil {
			return err
		}
		t.mu.Lock()
		t.stats.LastMinuteCalls = 0
	}

	if t.limits.TPM != nil && t.stats.MinuteTokens >= *t.limits.TPM {
		t.log.Warn("minute token limit reached, waiting for next minute",
			slog.Int("tpm", *t.limits.TPM))
		t.mu.Unlock()
		if err := t.sleep(ctx, time.Minute); err != nil {
			return err
		}
		t.mu.Lock()
		t.stats.MinuteTokens = 0
	}

	t.mu.Unlock()
	return nil
}

// Update records one completed inference call of tokenCount total tokens.
func (t *Tracker) Update(tokenCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.MinuteTokens += tokenCount
	t.stats.DayTokens += tokenCount
	t.stats.TotalTokens += tokenCount
	t.stats.Calls++
	t.stats.LastMinuteCalls++
	t.stats.LastDayCalls++
}

// ResetMinute zeroes the per-minute counters. The queue worker calls this on
// a rolling 60-second ticker while a pipeline run is in flight.
func (t *Tracker) ResetMinute() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.MinuteTokens = 0
	t.stats.LastMinuteCalls = 0
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.stats
}

// Limits returns the quota the tracker enforces.
func (t *Tracker) Limits() Limits {
	return t.limits
}

// Cost computes the USD cost of a call from the model's pricing. Returns
// zero when the model has no pricing configured.
func (t *Tracker) Cost(inputTokens, outputTokens int) float64 {
	if t.limits.Pricing == nil {
		return 0
	}
	in := float64(inputTokens) / 1000 * t.limits.Pricing.InputPer1K
	out := float64(outputTokens) / 1000 * t.limits.Pricing.OutputPer1K
	return in + out
}

// Summary renders a human-readable usage report for end-of-run logging.
func (t *Tracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	avg := 0
	if t.stats.Calls > 0 {
		avg = t.stats.TotalTokens / t.stats.Calls
	}

	line := func(tokens int, limit *int) string {
		if limit != nil {
			return fmt.Sprintf("%d tokens (limit: %d)", tokens, *limit)
		}
		return fmt.Sprintf("%d tokens", tokens)
	}

	return fmt.Sprintf("Model: %s\nLast minute: %s\nToday: %s\nAll time: %d tokens across %d calls\nAverage per call: %d tokens",
		t.limits.ModelName,
		line(t.stats.MinuteTokens, t.limits.TPM),
		line(t.stats.DayTokens, t.limits.TPD),
		t.stats.TotalTokens, t.stats.Calls, avg)
}
