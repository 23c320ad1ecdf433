// Package queue manages the persistent scrape work queue: deciding which
// organizations are due, enqueueing them by priority and running the
// worker loop that drains the queue through the pipeline.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/schedule"
	"github.com/scoutly/scoutly/internal/store"
)

// DefaultEnqueueCap bounds how many organizations one scheduling pass may
// enqueue.
const DefaultEnqueueCap = 50

// Storage is the persistence the queue needs.
type Storage interface {
	EnqueueIfAbsent(ctx context.Context, orgID uuid.UUID, priority float64) (*store.QueueJob, error)
	ClaimNext(ctx context.Context) (*store.QueueJob, error)
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, cause string) (*store.QueueJob, error)
	ResetStuck(ctx context.Context, olderThan time.Duration) (int, error)
	ListStuck(ctx context.Context, olderThan time.Duration) ([]store.StuckJob, error)
	CountByStatus(ctx context.Context) (*store.QueueStatus, error)

	ListTracked(ctx context.Context) ([]store.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*store.Organization, error)
	StampScraped(ctx context.Context, id uuid.UUID, at time.Time, successful bool) error
	MarkProblematic(ctx context.Context, id uuid.UUID, problematic bool) error
}

// Manager schedules organizations onto the queue.
type Manager struct {
	storage    Storage
	log        *slog.Logger
	enqueueCap int
	now        func() time.Time
}

// NewManager creates a Manager.
func NewManager(storage Storage, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		storage:    storage,
		log:        log,
		enqueueCap: DefaultEnqueueCap,
		now:        time.Now,
	}
}

// SetEnqueueCap overrides the per-pass enqueue cap.
func (m *Manager) SetEnqueueCap(n int) {
	if n > 0 {
		m.enqueueCap = n
	}
}

// WithClock overrides the clock. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

type dueOrg struct {
	org      store.Organization
	priority float64
}

// EnqueueDue enqueues every tracked organization whose scrape is due,
// highest priority first, up to the enqueue cap. Organizations already
// pending or processing are left alone. Returns the number enqueued.
func (m *Manager) EnqueueDue(ctx context.Context) (int, error) {
	orgs, err := m.storage.ListTracked(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list organizations: %w", err)
	}

	now := m.now()
	var due []dueOrg
	for _, org := range orgs {
		// due-ness counts from the last scrape that worked; a failed
		// attempt must not push the next one out a whole interval
		isDue, err := schedule.IsDue(org.Rank, org.LastSuccessfulScrapeAt, now)
		if err != nil {
			m.log.Warn("skipping organization with invalid rank", "org", org.Name, "rank", org.Rank)
			continue
		}
		if !isDue {
			continue
		}
		priority, err := schedule.Priority(org.Rank, org.LastSuccessfulScrapeAt, now)
		if err != nil {
			continue
		}
		due = append(due, dueOrg{org: org, priority: priority})
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].priority > due[j].priority })
	if len(due) > m.enqueueCap {
		due = due[:m.enqueueCap]
	}

	enqueued := 0
	for _, d := range due {
		job, err := m.storage.EnqueueIfAbsent(ctx, d.org.ID, d.priority)
		if err != nil {
			return enqueued, err
		}
		if job != nil {
			enqueued++
			m.log.Debug("organization enqueued",
				"org", d.org.Name, "priority", fmt.Sprintf("%.1f", d.priority))
		}
	}

	m.log.Info("scheduling pass done", "due", len(due), "enqueued", enqueued)
	return enqueued, nil
}

// SweepStuck returns abandoned processing jobs to pending.
func (m *Manager) SweepStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := m.storage.ResetStuck(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Warn("reset stuck jobs", "count", n)
	}
	return n, nil
}

// Status returns the queue depth per status.
func (m *Manager) Status(ctx context.Context) (*store.QueueStatus, error) {
	return m.storage.CountByStatus(ctx)
}

// Stuck lists processing jobs that look abandoned without touching them.
func (m *Manager) Stuck(ctx context.Context, olderThan time.Duration) ([]store.StuckJob, error) {
	return m.storage.ListStuck(ctx, olderThan)
}

// FormatStatus renders a queue status as a short human report.
func FormatStatus(s *store.QueueStatus) string {
	var sb strings.Builder
	sb.WriteString("Queue status:\n")
	fmt.Fprintf(&sb, "  pending:    %d\n", s.Pending)
	fmt.Fprintf(&sb, "  processing: %d\n", s.Processing)
	fmt.Fprintf(&sb, "  completed:  %d\n", s.Completed)
	fmt.Fprintf(&sb, "  failed:     %d\n", s.Failed)
	return sb.String()
}
