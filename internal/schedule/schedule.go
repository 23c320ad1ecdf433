// Package schedule decides when a tracked organization is due for a new
// scrape based on its caller-assigned rank and last successful scrape time.
package schedule

import (
	"fmt"
	"time"
)

// Rank bounds accepted by every function in this package.
const (
	MinRank = 1
	MaxRank = 100
)

// RankError is returned when a rank falls outside [MinRank, MaxRank].
type RankError struct {
	Rank int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("rank must be between %d and %d, got %d", MinRank, MaxRank, e.Rank)
}

// IntervalFor maps a tracking rank to the minimum time between scrapes.
// Higher ranks get shorter intervals.
func IntervalFor(rank int) (time.Duration, error) {
	if rank < MinRank || rank > MaxRank {
		return 0, &RankError{Rank: rank}
	}

	switch {
	case rank >= 81:
		return 24 * time.Hour, nil
	case rank >= 61:
		return 2 * 24 * time.Hour, nil
	case rank >= 31:
		return 3 * 24 * time.Hour, nil
	case rank >= 11:
		return 4 * 24 * time.Hour, nil
	default:
		return 5 * 24 * time.Hour, nil
	}
}

// IsDue reports whether an organization should be scraped now. A nil
// lastScrapedAt means the organization has never been scraped and is
// always due.
func IsDue(rank int, lastScrapedAt *time.Time, now time.Time) (bool, error) {
	interval, err := IntervalFor(rank)
	if err != nil {
		return false, err
	}
	if lastScrapedAt == nil {
		return true, nil
	}
	return now.Sub(*lastScrapedAt) >= interval, nil
}

// Priority computes the urgency score used to order due organizations.
// A never-scraped organization scores its bare rank. Otherwise the rank is
// multiplied by how overdue the scrape is, floored at 1, so an overdue
// high-rank organization always outranks a barely-due low-rank one. The
// score is intentionally uncapped: the longer an organization is neglected,
// the higher it climbs, which guarantees eventual processing.
func Priority(rank int, lastScrapedAt *time.Time, now time.Time) (float64, error) {
	interval, err := IntervalFor(rank)
	if err != nil {
		return 0, err
	}
	if lastScrapedAt == nil {
		return float64(rank), nil
	}

	overdueFactor := float64(now.Sub(*lastScrapedAt)) / float64(interval)
	if overdueFactor < 1 {
		overdueFactor = 1
	}
	return float64(rank) * overdueFactor, nil
}

// FrequencyDescription returns a human-readable description of how often a
// rank is scraped, for status output.
func FrequencyDescription(rank int) (string, error) {
	interval, err := IntervalFor(rank)
	if err != nil {
		return "", err
	}
	days := int(interval / (24 * time.Hour))
	if days == 1 {
		return "Daily", nil
	}
	return fmt.Sprintf("Every %d days", days), nil
}
