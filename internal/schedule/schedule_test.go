package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalFor_Bands(t *testing.T) {
	tests := []struct {
		rank int
		want time.Duration
	}{
		{100, 24 * time.Hour},
		{81, 24 * time.Hour},
		{80, 2 * 24 * time.Hour},
		{61, 2 * 24 * time.Hour},
		{60, 3 * 24 * time.Hour},
		{31, 3 * 24 * time.Hour},
		{30, 4 * 24 * time.Hour},
		{11, 4 * 24 * time.Hour},
		{10, 5 * 24 * time.Hour},
		{1, 5 * 24 * time.Hour},
	}

	for _, tt := range tests {
		got, err := IntervalFor(tt.rank)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "rank %d", tt.rank)
	}
}

func TestIntervalFor_NonIncreasing(t *testing.T) {
	prev, err := IntervalFor(MinRank)
	require.NoError(t, err)

	for rank := MinRank + 1; rank <= MaxRank; rank++ {
		cur, err := IntervalFor(rank)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur, prev, "interval must not grow with rank (rank %d)", rank)
		prev = cur
	}
}

func TestIntervalFor_RejectsOutOfRange(t *testing.T) {
	for _, rank := range []int{0, -1, 101, 1000} {
		_, err := IntervalFor(rank)
		require.Error(t, err)
		var rankErr *RankError
		assert.ErrorAs(t, err, &rankErr)
	}
}

func TestIsDue_NeverScraped(t *testing.T) {
	now := time.Now()
	for _, rank := range []int{1, 10, 50, 90, 100} {
		due, err := IsDue(rank, nil, now)
		require.NoError(t, err)
		assert.True(t, due, "never-scraped organization must always be due (rank %d)", rank)
	}
}

func TestIsDue_RespectsInterval(t *testing.T) {
	now := time.Now()

	// Rank 90 has a 1-day interval.
	recent := now.Add(-12 * time.Hour)
	due, err := IsDue(90, &recent, now)
	require.NoError(t, err)
	assert.False(t, due)

	exact := now.Add(-24 * time.Hour)
	due, err = IsDue(90, &exact, now)
	require.NoError(t, err)
	assert.True(t, due, "elapsed == interval counts as due")

	overdue := now.Add(-48 * time.Hour)
	due, err = IsDue(90, &overdue, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestPriority_NeverScrapedEqualsRank(t *testing.T) {
	now := time.Now()
	for _, rank := range []int{1, 42, 100} {
		p, err := Priority(rank, nil, now)
		require.NoError(t, err)
		assert.Equal(t, float64(rank), p)
	}
}

func TestPriority_ScalesWithOverdue(t *testing.T) {
	now := time.Now()

	// Exactly one interval elapsed: factor is 1, priority equals rank.
	exact := now.Add(-24 * time.Hour)
	p, err := Priority(90, &exact, now)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, p, 0.001)

	// Doubling the elapsed time doubles the priority.
	double := now.Add(-48 * time.Hour)
	p2, err := Priority(90, &double, now)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, p2, 0.001)
}

func TestPriority_FlooredAtRank(t *testing.T) {
	now := time.Now()

	// A barely-elapsed scrape must not drop priority below the rank itself.
	recent := now.Add(-1 * time.Hour)
	p, err := Priority(90, &recent, now)
	require.NoError(t, err)
	assert.Equal(t, 90.0, p)
}

func TestPriority_OverdueHighRankBeatsBarelyDueLowRank(t *testing.T) {
	now := time.Now()

	// Rank 90 three days overdue vs rank 100 exactly due.
	overdue := now.Add(-3 * 24 * time.Hour)
	exact := now.Add(-24 * time.Hour)

	pHigh, err := Priority(90, &overdue, now)
	require.NoError(t, err)
	pLow, err := Priority(100, &exact, now)
	require.NoError(t, err)

	assert.Greater(t, pHigh, pLow)
}

func TestFrequencyDescription(t *testing.T) {
	desc, err := FrequencyDescription(95)
	require.NoError(t, err)
	assert.Equal(t, "Daily", desc)

	desc, err = FrequencyDescription(40)
	require.NoError(t, err)
	assert.Equal(t, "Every 3 days", desc)
}
