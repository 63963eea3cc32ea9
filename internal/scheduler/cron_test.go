package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextCronFireEveryFiveMinutes(t *testing.T) {
	after := time.Date(2026, 8, 2, 10, 2, 0, 0, time.UTC)
	next, err := NextCronFire("*/5 * * * *", "UTC", after)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 8, 2, 10, 5, 0, 0, time.UTC), next)
}

func TestNextCronFireInvalidExpressionErrors(t *testing.T) {
	_, err := NextCronFire("not a cron expr", "UTC", time.Now())
	require.Error(t, err)
}

func TestNextCronFireInvalidTimezoneErrors(t *testing.T) {
	_, err := NextCronFire("* * * * *", "Not/AZone", time.Now())
	require.Error(t, err)
}

func TestPreviewCronReturnsFiveRuns(t *testing.T) {
	preview := PreviewCron("0 * * * *", "UTC", time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC))
	require.True(t, preview.Valid)
	require.Len(t, preview.NextRuns, 5)
	require.Equal(t, time.Date(2026, 8, 2, 11, 0, 0, 0, time.UTC), preview.NextRuns[0])
	require.Equal(t, time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC), preview.NextRuns[1])
}

func TestPreviewCronInvalidReportsError(t *testing.T) {
	preview := PreviewCron("bogus", "UTC", time.Now())
	require.False(t, preview.Valid)
	require.NotEmpty(t, preview.Error)
}

// DST transition: on the day America/New_York springs forward, the
// 02:00-03:00 wall-clock hour doesn't exist. A trigger scheduled for
// 02:30 must skip that day entirely, landing on the next matching day.
func TestNextCronFireAcrossSpringForwardDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	springForwardDay := findSpringForwardDay(t, loc, 2026)
	before := time.Date(springForwardDay.Year(), springForwardDay.Month(), springForwardDay.Day(), 1, 0, 0, 0, loc)

	next, err := NextCronFire("30 2 * * *", "America/New_York", before)
	require.NoError(t, err)
	require.NotEqual(t, springForwardDay.Day(), next.Day(), "02:30 does not exist on the spring-forward day")
}

// findSpringForwardDay scans a year for the day whose midnight-to-midnight
// span is 23 hours — the unambiguous signature of a spring-forward
// transition — rather than hard-coding a rule-dependent calendar date.
func findSpringForwardDay(t *testing.T, loc *time.Location, year int) time.Time {
	t.Helper()
	day := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	for i := 0; i < 366; i++ {
		next := day.AddDate(0, 0, 1)
		if next.Sub(day) < 24*time.Hour {
			return day
		}
		day = next
	}
	t.Fatal("no spring-forward transition found in year")
	return time.Time{}
}
