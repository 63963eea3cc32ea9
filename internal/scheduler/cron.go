package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/matt-ortiz/PyScheduler/internal/common"
)

// cronParser is the single parser every cron expression in this
// process goes through — the HTTP validate-cron endpoint, trigger
// validation, and the scheduler's own arming all reach it via
// ParseCron (directly or through NextCronFire/PreviewCron), so there is
// exactly one notion of "valid cron expression" (spec §4.3's
// single-parser requirement).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCron validates expression and returns its Schedule.
func ParseCron(expression string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expression)
	if err != nil {
		return nil, common.Wrap(common.KindValidation, "invalid cron expression: %v", err)
	}
	return sched, nil
}

// NextCronFire computes the next fire time strictly after `after`, in
// the given IANA timezone. Times that don't exist (spring-forward) or
// repeat (fall-back) are handled the way robfig/cron's Schedule.Next
// resolves them against a time.Time carrying that zone's Location —
// a skipped wall-clock minute is simply not a match, and a repeated
// one fires on its first occurrence only.
func NextCronFire(expression, timezone string, after time.Time) (time.Time, error) {
	sched, err := ParseCron(expression)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, common.Wrap(common.KindValidation, "invalid timezone: %v", err)
	}
	return sched.Next(after.In(loc)), nil
}

// CronPreview is the validate_and_preview result returned by the HTTP
// surface (spec §4.3).
type CronPreview struct {
	Valid    bool        `json:"valid"`
	NextRuns []time.Time `json:"next_runs,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// PreviewCron validates expression+timezone and, if valid, returns the
// next five fire times after now.
func PreviewCron(expression, timezone string, now time.Time) CronPreview {
	sched, err := ParseCron(expression)
	if err != nil {
		return CronPreview{Valid: false, Error: err.Error()}
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return CronPreview{Valid: false, Error: "invalid timezone: " + err.Error()}
	}

	t := now.In(loc)
	runs := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		t = sched.Next(t)
		runs = append(runs, t)
	}
	return CronPreview{Valid: true, NextRuns: runs}
}
