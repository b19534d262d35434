package workers

import (
	"fmt"
	"time"

	"github.com/benvon/smart-reminders/internal/models"
)

// NextFireTime advances fire by whole recurrence periods until it is
// strictly after now. Monthly and yearly steps land on anchorDay, clamped to
// the length of the target month, so a reminder on the 31st returns to the
// 31st after a shorter month. A zero anchorDay uses fire's own day.
func NextFireTime(fire time.Time, anchorDay int, recurrence models.Recurrence, now time.Time) (time.Time, error) {
	var (
		step   func(n int) time.Time
		approx time.Duration
	)
	switch recurrence {
	case models.RecurrenceDaily:
		step = func(n int) time.Time { return fire.AddDate(0, 0, n) }
		approx = 24 * time.Hour
	case models.RecurrenceWeekly:
		step = func(n int) time.Time { return fire.AddDate(0, 0, 7*n) }
		approx = 7 * 24 * time.Hour
	case models.RecurrenceMonthly:
		step = func(n int) time.Time { return addMonthsClamped(fire, n, anchorDay) }
		approx = 28 * 24 * time.Hour
	case models.RecurrenceYearly:
		step = func(n int) time.Time { return addMonthsClamped(fire, 12*n, anchorDay) }
		approx = 365 * 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("reminder recurrence %q does not repeat", recurrence)
	}

	// jump close to now, then settle on the first step past it
	n := 1
	if gap := now.Sub(fire); gap > approx {
		n = int(gap / approx)
	}
	for n > 1 && step(n-1).After(now) {
		n--
	}
	for !step(n).After(now) {
		n++
	}
	return step(n), nil
}

// addMonthsClamped adds n calendar months and moves to anchorDay, clamping
// it to the end of the target month.
func addMonthsClamped(t time.Time, n, anchorDay int) time.Time {
	year, month, day := t.Date()
	if anchorDay > 0 {
		day = anchorDay
	}
	hour, minute, sec := t.Clock()
	first := time.Date(year, month+time.Month(n), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
