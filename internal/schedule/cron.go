package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parse parses a standard five-field cron expression (an optional seconds
// field is accepted). Expressions are always evaluated in UTC.
func Parse(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched, nil
}

// NextMatch returns the first firing time strictly after t, in UTC.
func NextMatch(sched cron.Schedule, t time.Time) time.Time {
	return sched.Next(t.UTC()).UTC()
}

// GenerateScheduleTimes computes the next n firing times of expr strictly
// after from: t0 = NextMatch(from), then each subsequent value is the next
// match after the previous one. The result is strictly increasing.
func GenerateScheduleTimes(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := Parse(expr)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = NextMatch(sched, t)
		if t.IsZero() {
			return nil, fmt.Errorf("cron expression %q has no further matches after %s", expr, from)
		}
		times = append(times, t)
	}
	return times, nil
}
