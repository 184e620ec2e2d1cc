package delivery

import (
	"strconv"
	"time"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// Decision is the state transition an attempt's outcome calls for.
type Decision int

const (
	// DecisionSuccess marks the row delivered.
	DecisionSuccess Decision = iota
	// DecisionRetry schedules another attempt at RetryAt.
	DecisionRetry
	// DecisionError marks the row terminally failed.
	DecisionError
)

// RetryPlan is the result of applying a trigger's retry policy to an outcome.
type RetryPlan struct {
	Decision Decision
	RetryAt  time.Time // set only for DecisionRetry
}

// Decide applies the retry policy. tries is the row's attempt count prior
// to this attempt. A positive Retry-After header always forces a retry,
// even when tries are exhausted, and its value wins over the configured
// interval for computing the next attempt time.
func Decide(outcome Outcome, retry models.RetryConf, tries int, now time.Time) RetryPlan {
	if outcome.Success() {
		return RetryPlan{Decision: DecisionSuccess}
	}

	if outcome.RetryAfter != nil {
		return RetryPlan{
			Decision: DecisionRetry,
			RetryAt:  now.Add(time.Duration(*outcome.RetryAfter) * time.Second),
		}
	}

	if tries < retry.NumRetries {
		return RetryPlan{
			Decision: DecisionRetry,
			RetryAt:  now.Add(time.Duration(retry.IntervalSeconds) * time.Second),
		}
	}

	return RetryPlan{Decision: DecisionError}
}

// parseRetryAfter accepts only a positive integer number of seconds.
// Negative, zero, or unparseable values (including HTTP-date forms) are
// ignored.
func parseRetryAfter(value string) *int {
	if value == "" {
		return nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return nil
	}
	return &seconds
}
