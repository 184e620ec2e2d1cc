package storage

import "time"

// TransitionKind enumerates the centralized row state transitions. The full
// set is deliberately small; every transition releases the lock.
type TransitionKind int

const (
	// TransitionSuccess marks the row delivered.
	TransitionSuccess TransitionKind = iota
	// TransitionError marks the row terminally failed.
	TransitionError
	// TransitionRetry schedules the next attempt and releases the lock.
	TransitionRetry
)

// EventTransition is a state transition for an event_log row.
type EventTransition struct {
	Kind    TransitionKind
	RetryAt time.Time
}

// EventSuccess: delivered=true, next_retry_at=NULL, locked=false.
func EventSuccess() EventTransition {
	return EventTransition{Kind: TransitionSuccess}
}

// EventError: error=true, next_retry_at=NULL, locked=false.
func EventError() EventTransition {
	return EventTransition{Kind: TransitionError}
}

// EventRetry: next_retry_at=t, locked=false.
func EventRetry(t time.Time) EventTransition {
	return EventTransition{Kind: TransitionRetry, RetryAt: t}
}

// ScheduledTransition is a state transition for an hdb_scheduled_events row.
type ScheduledTransition struct {
	Kind    TransitionKind
	RetryAt time.Time
}

// ScheduledSuccess: delivered=true, next_retry_at=NULL, locked=false.
func ScheduledSuccess() ScheduledTransition {
	return ScheduledTransition{Kind: TransitionSuccess}
}

// ScheduledError: error=true, locked=false. Unlike the event queue,
// next_retry_at is left untouched on the scheduled queue.
func ScheduledError() ScheduledTransition {
	return ScheduledTransition{Kind: TransitionError}
}

// ScheduledRetry: next_retry_at=t, locked=false.
func ScheduledRetry(t time.Time) ScheduledTransition {
	return ScheduledTransition{Kind: TransitionRetry, RetryAt: t}
}
