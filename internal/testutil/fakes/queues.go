// Package fakes provides in-memory stand-ins for the engine's storage,
// delivery, and publishing dependencies. All fakes are safe for
// concurrent use.
package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
	"github.com/dhima/webhook-delivery-engine/pkg/clock"
)

// FakeEventQueue mimics the event_log table, including lease eligibility
// and the transition semantics applied by invocation recording.
type FakeEventQueue struct {
	mu          sync.Mutex
	events      map[string]*models.Event
	invocations []models.Invocation

	Clock clock.Clock

	LeaseErr  error
	RecordErr error
}

func NewFakeEventQueue() *FakeEventQueue {
	return &FakeEventQueue{
		events: make(map[string]*models.Event),
		Clock:  clock.RealClock{},
	}
}

// Add seeds one row.
func (q *FakeEventQueue) Add(ev models.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := ev
	q.events[ev.ID] = &copied
}

func (q *FakeEventQueue) LeaseEvents(_ context.Context, limit int) ([]models.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.LeaseErr != nil {
		return nil, q.LeaseErr
	}

	now := q.Clock.Now()
	var eligible []*models.Event
	for _, ev := range q.events {
		if ev.Locked || ev.Terminal() {
			continue
		}
		if ev.NextRetryAt != nil && ev.NextRetryAt.After(now) {
			continue
		}
		eligible = append(eligible, ev)
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	leased := make([]models.Event, 0, len(eligible))
	for _, ev := range eligible {
		ev.Locked = true
		leased = append(leased, *ev)
	}
	return leased, nil
}

func (q *FakeEventQueue) UnlockAllEvents(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var count int64
	for _, ev := range q.events {
		if ev.Locked {
			ev.Locked = false
			count++
		}
	}
	return count, nil
}

func (q *FakeEventQueue) RecordEventInvocation(_ context.Context, inv *models.Invocation, t storage.EventTransition) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.RecordErr != nil {
		return q.RecordErr
	}

	ev, ok := q.events[inv.EventID]
	if !ok {
		return fmt.Errorf("unknown event %s", inv.EventID)
	}

	ev.Tries++
	ev.Locked = false
	switch t.Kind {
	case storage.TransitionSuccess:
		ev.Delivered = true
		ev.NextRetryAt = nil
	case storage.TransitionError:
		ev.Error = true
		ev.NextRetryAt = nil
	case storage.TransitionRetry:
		at := t.RetryAt
		ev.NextRetryAt = &at
	}

	stored := *inv
	stored.CreatedAt = q.Clock.Now()
	q.invocations = append(q.invocations, stored)
	return nil
}

// Event returns a snapshot of one row.
func (q *FakeEventQueue) Event(id string) (models.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev, ok := q.events[id]
	if !ok {
		return models.Event{}, false
	}
	return *ev, true
}

// Invocations returns the recorded invocations in insertion order.
func (q *FakeEventQueue) Invocations() []models.Invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Invocation(nil), q.invocations...)
}

// FakeScheduledQueue mimics the hdb_scheduled_events table, including the
// (name, scheduled_time) uniqueness that makes materialization idempotent.
type FakeScheduledQueue struct {
	mu          sync.Mutex
	events      map[string]*models.ScheduledEvent
	seen        map[string]bool // name + scheduled_time dedupe
	invocations []models.Invocation

	Clock clock.Clock

	LeaseErr  error
	RecordErr error
	StatsErr  error
}

func NewFakeScheduledQueue() *FakeScheduledQueue {
	return &FakeScheduledQueue{
		events: make(map[string]*models.ScheduledEvent),
		seen:   make(map[string]bool),
		Clock:  clock.RealClock{},
	}
}

func dedupeKey(name string, at time.Time) string {
	return name + "|" + at.UTC().Format(time.RFC3339Nano)
}

// Add seeds one row.
func (q *FakeScheduledQueue) Add(ev models.ScheduledEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := ev
	q.events[ev.ID] = &copied
	q.seen[dedupeKey(ev.Name, ev.ScheduledTime)] = true
}

func (q *FakeScheduledQueue) LeaseScheduledEvents(_ context.Context, limit int) ([]models.ScheduledEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.LeaseErr != nil {
		return nil, q.LeaseErr
	}

	now := q.Clock.Now()
	var eligible []*models.ScheduledEvent
	for _, ev := range q.events {
		if ev.Locked || ev.Terminal() {
			continue
		}
		due := ev.NextRetryAt == nil && !ev.ScheduledTime.After(now) ||
			ev.NextRetryAt != nil && !ev.NextRetryAt.After(now)
		if !due {
			continue
		}
		eligible = append(eligible, ev)
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ScheduledTime.Before(eligible[j].ScheduledTime)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	leased := make([]models.ScheduledEvent, 0, len(eligible))
	for _, ev := range eligible {
		ev.Locked = true
		leased = append(leased, *ev)
	}
	return leased, nil
}

func (q *FakeScheduledQueue) UnlockAllScheduledEvents(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var count int64
	for _, ev := range q.events {
		if ev.Locked {
			ev.Locked = false
			count++
		}
	}
	return count, nil
}

func (q *FakeScheduledQueue) RecordScheduledInvocation(_ context.Context, inv *models.Invocation, t storage.ScheduledTransition) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.RecordErr != nil {
		return q.RecordErr
	}

	ev, ok := q.events[inv.EventID]
	if !ok {
		return fmt.Errorf("unknown scheduled event %s", inv.EventID)
	}

	ev.Tries++
	ev.Locked = false
	switch t.Kind {
	case storage.TransitionSuccess:
		ev.Delivered = true
		ev.NextRetryAt = nil
	case storage.TransitionError:
		// next_retry_at is deliberately left in place.
		ev.Error = true
	case storage.TransitionRetry:
		at := t.RetryAt
		ev.NextRetryAt = &at
	}

	stored := *inv
	stored.CreatedAt = q.Clock.Now()
	q.invocations = append(q.invocations, stored)
	return nil
}

func (q *FakeScheduledQueue) CronStats(context.Context) (map[string]models.CronStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.StatsErr != nil {
		return nil, q.StatsErr
	}

	now := q.Clock.Now()
	stats := make(map[string]models.CronStats)
	for _, ev := range q.events {
		if ev.Terminal() || !ev.ScheduledTime.After(now) {
			continue
		}
		s := stats[ev.Name]
		s.TriggerName = ev.Name
		s.UpcomingCount++
		if s.MaxScheduledTime == nil || ev.ScheduledTime.After(*s.MaxScheduledTime) {
			at := ev.ScheduledTime
			s.MaxScheduledTime = &at
		}
		stats[ev.Name] = s
	}
	return stats, nil
}

func (q *FakeScheduledQueue) InsertScheduledEvents(_ context.Context, evs []models.ScheduledEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range evs {
		key := dedupeKey(evs[i].Name, evs[i].ScheduledTime)
		if q.seen[key] {
			continue
		}
		q.seen[key] = true
		copied := evs[i]
		q.events[copied.ID] = &copied
	}
	return nil
}

func (q *FakeScheduledQueue) MarkScheduledDead(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	ev, ok := q.events[id]
	if !ok {
		return fmt.Errorf("unknown scheduled event %s", id)
	}
	ev.Dead = true
	ev.Locked = false
	return nil
}

// ScheduledEvent returns a snapshot of one row.
func (q *FakeScheduledQueue) ScheduledEvent(id string) (models.ScheduledEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev, ok := q.events[id]
	if !ok {
		return models.ScheduledEvent{}, false
	}
	return *ev, true
}

// CountByName returns how many rows exist per trigger name.
func (q *FakeScheduledQueue) CountByName(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, ev := range q.events {
		if ev.Name == name {
			count++
		}
	}
	return count
}

// Invocations returns the recorded invocations in insertion order.
func (q *FakeScheduledQueue) Invocations() []models.Invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Invocation(nil), q.invocations...)
}
