// Package registry holds the read-only trigger configuration snapshot the
// delivery engine consults on every processing cycle.
package registry

import (
	"context"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// Registry is an immutable mapping from trigger name to resolved
// configuration. Build one per tick via a SnapshotProvider; never mutate it.
type Registry struct {
	eventTriggers     map[string]models.EventTriggerConf
	scheduledTriggers map[string]models.ScheduledTriggerConf
}

// SnapshotProvider returns the current trigger configuration. The engine
// calls it once per processing cycle so config changes become visible
// without restarting workers.
type SnapshotProvider func(ctx context.Context) (*Registry, error)

// New builds a registry snapshot from resolved trigger configurations.
func New(eventTriggers []models.EventTriggerConf, scheduledTriggers []models.ScheduledTriggerConf) *Registry {
	r := &Registry{
		eventTriggers:     make(map[string]models.EventTriggerConf, len(eventTriggers)),
		scheduledTriggers: make(map[string]models.ScheduledTriggerConf, len(scheduledTriggers)),
	}
	for _, t := range eventTriggers {
		r.eventTriggers[t.Name] = t
	}
	for _, t := range scheduledTriggers {
		r.scheduledTriggers[t.Name] = t
	}
	return r
}

// EventTrigger resolves an event trigger by name.
func (r *Registry) EventTrigger(name string) (models.EventTriggerConf, bool) {
	t, ok := r.eventTriggers[name]
	return t, ok
}

// ScheduledTrigger resolves a scheduled trigger by name.
func (r *Registry) ScheduledTrigger(name string) (models.ScheduledTriggerConf, bool) {
	t, ok := r.scheduledTriggers[name]
	return t, ok
}

// CronTriggers returns the scheduled triggers that are cron-materialized.
func (r *Registry) CronTriggers() []models.ScheduledTriggerConf {
	out := make([]models.ScheduledTriggerConf, 0, len(r.scheduledTriggers))
	for _, t := range r.scheduledTriggers {
		if t.Schedule == models.ScheduleKindCron {
			out = append(out, t)
		}
	}
	return out
}

// Static wraps a fixed registry in a SnapshotProvider. Useful for tests and
// for callers that manage their own refresh.
func Static(r *Registry) SnapshotProvider {
	return func(context.Context) (*Registry, error) { return r, nil }
}
