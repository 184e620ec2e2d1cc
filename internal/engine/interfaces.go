package engine

import (
	"context"

	"github.com/dhima/webhook-delivery-engine/internal/delivery"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
	"github.com/dhima/webhook-delivery-engine/platform/events"
)

// EventQueue is the storage surface the engine needs for the event_log
// queue. *storage.MySQLClient implements it.
type EventQueue interface {
	LeaseEvents(ctx context.Context, limit int) ([]models.Event, error)
	UnlockAllEvents(ctx context.Context) (int64, error)
	RecordEventInvocation(ctx context.Context, inv *models.Invocation, t storage.EventTransition) error
}

// ScheduledQueue is the storage surface for the hdb_scheduled_events
// queue, including cron materialization. *storage.MySQLClient implements it.
type ScheduledQueue interface {
	LeaseScheduledEvents(ctx context.Context, limit int) ([]models.ScheduledEvent, error)
	UnlockAllScheduledEvents(ctx context.Context) (int64, error)
	RecordScheduledInvocation(ctx context.Context, inv *models.Invocation, t storage.ScheduledTransition) error
	CronStats(ctx context.Context) (map[string]models.CronStats, error)
	InsertScheduledEvents(ctx context.Context, evs []models.ScheduledEvent) error
	MarkScheduledDead(ctx context.Context, id string) error
}

// Deliverer posts a webhook request and classifies the result.
// *delivery.Deliverer implements it.
type Deliverer interface {
	Deliver(ctx context.Context, req delivery.Request) delivery.Outcome
}

// OutcomePublisher receives a record of every delivery attempt. Publishing
// is best effort; failures are logged and never block queue progress.
// *events.Publisher implements it.
type OutcomePublisher interface {
	Publish(ctx context.Context, rec events.InvocationRecord) error
}
