package storage

import (
	"context"
	"fmt"
)

// QueueMetrics summarizes both delivery queues for the metrics endpoint.
type QueueMetrics struct {
	EventsPending      int64 `json:"events_pending"`
	EventsDelivered    int64 `json:"events_delivered"`
	EventsErrored      int64 `json:"events_errored"`
	ScheduledPending   int64 `json:"scheduled_pending"`
	ScheduledDelivered int64 `json:"scheduled_delivered"`
	ScheduledErrored   int64 `json:"scheduled_errored"`
	ScheduledDead      int64 `json:"scheduled_dead"`
	ScheduledCancelled int64 `json:"scheduled_cancelled"`
}

// CollectQueueMetrics counts rows per lifecycle state across both queues.
func (c *MySQLClient) CollectQueueMetrics(ctx context.Context) (*QueueMetrics, error) {
	var m QueueMetrics

	err := c.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(delivered = FALSE AND error = FALSE AND archived = FALSE), 0),
			COALESCE(SUM(delivered), 0),
			COALESCE(SUM(error), 0)
		FROM event_log`,
	).Scan(&m.EventsPending, &m.EventsDelivered, &m.EventsErrored)
	if err != nil {
		return nil, fmt.Errorf("collect event metrics: %w", err)
	}

	err = c.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(delivered = FALSE AND error = FALSE AND dead = FALSE AND cancelled = FALSE), 0),
			COALESCE(SUM(delivered), 0),
			COALESCE(SUM(error), 0),
			COALESCE(SUM(dead), 0),
			COALESCE(SUM(cancelled), 0)
		FROM hdb_scheduled_events`,
	).Scan(&m.ScheduledPending, &m.ScheduledDelivered, &m.ScheduledErrored, &m.ScheduledDead, &m.ScheduledCancelled)
	if err != nil {
		return nil, fmt.Errorf("collect scheduled metrics: %w", err)
	}

	return &m, nil
}
