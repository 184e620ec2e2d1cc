package models

import (
	"encoding/json"
	"time"
)

// Event is a row of the event_log queue, produced by database triggers
// on row changes and drained by the delivery engine.
type Event struct {
	ID          string          `json:"id"`
	SchemaName  string          `json:"schema_name"`
	TableName   string          `json:"table_name"`
	TriggerName string          `json:"trigger_name"`
	Payload     json.RawMessage `json:"payload"`
	Tries       int             `json:"tries"`
	CreatedAt   time.Time       `json:"created_at"`

	Locked      bool       `json:"locked"`
	Delivered   bool       `json:"delivered"`
	Error       bool       `json:"error"`
	Archived    bool       `json:"archived"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Terminal reports whether the row must never be leased again.
func (e *Event) Terminal() bool {
	return e.Delivered || e.Error || e.Archived
}

// CronStats is one row of the hdb_scheduled_events_stats view: how many
// upcoming events a cron trigger has and the latest scheduled time among them.
type CronStats struct {
	TriggerName      string     `json:"trigger_name"`
	UpcomingCount    int        `json:"upcoming_events_count"`
	MaxScheduledTime *time.Time `json:"max_scheduled_time,omitempty"`
}
