package models

import (
	"encoding/json"
	"time"
)

// ScheduledEvent is a row of the hdb_scheduled_events queue. Cron rows are
// inserted by the materializer, ad-hoc rows by the API.
type ScheduledEvent struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ScheduledTime     time.Time       `json:"scheduled_time"`
	AdditionalPayload json.RawMessage `json:"additional_payload,omitempty"`
	Tries             int             `json:"tries"`

	Locked      bool       `json:"locked"`
	Delivered   bool       `json:"delivered"`
	Error       bool       `json:"error"`
	Dead        bool       `json:"dead"`
	Cancelled   bool       `json:"cancelled"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Terminal reports whether the row must never be leased again.
func (s *ScheduledEvent) Terminal() bool {
	return s.Delivered || s.Error || s.Dead || s.Cancelled
}

// CreateScheduledEventRequest is the API request for inserting an ad-hoc
// scheduled event.
type CreateScheduledEventRequest struct {
	TriggerName string          `json:"trigger_name" binding:"required" example:"nightly-report"`
	ScheduleAt  time.Time       `json:"schedule_at" binding:"required" example:"2025-11-05T15:00:00Z"`
	Payload     json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
} // @name CreateScheduledEventRequest

// ScheduledEventResponse is the API representation of a scheduled event row.
type ScheduledEventResponse struct {
	ID            string          `json:"id" example:"660e8400-e29b-41d4-a716-446655440000"`
	TriggerName   string          `json:"trigger_name" example:"nightly-report"`
	ScheduledTime time.Time       `json:"scheduled_time" example:"2025-11-05T15:00:00Z"`
	Payload       json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
	Tries         int             `json:"tries" example:"0"`
	Status        string          `json:"status" example:"scheduled"`
} // @name ScheduledEventResponse

// Status derives the API-facing status string from the row flags.
func (s *ScheduledEvent) Status() string {
	switch {
	case s.Delivered:
		return "delivered"
	case s.Error:
		return "error"
	case s.Dead:
		return "dead"
	case s.Cancelled:
		return "cancelled"
	case s.Locked:
		return "locked"
	default:
		return "scheduled"
	}
}
