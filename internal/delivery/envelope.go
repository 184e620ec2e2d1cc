package delivery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// eventEnvelope is the wire body POSTed for event-trigger deliveries.
// Field names and nesting are part of the external contract; do not rename.
type eventEnvelope struct {
	ID           string          `json:"id"`
	Table        tableInfo       `json:"table"`
	Trigger      triggerInfo     `json:"trigger"`
	Event        json.RawMessage `json:"event"`
	DeliveryInfo deliveryInfo    `json:"delivery_info"`
	CreatedAt    string          `json:"created_at"`
}

type tableInfo struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type triggerInfo struct {
	Name string `json:"name"`
}

type deliveryInfo struct {
	CurrentRetry int `json:"current_retry"`
	MaxRetries   int `json:"max_retries"`
}

// scheduledEnvelope is the wire body POSTed for scheduled-trigger
// deliveries. Also part of the external contract.
type scheduledEnvelope struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ScheduledTime string          `json:"scheduled_time"`
	Tries         int             `json:"tries"`
	Webhook       string          `json:"webhook"`
	Payload       json.RawMessage `json:"payload"`
	RetryConf     models.RetryConf `json:"retry_conf"`
}

// EventRequestBody renders the JSON envelope for an event_log row.
func EventRequestBody(ev *models.Event, conf models.EventTriggerConf) ([]byte, error) {
	env := eventEnvelope{
		ID:      ev.ID,
		Table:   tableInfo{Schema: ev.SchemaName, Name: ev.TableName},
		Trigger: triggerInfo{Name: ev.TriggerName},
		Event:   ev.Payload,
		DeliveryInfo: deliveryInfo{
			CurrentRetry: ev.Tries,
			MaxRetries:   conf.Retry.NumRetries,
		},
		CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return b, nil
}

// ScheduledRequestBody renders the JSON envelope for a scheduled event row.
// The row's payload override wins over the trigger's default payload; both
// absent yields an explicit JSON null.
func ScheduledRequestBody(ev *models.ScheduledEvent, conf models.ScheduledTriggerConf) ([]byte, error) {
	payload := ev.AdditionalPayload
	if payload == nil {
		payload = conf.Payload
	}
	if payload == nil {
		payload = json.RawMessage("null")
	}

	env := scheduledEnvelope{
		ID:            ev.ID,
		Name:          ev.Name,
		ScheduledTime: ev.ScheduledTime.UTC().Format(time.RFC3339),
		Tries:         ev.Tries,
		Webhook:       conf.WebhookURL,
		Payload:       payload,
		RetryConf:     conf.Retry,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal scheduled envelope: %w", err)
	}
	return b, nil
}
