package models

import (
	"encoding/json"
)

// ScheduleKind distinguishes how a scheduled trigger produces events.
type ScheduleKind string

const (
	// ScheduleKindCron triggers are materialized ahead of time from a cron expression.
	ScheduleKindCron ScheduleKind = "cron"
	// ScheduleKindAdhoc triggers only receive events inserted through the API.
	ScheduleKindAdhoc ScheduleKind = "adhoc"
)

// Header is a resolved HTTP header attached to webhook deliveries.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RetryConf controls retry behaviour for a trigger's deliveries.
type RetryConf struct {
	NumRetries      int `json:"num_retries"`
	IntervalSeconds int `json:"interval_seconds"`
	TimeoutSeconds  int `json:"timeout_seconds"`
}

// DefaultTimeoutSeconds is applied when a trigger does not set timeout_seconds.
const DefaultTimeoutSeconds = 60

// Timeout returns the per-attempt delivery timeout in seconds.
func (r RetryConf) Timeout() int {
	if r.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds
	}
	return r.TimeoutSeconds
}

// EventTriggerConf is the resolved configuration of an event trigger:
// the webhook to call for row-change events and how to retry it.
type EventTriggerConf struct {
	Name       string    `json:"name"`
	WebhookURL string    `json:"webhook_url"`
	Headers    []Header  `json:"headers,omitempty"`
	Retry      RetryConf `json:"retry_conf"`
}

// ScheduledTriggerConf is the resolved configuration of a scheduled trigger.
// Cron triggers carry an expression; ad-hoc triggers are fed by the API.
type ScheduledTriggerConf struct {
	Name             string          `json:"name"`
	WebhookURL       string          `json:"webhook_url"`
	Headers          []Header        `json:"headers,omitempty"`
	Retry            RetryConf       `json:"retry_conf"`
	Schedule         ScheduleKind    `json:"schedule"`
	CronExpr         string          `json:"cron,omitempty"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	ToleranceSeconds int64           `json:"tolerance_seconds"`
	// PayloadSchema, when set, is a JSON schema that ad-hoc payload
	// overrides submitted through the API must satisfy.
	PayloadSchema map[string]interface{} `json:"payload_schema,omitempty"`
}
