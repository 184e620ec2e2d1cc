package logging

import "go.uber.org/zap"

// Log categories used by the delivery engine. Every engine log line carries
// one so downstream sinks can route event-trigger, scheduled-trigger, and
// per-attempt HTTP logs independently.
const (
	CategoryEventTrigger     = "event_trigger_log"
	CategoryScheduledTrigger = "scheduled_trigger_log"
	CategoryHTTP             = "http_log"
)

// Category returns the category field attached to engine log lines.
func Category(name string) zap.Field {
	return zap.String("category", name)
}
