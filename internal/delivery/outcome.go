package delivery

import (
	"encoding/json"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// OutcomeKind classifies what came back from a delivery attempt.
type OutcomeKind string

const (
	// OutcomeWebhookResponse means the endpoint answered with an HTTP status.
	OutcomeWebhookResponse OutcomeKind = "webhook_response"
	// OutcomeClientError means the attempt failed before or while reading a
	// response (transport failure, body read failure, framework error).
	OutcomeClientError OutcomeKind = "client_error"
)

// Outcome is the explicit result of one delivery attempt.
type Outcome struct {
	Kind   OutcomeKind
	Status int // real HTTP status, or a synthesized code for client errors

	// Webhook response fields.
	Body    string
	Headers []models.Header

	// Client error message.
	Message string

	// RetryAfter is the parsed Retry-After response header in seconds,
	// nil when absent or unusable.
	RetryAfter *int
}

// Success reports whether the attempt counts as delivered: an HTTP
// response with 100 <= status < 400.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeWebhookResponse && o.Status >= 100 && o.Status < 400
}

// ResponseBody serializes the outcome for the invocation log.
func (o Outcome) ResponseBody() json.RawMessage {
	if o.Kind == OutcomeWebhookResponse {
		return models.NewWebhookResponse(o.Status, o.Body, o.Headers)
	}
	return models.NewClientError(o.Message)
}

func transportError(msg string) Outcome {
	return Outcome{Kind: OutcomeClientError, Status: models.StatusTransportError, Message: msg}
}

func parseError(msg string) Outcome {
	return Outcome{Kind: OutcomeClientError, Status: models.StatusParseError, Message: msg}
}

func otherError(msg string) Outcome {
	return Outcome{Kind: OutcomeClientError, Status: models.StatusOtherError, Message: msg}
}
