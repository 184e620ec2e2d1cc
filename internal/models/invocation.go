package models

import (
	"encoding/json"
	"time"
)

// InvocationVersion is the literal version string stored with every
// serialized invocation request and response.
const InvocationVersion = "2"

// Synthesized status codes for failures that never produced an HTTP status.
// Real HTTP codes stop below 600, so values >= 1000 are unambiguous; 500 is
// reserved for unexpected framework errors.
const (
	StatusTransportError = 1000
	StatusParseError     = 1001
	StatusOtherError     = 500
)

// Invocation records one delivery attempt: the request that was sent and
// the response (or client error) that came back.
type Invocation struct {
	EventID   string          `json:"event_id"`
	Status    int             `json:"status"`
	Request   json.RawMessage `json:"request"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// InvocationRequest is the serialized form of a delivery request.
type InvocationRequest struct {
	Payload json.RawMessage `json:"payload"`
	Headers []Header        `json:"headers"`
	Version string          `json:"version"`
}

type webhookResponseData struct {
	Body    string   `json:"body"`
	Headers []Header `json:"headers"`
	Status  int      `json:"status"`
}

type clientErrorData struct {
	Message string `json:"message"`
}

type responseEnvelope struct {
	Type    string      `json:"type"`
	Version string      `json:"version"`
	Data    interface{} `json:"data"`
}

// NewInvocationRequest serializes the request side of an invocation.
func NewInvocationRequest(payload json.RawMessage, headers []Header) json.RawMessage {
	if headers == nil {
		headers = []Header{}
	}
	b, _ := json.Marshal(InvocationRequest{
		Payload: payload,
		Headers: headers,
		Version: InvocationVersion,
	})
	return b
}

// NewWebhookResponse serializes an HTTP response for the invocation log.
func NewWebhookResponse(status int, body string, headers []Header) json.RawMessage {
	if headers == nil {
		headers = []Header{}
	}
	b, _ := json.Marshal(responseEnvelope{
		Type:    "webhook_response",
		Version: InvocationVersion,
		Data:    webhookResponseData{Body: body, Headers: headers, Status: status},
	})
	return b
}

// NewClientError serializes a client-side failure for the invocation log.
func NewClientError(message string) json.RawMessage {
	b, _ := json.Marshal(responseEnvelope{
		Type:    "client_error",
		Version: InvocationVersion,
		Data:    clientErrorData{Message: message},
	})
	return b
}

// InvocationResponse is the API representation of an invocation log row.
type InvocationResponse struct {
	EventID   string          `json:"event_id" example:"660e8400-e29b-41d4-a716-446655440000"`
	Status    int             `json:"status" example:"200"`
	Request   json.RawMessage `json:"request" swaggertype:"object"`
	Response  json.RawMessage `json:"response" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at" example:"2025-11-05T15:00:00Z"`
} // @name InvocationResponse

// ListInvocationsQuery holds pagination for the invocation listing endpoint.
type ListInvocationsQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListInvocationsQuery

// Pagination represents pagination metadata.
type Pagination struct {
	CurrentPage  int   `json:"current_page" example:"1"`
	PageSize     int   `json:"page_size" example:"20"`
	TotalPages   int   `json:"total_pages" example:"5"`
	TotalRecords int64 `json:"total_records" example:"100"`
} // @name Pagination

// InvocationListResponse is the response for listing invocations.
type InvocationListResponse struct {
	Invocations []InvocationResponse `json:"invocations"`
	Pagination  Pagination           `json:"pagination"`
} // @name InvocationListResponse
