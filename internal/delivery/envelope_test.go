package delivery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRequestBody_WireShape(t *testing.T) {
	ev := &models.Event{
		ID:          "evt-1",
		SchemaName:  "public",
		TableName:   "users",
		TriggerName: "users-insert",
		Payload:     json.RawMessage(`{"op":"INSERT","data":{"new":{"id":7}}}`),
		Tries:       2,
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	conf := models.EventTriggerConf{
		Name:  "users-insert",
		Retry: models.RetryConf{NumRetries: 5},
	}

	body, err := EventRequestBody(ev, conf)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &got))

	// The envelope's field names are an external contract.
	for _, field := range []string{"id", "table", "trigger", "event", "delivery_info", "created_at"} {
		assert.Contains(t, got, field)
	}
	assert.JSONEq(t, `{"schema":"public","name":"users"}`, string(got["table"]))
	assert.JSONEq(t, `{"name":"users-insert"}`, string(got["trigger"]))
	assert.JSONEq(t, `{"current_retry":2,"max_retries":5}`, string(got["delivery_info"]))
	assert.Equal(t, `"2025-01-02T03:04:05Z"`, string(got["created_at"]))
}

func TestScheduledRequestBody_PayloadPrecedence(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	conf := models.ScheduledTriggerConf{
		Name:       "nightly",
		WebhookURL: "https://example.com/hook",
		Payload:    json.RawMessage(`{"default":true}`),
		Retry:      models.RetryConf{NumRetries: 1, IntervalSeconds: 10, TimeoutSeconds: 60},
	}

	// Row override wins.
	ev := &models.ScheduledEvent{
		ID:                "sch-1",
		Name:              "nightly",
		ScheduledTime:     at,
		AdditionalPayload: json.RawMessage(`{"override":true}`),
	}
	body, err := ScheduledRequestBody(ev, conf)
	require.NoError(t, err)
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &got))
	assert.JSONEq(t, `{"override":true}`, string(got["payload"]))
	assert.Equal(t, `"https://example.com/hook"`, string(got["webhook"]))
	assert.JSONEq(t, `{"num_retries":1,"interval_seconds":10,"timeout_seconds":60}`, string(got["retry_conf"]))

	// No override: trigger default.
	ev.AdditionalPayload = nil
	body, err = ScheduledRequestBody(ev, conf)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.JSONEq(t, `{"default":true}`, string(got["payload"]))

	// Neither: explicit JSON null.
	conf.Payload = nil
	body, err = ScheduledRequestBody(ev, conf)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "null", string(got["payload"]))
}

func TestInvocationEnvelopes_VersionLiteral(t *testing.T) {
	resp := models.NewWebhookResponse(200, `{"ok":true}`, []models.Header{{Name: "Content-Type", Value: "application/json"}})
	var gotResp map[string]interface{}
	require.NoError(t, json.Unmarshal(resp, &gotResp))
	assert.Equal(t, "webhook_response", gotResp["type"])
	assert.Equal(t, "2", gotResp["version"])

	ce := models.NewClientError("connection refused")
	var gotErr map[string]interface{}
	require.NoError(t, json.Unmarshal(ce, &gotErr))
	assert.Equal(t, "client_error", gotErr["type"])
	assert.Equal(t, "2", gotErr["version"])
	assert.Equal(t, map[string]interface{}{"message": "connection refused"}, gotErr["data"])
}

func TestMergeHeaders_ConfiguredWinsOnCollision(t *testing.T) {
	merged := mergeHeaders([]models.Header{
		{Name: "content-type", Value: "application/vnd.custom+json"},
		{Name: "X-Token", Value: "secret"},
	})

	names := map[string]string{}
	for _, h := range merged {
		names[h.Name] = h.Value
	}
	assert.Equal(t, userAgent, names["User-Agent"])
	assert.Equal(t, "application/vnd.custom+json", names["content-type"])
	assert.Equal(t, "secret", names["X-Token"])
	assert.NotContains(t, names, "Content-Type")
}
