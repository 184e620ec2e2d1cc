//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhima/webhook-delivery-engine/internal/delivery"
	"github.com/dhima/webhook-delivery-engine/internal/engine"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/testutil/fakes"
	"github.com/dhima/webhook-delivery-engine/pkg/clock"
)

// TestDeliveryFlow_EventReachesWebhookAndTerminates exercises the full
// path with a real HTTP deliverer: lease, POST, outcome classification,
// and the recorded transition.
func TestDeliveryFlow_EventReachesWebhookAndTerminates(t *testing.T) {
	var received atomic.Int32
	var lastBody []byte
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		lastBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	now := time.Now().UTC()
	eq := fakes.NewFakeEventQueue()
	eq.Add(models.Event{
		ID:          "ev-flow-1",
		SchemaName:  "public",
		TableName:   "users",
		TriggerName: "users-insert",
		Payload:     json.RawMessage(`{"op":"INSERT","new":{"id":7}}`),
		CreatedAt:   now.Add(-time.Second),
	})
	sq := fakes.NewFakeScheduledQueue()

	reg := registry.New([]models.EventTriggerConf{{
		Name:       "users-insert",
		WebhookURL: webhook.URL,
		Retry:      models.RetryConf{NumRetries: 3, IntervalSeconds: 1, TimeoutSeconds: 5},
	}}, nil)

	deliverer := delivery.NewDeliverer(webhook.Client(), 10, logging.NewNoOpLogger())
	eng := engine.New(
		engine.Config{FetchInterval: 10 * time.Millisecond, ScheduledInterval: time.Hour},
		eq, sq, deliverer,
		registry.Static(reg),
		nil,
		clock.RealClock{},
		logging.NewNoOpLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		ev, ok := eq.Event("ev-flow-1")
		return ok && ev.Delivered
	}, 5*time.Second, 20*time.Millisecond, "event was never delivered")

	cancel()
	<-done

	assert.Equal(t, int32(1), received.Load())
	assert.Contains(t, string(lastBody), `"trigger":{"name":"users-insert"}`)

	invs := eq.Invocations()
	require.Len(t, invs, 1)
	assert.Equal(t, http.StatusOK, invs[0].Status)
}

// TestDeliveryFlow_FailingWebhookExhaustsRetries drives an event through
// its whole retry budget against an endpoint that always fails.
func TestDeliveryFlow_FailingWebhookExhaustsRetries(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	now := time.Now().UTC()
	eq := fakes.NewFakeEventQueue()
	eq.Add(models.Event{
		ID:          "ev-flow-2",
		SchemaName:  "public",
		TableName:   "orders",
		TriggerName: "orders-update",
		Payload:     json.RawMessage(`{"op":"UPDATE"}`),
		CreatedAt:   now.Add(-time.Second),
	})
	sq := fakes.NewFakeScheduledQueue()

	reg := registry.New([]models.EventTriggerConf{{
		Name:       "orders-update",
		WebhookURL: webhook.URL,
		// Zero interval so retry eligibility is immediate.
		Retry: models.RetryConf{NumRetries: 2, IntervalSeconds: 0, TimeoutSeconds: 5},
	}}, nil)

	deliverer := delivery.NewDeliverer(webhook.Client(), 10, logging.NewNoOpLogger())
	eng := engine.New(
		engine.Config{FetchInterval: 10 * time.Millisecond, ScheduledInterval: time.Hour},
		eq, sq, deliverer,
		registry.Static(reg),
		nil,
		clock.RealClock{},
		logging.NewNoOpLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		ev, ok := eq.Event("ev-flow-2")
		return ok && ev.Error
	}, 5*time.Second, 20*time.Millisecond, "event never reached the error state")

	cancel()
	<-done

	ev, _ := eq.Event("ev-flow-2")
	assert.Equal(t, 3, ev.Tries, "one initial attempt plus two retries")
	assert.Len(t, eq.Invocations(), 3)
}
