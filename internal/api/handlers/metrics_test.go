package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
)

type stubMetricsSource struct {
	metrics *storage.QueueMetrics
	err     error
}

func (s *stubMetricsSource) CollectQueueMetrics(context.Context) (*storage.QueueMetrics, error) {
	return s.metrics, s.err
}

func TestMetrics_WhenSourceSucceeds_ThenReturnsCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, router := gin.CreateTestContext(w)

	source := &stubMetricsSource{metrics: &storage.QueueMetrics{
		EventsPending:      12,
		EventsDelivered:    340,
		ScheduledDead:      2,
		ScheduledCancelled: 1,
	}}
	handler := NewMetricsHandler(source, logging.NewNoOpLogger())

	router.GET("/metrics", handler.Metrics)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)

	router.ServeHTTP(w, c.Request)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var wrapper struct {
		Data storage.QueueMetrics `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrapper); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if wrapper.Data.EventsPending != 12 {
		t.Errorf("expected 12 pending events, got %d", wrapper.Data.EventsPending)
	}
	if wrapper.Data.ScheduledDead != 2 {
		t.Errorf("expected 2 dead scheduled events, got %d", wrapper.Data.ScheduledDead)
	}
}

func TestMetrics_WhenSourceFails_ThenReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, router := gin.CreateTestContext(w)

	source := &stubMetricsSource{err: errors.New("connection refused")}
	handler := NewMetricsHandler(source, logging.NewNoOpLogger())

	router.GET("/metrics", handler.Metrics)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)

	router.ServeHTTP(w, c.Request)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
