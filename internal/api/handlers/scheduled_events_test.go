package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
)

type stubScheduledStore struct {
	inserted  []*models.ScheduledEvent
	insertErr error
	getEvent  *models.ScheduledEvent
	getErr    error
	cancelErr error
}

func (s *stubScheduledStore) InsertAdhocEvent(_ context.Context, ev *models.ScheduledEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, ev)
	return nil
}

func (s *stubScheduledStore) GetScheduledEvent(context.Context, string) (*models.ScheduledEvent, error) {
	return s.getEvent, s.getErr
}

func (s *stubScheduledStore) CancelScheduledEvent(context.Context, string) error {
	return s.cancelErr
}

func scheduledEventsRouter(store *stubScheduledStore, conf ...models.ScheduledTriggerConf) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewScheduledEventsHandler(
		store,
		registry.Static(registry.New(nil, conf)),
		logging.NewNoOpLogger(),
	)

	router := gin.New()
	router.POST("/api/v1/scheduled-events", handler.Create)
	router.GET("/api/v1/scheduled-events/:id", handler.Get)
	router.DELETE("/api/v1/scheduled-events/:id", handler.Cancel)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreate_WhenTriggerExists_ThenInsertsAndReturns201(t *testing.T) {
	store := &stubScheduledStore{}
	router := scheduledEventsRouter(store, models.ScheduledTriggerConf{
		Name:     "nightly-report",
		Schedule: models.ScheduleKindAdhoc,
	})

	scheduleAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	w := postJSON(router, "/api/v1/scheduled-events", models.CreateScheduledEventRequest{
		TriggerName: "nightly-report",
		ScheduleAt:  scheduleAt,
		Payload:     json.RawMessage(`{"report":"daily"}`),
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "nightly-report", store.inserted[0].Name)
	assert.Equal(t, scheduleAt, store.inserted[0].ScheduledTime)
	assert.NotEmpty(t, store.inserted[0].ID)

	var wrapper struct {
		Data models.ScheduledEventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, "scheduled", wrapper.Data.Status)
}

func TestCreate_WhenTriggerUnknown_ThenReturns400(t *testing.T) {
	store := &stubScheduledStore{}
	router := scheduledEventsRouter(store)

	w := postJSON(router, "/api/v1/scheduled-events", models.CreateScheduledEventRequest{
		TriggerName: "no-such-trigger",
		ScheduleAt:  time.Now().Add(time.Hour),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
}

func TestCreate_WhenPayloadViolatesSchema_ThenReturns400(t *testing.T) {
	store := &stubScheduledStore{}
	router := scheduledEventsRouter(store, models.ScheduledTriggerConf{
		Name:     "nightly-report",
		Schedule: models.ScheduleKindAdhoc,
		PayloadSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"report"},
		},
	})

	w := postJSON(router, "/api/v1/scheduled-events", models.CreateScheduledEventRequest{
		TriggerName: "nightly-report",
		ScheduleAt:  time.Now().Add(time.Hour),
		Payload:     json.RawMessage(`{"other":"field"}`),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
}

func TestCreate_WhenPayloadMatchesSchema_ThenReturns201(t *testing.T) {
	store := &stubScheduledStore{}
	router := scheduledEventsRouter(store, models.ScheduledTriggerConf{
		Name:     "nightly-report",
		Schedule: models.ScheduleKindAdhoc,
		PayloadSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"report"},
		},
	})

	w := postJSON(router, "/api/v1/scheduled-events", models.CreateScheduledEventRequest{
		TriggerName: "nightly-report",
		ScheduleAt:  time.Now().Add(time.Hour),
		Payload:     json.RawMessage(`{"report":"daily"}`),
	})

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, store.inserted, 1)
}

func TestGet_WhenEventExists_ThenReturnsStatus(t *testing.T) {
	store := &stubScheduledStore{getEvent: &models.ScheduledEvent{
		ID:            "se-1",
		Name:          "nightly-report",
		ScheduledTime: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Delivered:     true,
		Tries:         1,
	}}
	router := scheduledEventsRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scheduled-events/se-1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var wrapper struct {
		Data models.ScheduledEventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, "delivered", wrapper.Data.Status)
}

func TestGet_WhenEventMissing_ThenReturns404(t *testing.T) {
	store := &stubScheduledStore{getErr: storage.ErrScheduledEventNotFound}
	router := scheduledEventsRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scheduled-events/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancel_WhenEventCancellable_ThenReturns204(t *testing.T) {
	router := scheduledEventsRouter(&stubScheduledStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/scheduled-events/se-1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCancel_WhenEventMissing_ThenReturns404(t *testing.T) {
	router := scheduledEventsRouter(&stubScheduledStore{cancelErr: storage.ErrScheduledEventNotFound})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/scheduled-events/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancel_WhenEventTerminalOrLeased_ThenReturns409(t *testing.T) {
	router := scheduledEventsRouter(&stubScheduledStore{cancelErr: storage.ErrScheduledEventNotCancellable})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/scheduled-events/se-1", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
}
