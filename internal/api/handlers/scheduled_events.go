package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/api/response"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
)

// ScheduledEventStore is the storage surface for managing scheduled
// events through the API. *storage.MySQLClient implements it.
type ScheduledEventStore interface {
	InsertAdhocEvent(ctx context.Context, ev *models.ScheduledEvent) error
	GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEvent, error)
	CancelScheduledEvent(ctx context.Context, id string) error
}

// ScheduledEventsHandler manages one-off scheduled events.
type ScheduledEventsHandler struct {
	store    ScheduledEventStore
	snapshot registry.SnapshotProvider
	logger   logging.Logger
}

// NewScheduledEventsHandler creates a new scheduled events handler.
func NewScheduledEventsHandler(store ScheduledEventStore, snapshot registry.SnapshotProvider, logger logging.Logger) *ScheduledEventsHandler {
	return &ScheduledEventsHandler{store: store, snapshot: snapshot, logger: logger}
}

// Create godoc
// @Summary Schedule a one-off event
// @Description Inserts an ad-hoc scheduled event for an existing scheduled trigger
// @Tags Scheduled Events
// @Accept json
// @Produce json
// @Param request body models.CreateScheduledEventRequest true "Event to schedule"
// @Success 201 {object} models.ScheduledEventResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/scheduled-events [post]
func (h *ScheduledEventsHandler) Create(c *gin.Context) {
	var req models.CreateScheduledEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	reg, err := h.snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("load trigger registry", zap.Error(err))
		response.InternalServerError(c, "failed to load trigger configuration")
		return
	}

	conf, ok := reg.ScheduledTrigger(req.TriggerName)
	if !ok {
		response.BadRequest(c, "unknown scheduled trigger", req.TriggerName)
		return
	}

	if conf.PayloadSchema != nil && req.Payload != nil {
		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(conf.PayloadSchema),
			gojsonschema.NewBytesLoader(req.Payload),
		)
		if err != nil {
			response.BadRequest(c, "payload is not valid JSON", err.Error())
			return
		}
		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				details = append(details, desc.String())
			}
			response.BadRequest(c, "payload does not match the trigger's schema", details)
			return
		}
	}

	ev := &models.ScheduledEvent{
		ID:                uuid.New().String(),
		Name:              req.TriggerName,
		ScheduledTime:     req.ScheduleAt.UTC(),
		AdditionalPayload: req.Payload,
	}
	if err := h.store.InsertAdhocEvent(c.Request.Context(), ev); err != nil {
		h.logger.Error("insert scheduled event",
			zap.String("trigger", req.TriggerName),
			zap.Error(err),
		)
		response.InternalServerError(c, "failed to schedule event")
		return
	}

	response.Created(c, scheduledEventResponse(ev), "event scheduled")
}

// Get godoc
// @Summary Get a scheduled event
// @Description Returns one scheduled event with its current status
// @Tags Scheduled Events
// @Produce json
// @Param id path string true "Scheduled event ID"
// @Success 200 {object} models.ScheduledEventResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/scheduled-events/{id} [get]
func (h *ScheduledEventsHandler) Get(c *gin.Context) {
	ev, err := h.store.GetScheduledEvent(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrScheduledEventNotFound) {
		response.NotFound(c, "scheduled event not found")
		return
	}
	if err != nil {
		h.logger.Error("get scheduled event", zap.String("id", c.Param("id")), zap.Error(err))
		response.InternalServerError(c, "failed to load scheduled event")
		return
	}

	response.OK(c, scheduledEventResponse(ev))
}

// Cancel godoc
// @Summary Cancel a scheduled event
// @Description Cancels a scheduled event that has not started delivering
// @Tags Scheduled Events
// @Produce json
// @Param id path string true "Scheduled event ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/scheduled-events/{id} [delete]
func (h *ScheduledEventsHandler) Cancel(c *gin.Context) {
	err := h.store.CancelScheduledEvent(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, storage.ErrScheduledEventNotFound):
		response.NotFound(c, "scheduled event not found")
	case errors.Is(err, storage.ErrScheduledEventNotCancellable):
		response.Conflict(c, "scheduled event is terminal or in flight", nil)
	case err != nil:
		h.logger.Error("cancel scheduled event", zap.String("id", c.Param("id")), zap.Error(err))
		response.InternalServerError(c, "failed to cancel scheduled event")
	default:
		response.NoContent(c)
	}
}

func scheduledEventResponse(ev *models.ScheduledEvent) models.ScheduledEventResponse {
	return models.ScheduledEventResponse{
		ID:            ev.ID,
		TriggerName:   ev.Name,
		ScheduledTime: ev.ScheduledTime,
		Payload:       ev.AdditionalPayload,
		Tries:         ev.Tries,
		Status:        ev.Status(),
	}
}
