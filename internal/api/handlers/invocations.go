package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/api/response"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// InvocationStore lists delivery attempts for an event.
// *storage.MySQLClient implements it.
type InvocationStore interface {
	ListInvocations(ctx context.Context, eventID string, page, limit int) ([]models.Invocation, int64, error)
}

// InvocationsHandler serves invocation history.
type InvocationsHandler struct {
	store  InvocationStore
	logger logging.Logger
}

// NewInvocationsHandler creates a new invocations handler.
func NewInvocationsHandler(store InvocationStore, logger logging.Logger) *InvocationsHandler {
	return &InvocationsHandler{store: store, logger: logger}
}

// List godoc
// @Summary List delivery attempts for an event
// @Description Returns the invocation log of one event across both queues, newest first
// @Tags Invocations
// @Produce json
// @Param id path string true "Event ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.InvocationListResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/events/{id}/invocations [get]
func (h *InvocationsHandler) List(c *gin.Context) {
	var query models.ListInvocationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid pagination parameters", err.Error())
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}

	eventID := c.Param("id")
	invocations, total, err := h.store.ListInvocations(c.Request.Context(), eventID, query.Page, query.Limit)
	if err != nil {
		h.logger.Error("list invocations", zap.String("event_id", eventID), zap.Error(err))
		response.InternalServerError(c, "failed to list invocations")
		return
	}

	items := make([]models.InvocationResponse, 0, len(invocations))
	for _, inv := range invocations {
		items = append(items, models.InvocationResponse{
			EventID:   inv.EventID,
			Status:    inv.Status,
			Request:   inv.Request,
			Response:  inv.Response,
			CreatedAt: inv.CreatedAt,
		})
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	response.OK(c, models.InvocationListResponse{
		Invocations: items,
		Pagination: models.Pagination{
			CurrentPage:  query.Page,
			PageSize:     query.Limit,
			TotalPages:   totalPages,
			TotalRecords: total,
		},
	})
}
