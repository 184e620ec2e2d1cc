package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/api/response"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
)

// MetricsSource provides queue depth counts. *storage.MySQLClient
// implements it.
type MetricsSource interface {
	CollectQueueMetrics(ctx context.Context) (*storage.QueueMetrics, error)
}

// MetricsHandler serves queue depth metrics.
type MetricsHandler struct {
	source MetricsSource
	logger logging.Logger
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(source MetricsSource, logger logging.Logger) *MetricsHandler {
	return &MetricsHandler{source: source, logger: logger}
}

// Metrics godoc
// @Summary Get delivery queue metrics
// @Description Returns per-state row counts for both delivery queues
// @Tags System
// @Produce json
// @Success 200 {object} storage.QueueMetrics
// @Failure 500 {object} response.ErrorResponse
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	metrics, err := h.source.CollectQueueMetrics(c.Request.Context())
	if err != nil {
		h.logger.Error("collect queue metrics", zap.Error(err))
		response.InternalServerError(c, "failed to collect metrics")
		return
	}
	response.OK(c, metrics)
}
