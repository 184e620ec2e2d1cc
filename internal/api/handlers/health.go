package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dhima/webhook-delivery-engine/internal/api/response"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger logging.Logger
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(logger logging.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"webhook-delivery-engine"`
	Version string `json:"version" example:"1.0.0"`
} // @name HealthResponse

// Health godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API service
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, HealthResponse{
		Status:  "ok",
		Service: "webhook-delivery-engine",
		Version: "1.0.0",
	})
}
