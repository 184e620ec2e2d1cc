package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dhima/webhook-delivery-engine/internal/logging"
)

func TestHealth_WhenCalled_ThenReturns200WithHealthStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, router := gin.CreateTestContext(w)

	handler := NewHealthHandler(logging.NewNoOpLogger())

	router.GET("/health", handler.Health)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	router.ServeHTTP(w, c.Request)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var wrapper struct {
		Data HealthResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrapper); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if wrapper.Data.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", wrapper.Data.Status)
	}
	if wrapper.Data.Service != "webhook-delivery-engine" {
		t.Errorf("expected service 'webhook-delivery-engine', got '%s'", wrapper.Data.Service)
	}
}
