package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_WhenClientProvidesID_ThenItIsUsed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	const expected = "client-provided-request-id"
	router.GET("/test", func(c *gin.Context) {
		got, exists := c.Get(RequestIDKey)
		if !exists {
			t.Fatal("expected request ID to exist in context")
		}
		if got != expected {
			t.Errorf("expected request ID '%s', got '%s'", expected, got)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, expected)
	router.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) != expected {
		t.Errorf("expected response header '%s', got '%s'", expected, w.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_WhenHeaderMissingOrEmpty_ThenGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		got, exists := c.Get(RequestIDKey)
		if !exists || got.(string) == "" {
			t.Error("expected a non-empty request ID in context")
		}
		c.Status(http.StatusOK)
	})

	for _, header := range []string{"", "unset"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "unset" {
			req.Header.Set(RequestIDHeader, header)
		}
		router.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) == "" {
			t.Error("expected non-empty request ID in response header")
		}
	}
}

func TestRequestID_WhenMultipleRequests_ThenEachGetsUniqueID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	seen := make(map[string]bool)
	router.GET("/test", func(c *gin.Context) {
		id, _ := c.Get(RequestIDKey)
		seen[id.(string)] = true
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	}

	if len(seen) != 3 {
		t.Errorf("expected 3 unique request IDs, got %d", len(seen))
	}
}
