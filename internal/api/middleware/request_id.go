// Package middleware holds gin middleware shared by all API routes.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header carrying the request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key the request ID is stored under.
	RequestIDKey = "request_id"
)

// RequestID tags every request with an ID for tracing. A client-supplied
// X-Request-ID is honored; otherwise a UUID is generated. The ID is stored
// in the context and echoed in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}
