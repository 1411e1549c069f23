// Package middleware holds the façade's cross-cutting HTTP concerns:
// request id, recovery, logging, CORS, auth, rate limiting and metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wallethub/ledgercore/internal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a correlation id, honoring one the
// caller already supplied, and stashes it on the request's context so
// any slog call made against it is tagged automatically.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// GetRequestID reads back the id RequestID stashed in the context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDHeader); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
