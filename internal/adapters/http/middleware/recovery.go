package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// RecoveryConfig configures the panic-recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool
}

// DefaultRecoveryConfig is the development default.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{Logger: slog.Default(), EnableStackTrace: true}
}

// Recovery turns a panic in a handler into a 500 instead of a crashed
// connection, logging the stack trace for debugging.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				attrs := []slog.Attr{
					slog.String("error", fmt.Sprintf("%v", r)),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
					slog.String("requestId", GetRequestID(c)),
				}
				if config.EnableStackTrace {
					attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				}
				config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "panic recovered", attrs...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "an unexpected error occurred",
					},
					"requestId": GetRequestID(c),
					"timestamp": time.Now().UTC(),
				})
			}
		}()
		c.Next()
	}
}
