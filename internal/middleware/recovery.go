package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/catastro/internal/logger"
)

// Recovery turns a panic in a handler into a logged 500 with the standard
// error envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			l := GetLogger(c)
			if l == nil {
				l = log
			}
			requestID := GetRequestID(c)
			l.Error("Handler panicked", fmt.Errorf("panic: %v", recovered), map[string]interface{}{
				"request_id": requestID,
				"route":      c.FullPath(),
				"stack":      string(debug.Stack()),
			})

			// internal/errors imports this package, so the envelope is built inline.
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "Ocurrió un error inesperado",
					"request_id": requestID,
				},
			})
		}()

		c.Next()
	}
}
