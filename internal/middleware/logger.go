package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/catastro/internal/logger"
)

// LoggerKey is the context key for the request-scoped logger.
const LoggerKey = "logger"

// redactedParams are query parameters that may carry an owner's name.
var redactedParams = []string{"query", "owner"}

// Logger logs one line per request at a level derived from the status code.
// Handlers get a child logger carrying the request ID through GetLogger.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Child logger tagged with the request ID, for handlers
		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		// Process request
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"bytes":       c.Writer.Size(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			fields["query"] = redactQuery(raw)
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		// Level by status class
		switch {
		case status >= 500:
			requestLogger.Error("Request failed", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request rejected", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// redactQuery masks owner names in a raw query string. Unparseable queries
// are dropped entirely.
func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable]"
	}
	for _, key := range redactedParams {
		if _, ok := values[key]; ok {
			values.Set(key, "[redacted]")
		}
	}
	return values.Encode()
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
