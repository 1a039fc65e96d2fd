package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/catastro/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Database states reported by the readiness check.
const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
	DatabaseNotUsed      = "not_used"
)

// Pinger is the part of the database the readiness check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	backend   string
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. db is nil when the
// registry does not use a database.
func NewHealthHandler(db Pinger, backend, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		backend:   backend,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Registry string `json:"registry"`
	Database string `json:"database"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Registry    string `json:"registry"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health endpoint.
// It always returns 200 OK and is used for liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// With a database-backed registry it pings the database and returns 503 when
// the ping fails. The mock registry is always ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	// Mock registry: nothing external to check
	if h.db == nil {
		c.JSON(http.StatusOK, ReadyResponse{
			Status:   "ready",
			Registry: h.backend,
			Database: DatabaseNotUsed,
		})
		return
	}

	// Ping with a timeout
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	// Check the registry database
	if err := h.db.Ping(ctx); err != nil {
		// Request-scoped logger from the logger middleware
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Registry: h.backend,
			Database: DatabaseDisconnected,
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Registry: h.backend,
		Database: DatabaseConnected,
	})
}

// Info handles GET /api/v1/info endpoint.
// Reports version, environment, active registry backend and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Registry:    h.backend,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
