package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every handler the router serves.
type Handlers struct {
	Health   *HealthHandler
	Parcels  *ParcelHandler
	Sessions *SessionHandler
	Map      *MapHandler
}

// RegisterRoutes mounts the health checks and the /api/v1 routes on router.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Health)
	router.GET("/health/ready", h.Health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", h.Health.Info)

		parcels := v1.Group("/parcels")
		{
			parcels.GET("/search", h.Parcels.Search)
			parcels.GET("/:id", h.Parcels.Get)
			parcels.GET("/:id/ficha.pdf", h.Parcels.Ficha)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.Sessions.Create)
			sessions.GET("/:id", h.Sessions.Get)
			sessions.POST("/:id/search", h.Sessions.Search)
			sessions.POST("/:id/select", h.Sessions.Select)
			sessions.GET("/:id/map", h.Sessions.Map)
			sessions.GET("/:id/ficha.pdf", h.Sessions.Ficha)
		}

		mapRoutes := v1.Group("/map")
		{
			mapRoutes.GET("/layers", h.Map.Layers)
			mapRoutes.GET("/overlays/:name", h.Map.Overlay)
		}
	}
}
