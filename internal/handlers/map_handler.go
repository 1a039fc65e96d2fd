package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/catastro/internal/errors"
	"github.com/stwalsh4118/catastro/internal/mapview"
)

// MsgOverlayNotFound is returned for an overlay that is unknown or failed to load.
const MsgOverlayNotFound = "Capa no disponible"

// MapHandler serves the static map configuration.
type MapHandler struct {
	viewer *mapview.Viewer
}

// NewMapHandler creates a new MapHandler instance.
func NewMapHandler(viewer *mapview.Viewer) *MapHandler {
	return &MapHandler{viewer: viewer}
}

// LayersResponse lists the base layers and loaded overlays.
type LayersResponse struct {
	BaseLayers []mapview.BaseLayer `json:"baseLayers"`
	Overlays   []mapview.Overlay   `json:"overlays"`
}

// Layers handles GET /api/v1/map/layers.
func (h *MapHandler) Layers(c *gin.Context) {
	c.JSON(http.StatusOK, LayersResponse{
		BaseLayers: h.viewer.BaseLayers(),
		Overlays:   h.viewer.Overlays(),
	})
}

// Overlay handles GET /api/v1/map/overlays/:name and returns the GeoJSON.
func (h *MapHandler) Overlay(c *gin.Context) {
	fc, ok := h.viewer.Overlay(c.Param("name"))
	if !ok {
		apierrors.NotFound(c, MsgOverlayNotFound)
		return
	}
	c.JSON(http.StatusOK, fc)
}
