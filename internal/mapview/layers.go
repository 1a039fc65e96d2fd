// Package mapview builds the payload the map front-end draws: base tile
// layers, the static overlays and the features of the selected parcel.
package mapview

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
)

// Base layer and overlay names as shown in the layer control.
const (
	LayerStreet    = "OpenStreetMap"
	LayerSatellite = "Satélite"

	OverlayHousing = "Viviendas"
	OverlayBlocks  = "Manzanas"
)

// BaseLayer is a tile source. Switching to it caps the zoom at MaxZoom.
type BaseLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
	Default     bool   `json:"default"`
}

// Style is the Leaflet path style of an overlay.
type Style struct {
	Color       string  `json:"color"`
	FillOpacity float64 `json:"fillOpacity"`
	Weight      int     `json:"weight"`
}

// Overlay is a static GeoJSON layer loaded once at start.
type Overlay struct {
	Name         string                     `json:"name"`
	Visible      bool                       `json:"visible"`
	Style        Style                      `json:"style"`
	FeatureCount int                        `json:"featureCount"`
	Features     *geojson.FeatureCollection `json:"-"`
}

// Viewer holds the map configuration and the loaded overlays. It is read-only
// after NewViewer and safe for concurrent use.
type Viewer struct {
	baseLayers []BaseLayer
	overlays   []Overlay
	center     models.GeoPoint
	zoom       int
	log        *logger.Logger
}

// NewViewer builds the base layers from cfg and loads both overlays.
// An overlay that cannot be read or parsed is logged and left out.
func NewViewer(cfg config.MapConfig, log *logger.Logger) *Viewer {
	v := &Viewer{
		baseLayers: []BaseLayer{
			{
				Name:        LayerStreet,
				URL:         cfg.StreetTileURL,
				Attribution: cfg.StreetAttribution,
				MaxZoom:     cfg.StreetMaxZoom,
				Default:     true,
			},
			{
				Name:        LayerSatellite,
				URL:         cfg.SatelliteTileURL,
				Attribution: cfg.SatelliteAttribution,
				MaxZoom:     cfg.SatelliteMaxZoom,
			},
		},
		center: models.GeoPoint{Lat: cfg.CenterLat, Lng: cfg.CenterLng},
		zoom:   cfg.InitialZoom,
		log:    log.WithComponent("mapview"),
	}

	specs := []struct {
		name    string
		path    string
		visible bool
		style   Style
	}{
		{OverlayHousing, cfg.HousingOverlayPath, true, Style{Color: "#22c55e", FillOpacity: 0.4, Weight: 2}},
		{OverlayBlocks, cfg.BlocksOverlayPath, false, Style{Color: "#f97316", FillOpacity: 0.3, Weight: 1}},
	}

	for _, s := range specs {
		fc, err := LoadOverlay(s.path)
		if err != nil {
			v.log.Warn("Overlay not loaded", map[string]interface{}{
				"overlay": s.name,
				"path":    s.path,
				"error":   err.Error(),
			})
			continue
		}
		v.overlays = append(v.overlays, Overlay{
			Name:         s.name,
			Visible:      s.visible,
			Style:        s.style,
			FeatureCount: len(fc.Features),
			Features:     fc,
		})
		v.log.Info("Overlay loaded", map[string]interface{}{
			"overlay":  s.name,
			"features": len(fc.Features),
		})
	}

	return v
}

// LoadOverlay reads a GeoJSON FeatureCollection from path.
func LoadOverlay(path string) (*geojson.FeatureCollection, error) {
	if path == "" {
		return nil, fmt.Errorf("no overlay path configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}
	return fc, nil
}

// BaseLayers returns the tile sources, default first.
func (v *Viewer) BaseLayers() []BaseLayer {
	out := make([]BaseLayer, len(v.baseLayers))
	copy(out, v.baseLayers)
	return out
}

// Overlays returns the overlays that loaded successfully.
func (v *Viewer) Overlays() []Overlay {
	out := make([]Overlay, len(v.overlays))
	copy(out, v.overlays)
	return out
}

// Overlay returns the features of the named overlay.
func (v *Viewer) Overlay(name string) (*geojson.FeatureCollection, bool) {
	for _, o := range v.overlays {
		if o.Name == name {
			return o.Features, true
		}
	}
	return nil, false
}

// MaxZoomFor returns the maximum zoom of the named base layer.
func (v *Viewer) MaxZoomFor(layer string) (int, bool) {
	for _, l := range v.baseLayers {
		if l.Name == layer {
			return l.MaxZoom, true
		}
	}
	return 0, false
}

// ClampZoom returns zoom limited to the maximum of layer, as applied when the
// citizen switches base layer.
func (v *Viewer) ClampZoom(layer string, zoom int) (int, error) {
	maxZoom, ok := v.MaxZoomFor(layer)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	return min(zoom, maxZoom), nil
}
