package mapview

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
)

func testMapConfig() config.MapConfig {
	return config.MapConfig{
		StreetTileURL:        "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		StreetAttribution:    "OSM",
		StreetMaxZoom:        19,
		SatelliteTileURL:     "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}",
		SatelliteAttribution: "Google",
		SatelliteMaxZoom:     22,
		HousingOverlayPath:   filepath.Join("..", "..", "web", "data", "viviendas.geojson"),
		BlocksOverlayPath:    filepath.Join("..", "..", "web", "data", "manzanas.geojson"),
		CenterLat:            -7.2458,
		CenterLng:            -78.3861,
		InitialZoom:          21,
	}
}

func selectedRecord() *models.ParcelRecord {
	return &models.ParcelRecord{
		ID:      "CD1-abcd1234",
		Code:    "12345-123-123",
		Address: "Jr. Lima <b>123</b>",
		Owner:   "Juan Carmona",
		Area:    "800.00 m²",
		Zoning:  models.ZoningClasses[1],
		PlanarVertices: []models.PlanarPoint{
			{X: 765000, Y: 9234000}, {X: 765040, Y: 9234000}, {X: 765040, Y: 9234020}, {X: 765000, Y: 9234020.5},
		},
		GeoVertices: []models.GeoPoint{
			{Lat: -7.2460, Lng: -78.3864}, {Lat: -7.2460, Lng: -78.3860}, {Lat: -7.2458, Lng: -78.3860}, {Lat: -7.2458, Lng: -78.3864},
		},
	}
}

func TestNewViewer_LoadsOverlays(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())

	overlays := v.Overlays()
	require.Len(t, overlays, 2)
	assert.Equal(t, OverlayHousing, overlays[0].Name)
	assert.True(t, overlays[0].Visible)
	assert.Equal(t, 3, overlays[0].FeatureCount)
	assert.Equal(t, OverlayBlocks, overlays[1].Name)
	assert.False(t, overlays[1].Visible)

	fc, ok := v.Overlay(OverlayBlocks)
	require.True(t, ok)
	assert.Len(t, fc.Features, 2)

	_, ok = v.Overlay("Ríos")
	assert.False(t, ok)
}

func TestNewViewer_OverlayFailuresAreOmitted(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.geojson")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))

	cfg := testMapConfig()
	cfg.HousingOverlayPath = filepath.Join(dir, "missing.geojson")
	cfg.BlocksOverlayPath = broken

	v := NewViewer(cfg, logger.Nop())

	assert.Empty(t, v.Overlays())
	assert.Len(t, v.BaseLayers(), 2, "base layers do not depend on overlays")
}

func TestLoadOverlay(t *testing.T) {
	_, err := LoadOverlay("")
	assert.Error(t, err)

	fc, err := LoadOverlay(filepath.Join("..", "..", "web", "data", "viviendas.geojson"))
	require.NoError(t, err)
	assert.Equal(t, "Vivienda Jr. Bolívar", fc.Features[0].Properties["nombre"])
}

func TestBaseLayersAndZoom(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())

	layers := v.BaseLayers()
	require.Len(t, layers, 2)
	assert.Equal(t, LayerStreet, layers[0].Name)
	assert.True(t, layers[0].Default)
	assert.Equal(t, LayerSatellite, layers[1].Name)

	maxZoom, ok := v.MaxZoomFor(LayerStreet)
	require.True(t, ok)
	assert.Equal(t, 19, maxZoom)

	maxZoom, ok = v.MaxZoomFor(LayerSatellite)
	require.True(t, ok)
	assert.Equal(t, 22, maxZoom)

	zoom, err := v.ClampZoom(LayerStreet, 21)
	require.NoError(t, err)
	assert.Equal(t, 19, zoom)

	zoom, err = v.ClampZoom(LayerSatellite, 21)
	require.NoError(t, err)
	assert.Equal(t, 21, zoom)

	_, err = v.ClampZoom("Topo", 10)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestBuild_NothingSelected(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())

	view := v.Build(nil)

	require.NotNil(t, view.Placeholder)
	assert.Equal(t, PlaceholderTitle, view.Placeholder.Title)
	assert.Equal(t, PlaceholderMessage, view.Placeholder.Message)
	assert.Equal(t, models.GeoPoint{Lat: -7.2458, Lng: -78.3861}, view.Placeholder.Position)
	assert.Empty(t, view.Features.Features)
	assert.Nil(t, view.FitBounds)
	assert.Empty(t, view.Popup)
	assert.Equal(t, LayerStreet, view.BaseLayer)
	assert.Equal(t, 19, view.Zoom, "initial zoom is clamped to the street layer")
}

func TestBuild_SelectedParcel(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())
	rec := selectedRecord()

	view := v.Build(rec)

	assert.Nil(t, view.Placeholder)
	features := view.Features.Features
	require.Len(t, features, 1+len(rec.GeoVertices)+1)

	parcel := features[0]
	assert.Equal(t, RoleParcel, parcel.Properties["role"])
	assert.Equal(t, rec.ID, parcel.ID)
	poly, ok := parcel.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], len(rec.GeoVertices)+1, "ring is closed")
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])
	assert.Equal(t, orb.Point{-78.3864, -7.2460}, poly[0][0])

	for i, vertex := range features[1 : 1+len(rec.GeoVertices)] {
		assert.Equal(t, RoleVertex, vertex.Properties["role"])
		assert.Equal(t, i+1, vertex.Properties["index"])
		assert.Equal(t, orb.Point{rec.GeoVertices[i].Lng, rec.GeoVertices[i].Lat}, vertex.Geometry)
	}
	assert.Equal(t, "Vértice 4<br>X: 765000<br>Y: 9234020.5", features[4].Properties["tooltip"])

	label := features[len(features)-1]
	assert.Equal(t, RoleLabel, label.Properties["role"])
	assert.Equal(t, rec.Code, label.Properties["label"])
	center, ok := label.Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, -78.3862, center.Lon(), 1e-9)
	assert.InDelta(t, -7.2459, center.Lat(), 1e-9)

	require.NotNil(t, view.FitBounds)
	assert.Equal(t, [2]int{50, 50}, view.FitBounds.Padding)
	assert.Equal(t, 22, view.FitBounds.MaxZoom)
	assert.Equal(t, models.GeoPoint{Lat: -7.2460, Lng: -78.3864}, view.FitBounds.SouthWest)
	assert.Equal(t, models.GeoPoint{Lat: -7.2458, Lng: -78.3860}, view.FitBounds.NorthEast)

	popup := string(view.Popup)
	assert.Contains(t, popup, "12345-123-123")
	assert.Contains(t, popup, "800.00 m²")
	assert.Contains(t, popup, "Residencial R3")
	assert.Contains(t, popup, "Juan Carmona")
	assert.Contains(t, popup, "Jr. Lima &lt;b&gt;123&lt;/b&gt;", "record values are escaped")
}

func TestBuild_RebuildsFromScratch(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())
	rec := selectedRecord()

	first := v.Build(rec)
	second := v.Build(rec)
	assert.NotSame(t, first.Features, second.Features)
	assert.Len(t, second.Features.Features, len(first.Features.Features))

	cleared := v.Build(nil)
	assert.Empty(t, cleared.Features.Features)
	assert.NotNil(t, cleared.Placeholder)
}

func TestBuildOn_Satellite(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())

	view, err := v.BuildOn(LayerSatellite, selectedRecord())
	require.NoError(t, err)
	assert.Equal(t, LayerSatellite, view.BaseLayer)
	assert.Equal(t, 22, view.MaxZoom)
	assert.Equal(t, 21, view.Zoom)

	_, err = v.BuildOn("Topo", nil)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestView_MarshalsAsGeoJSON(t *testing.T) {
	v := NewViewer(testMapConfig(), logger.Nop())

	data, err := json.Marshal(v.Build(selectedRecord()))
	require.NoError(t, err)

	var decoded struct {
		Features struct {
			Type     string `json:"type"`
			Features []struct {
				Geometry struct {
					Type string `json:"type"`
				} `json:"geometry"`
			} `json:"features"`
		} `json:"features"`
		FitBounds map[string]interface{} `json:"fitBounds"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Features.Type)
	assert.Equal(t, "Polygon", decoded.Features.Features[0].Geometry.Type)
	assert.Equal(t, "Point", decoded.Features.Features[1].Geometry.Type)
	assert.Contains(t, decoded.FitBounds, "southWest")
}
