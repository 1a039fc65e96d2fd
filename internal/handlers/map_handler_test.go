package handlers

import (
	"net/http"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/catastro/internal/mapview"
)

func TestMapHandler_Layers(t *testing.T) {
	router, _ := setupAPI(t, mockRegistryService(), StubExporter{pdf: fakePDF})

	w := doRequest(router, "GET", "/api/v1/map/layers", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[LayersResponse](t, w)
	require.Len(t, resp.BaseLayers, 2)
	assert.Equal(t, mapview.LayerStreet, resp.BaseLayers[0].Name)
	assert.Equal(t, 19, resp.BaseLayers[0].MaxZoom)
	assert.Equal(t, mapview.LayerSatellite, resp.BaseLayers[1].Name)
	assert.Equal(t, 22, resp.BaseLayers[1].MaxZoom)

	require.Len(t, resp.Overlays, 2)
	assert.Equal(t, mapview.OverlayHousing, resp.Overlays[0].Name)
	assert.True(t, resp.Overlays[0].Visible)
	assert.Equal(t, "#22c55e", resp.Overlays[0].Style.Color)
	assert.False(t, resp.Overlays[1].Visible)
}

func TestMapHandler_Overlay(t *testing.T) {
	router, _ := setupAPI(t, mockRegistryService(), StubExporter{pdf: fakePDF})

	w := doRequest(router, "GET", "/api/v1/map/overlays/"+mapview.OverlayBlocks, "")
	require.Equal(t, http.StatusOK, w.Code)

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	w = doRequest(router, "GET", "/api/v1/map/overlays/Rios", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
