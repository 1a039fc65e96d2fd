package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/ficha"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/mapview"
	"github.com/stwalsh4118/catastro/internal/middleware"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/services"
)

// MockCadastralService is a mock implementation of services.CadastralService.
type MockCadastralService struct {
	mock.Mock
}

func (m *MockCadastralService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResult), args.Error(1)
}

func (m *MockCadastralService) GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParcelRecord), args.Error(1)
}

func (m *MockCadastralService) Backend() string {
	return "fake"
}

// StubExporter returns a fixed PDF or error.
type StubExporter struct {
	pdf []byte
	err error
}

func (s StubExporter) Export(context.Context, string) ([]byte, error) {
	return s.pdf, s.err
}

var fakePDF = []byte("%PDF-1.7 ficha")

func testViewer() *mapview.Viewer {
	return mapview.NewViewer(config.MapConfig{
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
		InitialZoom:          14,
	}, logger.Nop())
}

// setupAPI builds the full router around svc, printing fichas with exporter.
func setupAPI(t *testing.T, svc services.CadastralService, exporter ficha.Exporter) (*gin.Engine, *services.SessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	renderer, err := ficha.NewRenderer()
	require.NoError(t, err)
	fichas := ficha.NewGenerator(renderer, exporter, log)
	viewer := testViewer()
	store := services.NewSessionStore(time.Minute, 100, func() *services.SearchController {
		return services.NewSearchController(svc, log)
	})

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	RegisterRoutes(router, Handlers{
		Health:   NewHealthHandler(nil, svc.Backend(), "test"),
		Parcels:  NewParcelHandler(svc, fichas),
		Sessions: NewSessionHandler(store, viewer, fichas),
		Map:      NewMapHandler(viewer),
	})
	return router, store
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sampleRecord(id, code string) models.ParcelRecord {
	return models.ParcelRecord{
		ID:                 id,
		Code:               code,
		CadastralReference: "RC-12345",
		Address:            "Jr. Comercio 120",
		Owner:              "Rosa Huamán",
		Area:               "250.00 m²",
		Perimeter:          "64.00 m",
		Zoning:             models.ZoningResidentialR4,
		PlanarVertices: []models.PlanarPoint{
			{X: 765000, Y: 9234000}, {X: 765020, Y: 9234000}, {X: 765020, Y: 9234012.5}, {X: 765000, Y: 9234012.5},
		},
		GeoVertices: []models.GeoPoint{
			{Lat: -7.2460, Lng: -78.3864}, {Lat: -7.2460, Lng: -78.3862}, {Lat: -7.2459, Lng: -78.3862}, {Lat: -7.2459, Lng: -78.3864},
		},
	}
}
