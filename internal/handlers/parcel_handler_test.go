package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/catastro/internal/errors"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/repository"
	"github.com/stwalsh4118/catastro/internal/services"
)

func TestParcelHandler_Search(t *testing.T) {
	two := []models.ParcelRecord{sampleRecord("O1-aaaa", "10001-001-001"), sampleRecord("O2-bbbb", "10001-001-002")}

	tests := []struct {
		name           string
		path           string
		setupMock      func(m *MockCadastralService)
		expectedStatus int
		expectedCount  int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name: "owner search returns results",
			path: "/api/v1/parcels/search?type=owner&query=Juan",
			setupMock: func(m *MockCadastralService) {
				m.On("Search", mock.Anything, models.NewOwnerSearch("Juan")).Return(models.NewSearchResult(two), nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "empty result is a success",
			path: "/api/v1/parcels/search?type=code&code=99999-999-999",
			setupMock: func(m *MockCadastralService) {
				m.On("Search", mock.Anything, models.NewCodeSearch("99999-999-999")).Return(models.NewSearchResult(nil), nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name: "coordinates are parsed",
			path: "/api/v1/parcels/search?type=coordinates&x=765000.5&y=9234000",
			setupMock: func(m *MockCadastralService) {
				m.On("Search", mock.Anything, models.NewCoordinateSearch(765000.5, 9234000)).
					Return(models.NewSearchResult(two[:1]), nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name:           "missing type fails validation",
			path:           "/api/v1/parcels/search?query=Juan",
			setupMock:      func(m *MockCadastralService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrValidation,
		},
		{
			name:           "unknown type fails validation",
			path:           "/api/v1/parcels/search?type=address&query=Jr",
			setupMock:      func(m *MockCadastralService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrValidation,
		},
		{
			name:           "blank owner is rejected before searching",
			path:           "/api/v1/parcels/search?type=owner&query=%20%20",
			setupMock:      func(m *MockCadastralService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
			expectedMsg:    services.MsgOwnerRequired,
		},
		{
			name:           "non numeric coordinates are rejected",
			path:           "/api/v1/parcels/search?type=coordinates&x=abc&y=1",
			setupMock:      func(m *MockCadastralService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
			expectedMsg:    services.MsgCoordinatesNumeric,
		},
		{
			name: "malformed code",
			path: "/api/v1/parcels/search?type=code&code=ABC",
			setupMock: func(m *MockCadastralService) {
				m.On("Search", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("postgres: %w", repository.ErrMalformedCode))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
			expectedMsg:    services.MsgMalformedCode,
		},
		{
			name: "registry failure",
			path: "/api/v1/parcels/search?type=owner&query=Juan",
			setupMock: func(m *MockCadastralService) {
				m.On("Search", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: %w", services.ErrServiceUnavailable, errors.New("boom")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   apierrors.ErrServiceUnavailable,
			expectedMsg:    services.MsgSearchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCadastralService)
			tt.setupMock(svc)
			router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

			w := doRequest(router, "GET", tt.path, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode == "" {
				resp := decode[SearchResponse](t, w)
				assert.True(t, resp.Success)
				assert.Equal(t, tt.expectedCount, resp.Count)
				assert.Len(t, resp.Results, tt.expectedCount)
				assert.NotNil(t, resp.Results)
			} else {
				resp := decode[apierrors.ErrorResponse](t, w)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
				if tt.expectedMsg != "" {
					assert.Equal(t, tt.expectedMsg, resp.Error.Message)
				}
				assert.NotEmpty(t, resp.Error.RequestID)
				assert.NotContains(t, w.Body.String(), "boom")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestParcelHandler_Search_ResultShape(t *testing.T) {
	svc := new(MockCadastralService)
	rec := sampleRecord("CD1-1234abcd", "10001-001-001")
	svc.On("Search", mock.Anything, mock.Anything).Return(models.NewSearchResult([]models.ParcelRecord{rec}), nil)
	router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

	w := doRequest(router, "GET", "/api/v1/parcels/search?type=code&code=10001-001-001", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]interface{}](t, w)
	results := resp["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "10001-001-001", first["codigo"])
	assert.Equal(t, "Rosa Huamán", first["propietario"])
	assert.Contains(t, first, "coordenadas")
	assert.Contains(t, first, "geoCoords")
	assert.NotContains(t, resp, "error")
}

func TestParcelHandler_Get(t *testing.T) {
	rec := sampleRecord("C1-0000aaaa", "10001-001-001")

	tests := []struct {
		name           string
		id             string
		setupMock      func(m *MockCadastralService)
		expectedStatus int
	}{
		{
			name: "known parcel",
			id:   rec.ID,
			setupMock: func(m *MockCadastralService) {
				m.On("GetDetails", mock.Anything, rec.ID).Return(&rec, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown parcel",
			id:   "nope",
			setupMock: func(m *MockCadastralService) {
				m.On("GetDetails", mock.Anything, "nope").Return(nil, services.ErrParcelNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "registry down",
			id:   "X1",
			setupMock: func(m *MockCadastralService) {
				m.On("GetDetails", mock.Anything, "X1").Return(nil, fmt.Errorf("%w: timeout", services.ErrServiceUnavailable))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCadastralService)
			tt.setupMock(svc)
			router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

			w := doRequest(router, "GET", "/api/v1/parcels/"+tt.id, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				resp := decode[PropertyResponse](t, w)
				assert.True(t, resp.Success)
				require.NotNil(t, resp.Property)
				assert.Equal(t, rec.Code, resp.Property.Code)
			}
			if tt.expectedStatus == http.StatusNotFound {
				resp := decode[apierrors.ErrorResponse](t, w)
				assert.Equal(t, MsgParcelNotFound, resp.Error.Message)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestParcelHandler_Ficha(t *testing.T) {
	rec := sampleRecord("CD1-0000bbbb", "12345-678-901")

	t.Run("returns the pdf as attachment", func(t *testing.T) {
		svc := new(MockCadastralService)
		svc.On("GetDetails", mock.Anything, rec.ID).Return(&rec, nil)
		router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

		w := doRequest(router, "GET", "/api/v1/parcels/"+rec.ID+"/ficha.pdf", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=ficha-catastral-12345-678-901.pdf", w.Header().Get("Content-Disposition"))
		assert.Equal(t, fakePDF, w.Body.Bytes())
	})

	t.Run("export failure is a 503", func(t *testing.T) {
		svc := new(MockCadastralService)
		svc.On("GetDetails", mock.Anything, rec.ID).Return(&rec, nil)
		router, _ := setupAPI(t, svc, StubExporter{err: context.DeadlineExceeded})

		w := doRequest(router, "GET", "/api/v1/parcels/"+rec.ID+"/ficha.pdf", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[apierrors.ErrorResponse](t, w)
		assert.Equal(t, MsgFichaFailed, resp.Error.Message)
	})

	t.Run("unknown parcel is a 404", func(t *testing.T) {
		svc := new(MockCadastralService)
		svc.On("GetDetails", mock.Anything, "nope").Return(nil, services.ErrParcelNotFound)
		router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

		w := doRequest(router, "GET", "/api/v1/parcels/nope/ficha.pdf", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestParcelHandler_Ficha_HostileCode(t *testing.T) {
	registry := repository.NewMockRegistry(repository.MockRegistryConfig{NoLatency: true})
	svc := services.NewCadastralService(registry, logger.Nop())
	router, _ := setupAPI(t, svc, StubExporter{pdf: fakePDF})

	code := `x"; filename="evil.exe`
	w := doRequest(router, "GET", "/api/v1/parcels/search?type=code&code="+url.QueryEscape(code), "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[SearchResponse](t, w)
	require.Len(t, found.Results, 1)
	require.Equal(t, code, found.Results[0].Code)

	w = doRequest(router, "GET", "/api/v1/parcels/"+found.Results[0].ID+"/ficha.pdf", "")
	require.Equal(t, http.StatusOK, w.Code)

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, map[string]string{"filename": "ficha-catastral-x___filename__evil_exe.pdf"}, params)
}
