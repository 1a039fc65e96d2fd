package handlers

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/catastro/internal/errors"
	"github.com/stwalsh4118/catastro/internal/ficha"
	"github.com/stwalsh4118/catastro/internal/middleware"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/services"
)

// User-facing messages of the parcel endpoints.
const (
	MsgParcelNotFound  = "Predio no encontrado"
	MsgFichaFailed     = "No se pudo generar la ficha catastral"
	MsgRegistryFailure = "No se pudo obtener la información del predio"
)

// ParcelHandler serves stateless search and detail requests.
type ParcelHandler struct {
	service services.CadastralService
	fichas  *ficha.Generator
}

// NewParcelHandler creates a new ParcelHandler instance.
func NewParcelHandler(service services.CadastralService, fichas *ficha.Generator) *ParcelHandler {
	return &ParcelHandler{
		service: service,
		fichas:  fichas,
	}
}

// SearchQuery represents the query parameters of the search endpoint.
// Only the parameters of the selected type are read.
type SearchQuery struct {
	Type  models.SearchKind `form:"type" binding:"required,oneof=owner code coordinates"`
	Query string            `form:"query"`
	Code  string            `form:"code"`
	X     string            `form:"x"`
	Y     string            `form:"y"`
}

// SearchResponse is the response of the search endpoint.
type SearchResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Results []models.ParcelRecord `json:"results"`
	Error   string                `json:"error,omitempty"`
}

// PropertyResponse is the response of the details endpoint.
type PropertyResponse struct {
	Success  bool                 `json:"success"`
	Property *models.ParcelRecord `json:"property"`
}

// Search handles GET /api/v1/parcels/search.
func (h *ParcelHandler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	form := services.SearchForm{Tab: q.Type, Owner: q.Query, Code: q.Code, X: q.X, Y: q.Y}
	req, err := form.BuildRequest()
	if err != nil {
		apierrors.BadRequest(c, err.Error(), map[string]interface{}{"type": q.Type})
		return
	}

	result, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMalformedCode):
			apierrors.BadRequest(c, services.MsgMalformedCode, nil)
		case errors.Is(err, services.ErrInvalidRequest):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.ServiceUnavailable(c, services.MsgSearchFailed, err)
		}
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Success: true,
		Count:   len(result.Records),
		Results: result.Records,
	})
}

// Get handles GET /api/v1/parcels/:id.
func (h *ParcelHandler) Get(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{
		Success:  true,
		Property: rec,
	})
}

// Ficha handles GET /api/v1/parcels/:id/ficha.pdf.
func (h *ParcelHandler) Ficha(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	sendFicha(c, h.fichas, rec)
}

func (h *ParcelHandler) lookup(c *gin.Context) (*models.ParcelRecord, bool) {
	rec, err := h.service.GetDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParcelNotFound):
			apierrors.NotFound(c, MsgParcelNotFound)
		case errors.Is(err, services.ErrInvalidRequest):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.ServiceUnavailable(c, MsgRegistryFailure, err)
		}
		return nil, false
	}
	return rec, true
}

// sendFicha writes the PDF ficha of rec as an attachment.
func sendFicha(c *gin.Context, fichas *ficha.Generator, rec *models.ParcelRecord) {
	doc, err := fichas.Generate(c.Request.Context(), rec)
	if err != nil {
		apierrors.ServiceUnavailable(c, MsgFichaFailed, err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Sending ficha", map[string]interface{}{
			"parcel_id": rec.ID,
			"file":      doc.FileName,
		})
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}
