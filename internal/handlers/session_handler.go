package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/catastro/internal/errors"
	"github.com/stwalsh4118/catastro/internal/ficha"
	"github.com/stwalsh4118/catastro/internal/mapview"
	"github.com/stwalsh4118/catastro/internal/middleware"
	"github.com/stwalsh4118/catastro/internal/services"
)

// User-facing messages of the session endpoints.
const (
	MsgSessionNotFound  = "Sesión no encontrada o expirada"
	MsgNotInResults     = "El predio no forma parte de los resultados"
	MsgNothingSelected  = "No hay un predio seleccionado"
	MsgUnknownBaseLayer = "Capa base desconocida"
)

// SessionHandler exposes the per-citizen search panel.
type SessionHandler struct {
	store  *services.SessionStore
	viewer *mapview.Viewer
	fichas *ficha.Generator
}

// NewSessionHandler creates a new SessionHandler instance.
func NewSessionHandler(store *services.SessionStore, viewer *mapview.Viewer, fichas *ficha.Generator) *SessionHandler {
	return &SessionHandler{
		store:  store,
		viewer: viewer,
		fichas: fichas,
	}
}

// SessionResponse is a session id with its panel state.
type SessionResponse struct {
	ID string `json:"id"`
	services.Snapshot
}

// SelectRequest is the body of the select endpoint.
type SelectRequest struct {
	ParcelID string `json:"parcelId" binding:"required"`
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.store.Create()

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Session created", map[string]interface{}{
			"session_id": sess.ID,
		})
	}

	c.JSON(http.StatusCreated, SessionResponse{
		ID:       sess.ID,
		Snapshot: sess.Controller.Snapshot(),
	})
}

// Get handles GET /api/v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()})
}

// Search handles POST /api/v1/sessions/:id/search. The request blocks until
// the registry answers; a failed search is reported in the returned state,
// not as an HTTP error.
func (h *SessionHandler) Search(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var form services.SearchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	snap := sess.Controller.Submit(c.Request.Context(), form)
	c.JSON(http.StatusOK, SessionResponse{ID: sess.ID, Snapshot: snap})
}

// Select handles POST /api/v1/sessions/:id/select.
func (h *SessionHandler) Select(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if _, err := sess.Controller.Select(req.ParcelID); err != nil {
		apierrors.NotFound(c, MsgNotInResults)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()})
}

// Map handles GET /api/v1/sessions/:id/map. The optional base query parameter
// names the base layer; the default layer is used otherwise.
func (h *SessionHandler) Map(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	selected := sess.Controller.Selected()
	base := c.Query("base")
	if base == "" {
		c.JSON(http.StatusOK, h.viewer.Build(selected))
		return
	}

	view, err := h.viewer.BuildOn(base, selected)
	if err != nil {
		apierrors.BadRequest(c, MsgUnknownBaseLayer, map[string]interface{}{"base": base})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Ficha handles GET /api/v1/sessions/:id/ficha.pdf for the selected parcel.
func (h *SessionHandler) Ficha(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	selected := sess.Controller.Selected()
	if selected == nil {
		apierrors.BadRequest(c, MsgNothingSelected, nil)
		return
	}
	sendFicha(c, h.fichas, selected)
}

func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, MsgSessionNotFound)
		return nil, false
	}
	return sess, true
}
