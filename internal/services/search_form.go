package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/stwalsh4118/catastro/internal/models"
)

// Messages shown to the citizen when a search form is incomplete.
const (
	MsgOwnerRequired       = "Por favor ingrese un nombre de propietario para buscar"
	MsgCodeRequired        = "Por favor ingrese un código catastral para buscar"
	MsgCoordinatesRequired = "Por favor ingrese ambas coordenadas (X e Y)"
	MsgCoordinatesNumeric  = "Las coordenadas deben ser valores numéricos"
	MsgUnknownTab          = "Seleccione un tipo de búsqueda válido"
)

// FormError is a validation failure of a SearchForm. Message is user facing.
type FormError struct {
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// SearchForm holds the raw values typed in the search panel. Only the fields
// of the active Tab are read.
type SearchForm struct {
	Tab   models.SearchKind `json:"tab" binding:"required,oneof=owner code coordinates"`
	Owner string            `json:"owner"`
	Code  string            `json:"code"`
	X     string            `json:"x"`
	Y     string            `json:"y"`
}

// BuildRequest validates the active tab and converts it to a SearchRequest.
// Values are trimmed; coordinates must parse as finite numbers.
func (f SearchForm) BuildRequest() (models.SearchRequest, error) {
	switch f.Tab {
	case models.SearchByOwner:
		owner := strings.TrimSpace(f.Owner)
		if owner == "" {
			return models.SearchRequest{}, &FormError{Message: MsgOwnerRequired}
		}
		return models.NewOwnerSearch(owner), nil

	case models.SearchByCode:
		code := strings.TrimSpace(f.Code)
		if code == "" {
			return models.SearchRequest{}, &FormError{Message: MsgCodeRequired}
		}
		return models.NewCodeSearch(code), nil

	case models.SearchByCoordinates:
		xs, ys := strings.TrimSpace(f.X), strings.TrimSpace(f.Y)
		if xs == "" || ys == "" {
			return models.SearchRequest{}, &FormError{Message: MsgCoordinatesRequired}
		}
		x, errX := parseCoordinate(xs)
		y, errY := parseCoordinate(ys)
		if errX != nil || errY != nil {
			return models.SearchRequest{}, &FormError{Message: MsgCoordinatesNumeric}
		}
		return models.NewCoordinateSearch(x, y), nil
	}

	return models.SearchRequest{}, &FormError{Message: MsgUnknownTab}
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
