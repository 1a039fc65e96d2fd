package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// SearchKind discriminates the SearchRequest variants.
type SearchKind string

// Search kinds.
const (
	SearchByOwner       SearchKind = "owner"
	SearchByCoordinates SearchKind = "coordinates"
	SearchByCode        SearchKind = "code"
)

// ErrInvalidSearchRequest is returned by SearchRequest.Validate.
var ErrInvalidSearchRequest = errors.New("invalid search request")

// OwnerQuery is the payload of an owner-name search.
type OwnerQuery struct {
	Query string `json:"query"`
}

// CoordinateQuery is the payload of a UTM coordinate search.
type CoordinateQuery struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CodeQuery is the payload of a cadastral code search.
type CodeQuery struct {
	Code string `json:"code"`
}

// SearchRequest is a tagged union: Kind selects which one of the payloads is populated.
type SearchRequest struct {
	Kind        SearchKind       `json:"type"`
	Owner       *OwnerQuery      `json:"owner,omitempty"`
	Coordinates *CoordinateQuery `json:"coordinates,omitempty"`
	Code        *CodeQuery       `json:"code,omitempty"`
}

// NewOwnerSearch builds an owner-name search.
func NewOwnerSearch(query string) SearchRequest {
	return SearchRequest{Kind: SearchByOwner, Owner: &OwnerQuery{Query: query}}
}

// NewCoordinateSearch builds a coordinate search.
func NewCoordinateSearch(x, y float64) SearchRequest {
	return SearchRequest{Kind: SearchByCoordinates, Coordinates: &CoordinateQuery{X: x, Y: y}}
}

// NewCodeSearch builds a cadastral code search.
func NewCodeSearch(code string) SearchRequest {
	return SearchRequest{Kind: SearchByCode, Code: &CodeQuery{Code: code}}
}

// Validate checks that exactly the variant named by Kind is populated and non-blank.
func (r SearchRequest) Validate() error {
	populated := 0
	if r.Owner != nil {
		populated++
	}
	if r.Coordinates != nil {
		populated++
	}
	if r.Code != nil {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("%w: exactly one search variant must be set, got %d", ErrInvalidSearchRequest, populated)
	}

	switch r.Kind {
	case SearchByOwner:
		if r.Owner == nil || strings.TrimSpace(r.Owner.Query) == "" {
			return fmt.Errorf("%w: owner query is required", ErrInvalidSearchRequest)
		}
	case SearchByCoordinates:
		if r.Coordinates == nil {
			return fmt.Errorf("%w: coordinates are required", ErrInvalidSearchRequest)
		}
		if !isFinite(r.Coordinates.X) || !isFinite(r.Coordinates.Y) {
			return fmt.Errorf("%w: coordinates must be finite numbers", ErrInvalidSearchRequest)
		}
	case SearchByCode:
		if r.Code == nil || strings.TrimSpace(r.Code.Code) == "" {
			return fmt.Errorf("%w: cadastral code is required", ErrInvalidSearchRequest)
		}
	default:
		return fmt.Errorf("%w: unknown search type %q", ErrInvalidSearchRequest, r.Kind)
	}

	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
