package models

import (
	"regexp"
	"slices"
)

// Zoning is a district zoning class describing the permitted land use.
type Zoning string

// District zoning classes.
const (
	ZoningResidentialR4 Zoning = "Residencial R4"
	ZoningResidentialR3 Zoning = "Residencial R3"
	ZoningCommercialC2  Zoning = "Comercial C2"
	ZoningMixedRM       Zoning = "Mixto RM"
	ZoningAgriculturalA Zoning = "Agrícola AG"
	ZoningIndustrialI1  Zoning = "Industrial I1"
	ZoningEducationE1   Zoning = "Educación E1"
)

// ZoningClasses lists every zoning class in registry order.
var ZoningClasses = []Zoning{
	ZoningResidentialR4,
	ZoningResidentialR3,
	ZoningCommercialC2,
	ZoningMixedRM,
	ZoningAgriculturalA,
	ZoningIndustrialI1,
	ZoningEducationE1,
}

// PlanarPoint is a vertex in projected (UTM-like) coordinates, in metres.
type PlanarPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// GeoPoint is a geographic position in decimal degrees (WGS84).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// AnchorPoint is a named reference position used to place generated parcels on the map.
type AnchorPoint struct {
	GeoPoint `yaml:",inline"`

	Name string `json:"name" yaml:"name"`
}

// ParcelRecord is a single cadastral parcel (predio).
// Records are immutable once produced; a new search produces new records.
// GeoVertices is parallel to PlanarVertices: index i in one corresponds to index i in the other.
type ParcelRecord struct {
	ID                   string        `json:"id" yaml:"id"`
	Code                 string        `json:"codigo" yaml:"codigo"`
	CadastralReference   string        `json:"referenciaCatastral" yaml:"referenciaCatastral"`
	Address              string        `json:"direccion" yaml:"direccion"`
	Owner                string        `json:"propietario" yaml:"propietario"`
	Area                 string        `json:"area" yaml:"area"`
	Perimeter            string        `json:"perimetro" yaml:"perimetro"`
	Zoning               Zoning        `json:"zonificacion" yaml:"zonificacion"`
	RegistrationDate     string        `json:"fechaRegistro,omitempty" yaml:"fechaRegistro,omitempty"`
	AssessedValue        string        `json:"valorCatastral,omitempty" yaml:"valorCatastral,omitempty"`
	LandUse              string        `json:"usoSuelo,omitempty" yaml:"usoSuelo,omitempty"`
	ConstructionMaterial string        `json:"materialConstruccion,omitempty" yaml:"materialConstruccion,omitempty"`
	ConstructionAge      string        `json:"antiguedadConstruccion,omitempty" yaml:"antiguedadConstruccion,omitempty"`
	ConservationState    string        `json:"estadoConservacion,omitempty" yaml:"estadoConservacion,omitempty"`
	Services             []string      `json:"servicios,omitempty" yaml:"servicios,omitempty"`
	PlanarVertices       []PlanarPoint `json:"coordenadas" yaml:"coordenadas"`
	GeoVertices          []GeoPoint    `json:"geoCoords" yaml:"geoCoords"`
}

// Clone returns a copy of p that shares no slices with it.
func (p ParcelRecord) Clone() ParcelRecord {
	p.Services = slices.Clone(p.Services)
	p.PlanarVertices = slices.Clone(p.PlanarVertices)
	p.GeoVertices = slices.Clone(p.GeoVertices)
	return p
}

// Footprint returns the parcel boundary as a closed GeoJSON polygon in [lng, lat] order.
// Returns an empty Polygon when the record has no geographic vertices.
func (p *ParcelRecord) Footprint() Polygon {
	if len(p.GeoVertices) == 0 {
		return Polygon{}
	}

	ring := make([][2]float64, 0, len(p.GeoVertices)+1)
	for _, v := range p.GeoVertices {
		ring = append(ring, [2]float64{v.Lng, v.Lat})
	}
	first := p.GeoVertices[0]
	last := p.GeoVertices[len(p.GeoVertices)-1]
	if first != last {
		ring = append(ring, [2]float64{first.Lng, first.Lat})
	}

	return Polygon{
		Coordinates: [][][2]float64{ring},
		SRID:        4326,
	}
}

// SearchResult is the ordered outcome of a registry search.
type SearchResult struct {
	Records      []ParcelRecord `json:"results" yaml:"results"`
	IsEmpty      bool           `json:"isEmpty" yaml:"isEmpty"`
	ErrorMessage string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSearchResult wraps records into a SearchResult, deriving IsEmpty.
func NewSearchResult(records []ParcelRecord) *SearchResult {
	if records == nil {
		records = []ParcelRecord{}
	}
	return &SearchResult{
		Records: records,
		IsEmpty: len(records) == 0,
	}
}

var cadastralCodePattern = regexp.MustCompile(`^\d{5}-\d{3}-\d{3}$`)

// ValidCadastralCode reports whether code has the district format NNNNN-NNN-NNN.
func ValidCadastralCode(code string) bool {
	return cadastralCodePattern.MatchString(code)
}
