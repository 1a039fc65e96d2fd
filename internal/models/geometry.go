package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Polygon is a GeoJSON polygon: [rings][points][lng,lat], SRID 4326.
// It is the wire form of a parcel footprint and the scan target for
// ST_AsGeoJSON output in the PostgreSQL registry.
type Polygon struct {
	Coordinates [][][2]float64
	SRID        int
}

type geoJSONPolygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Scan implements sql.Scanner for ST_AsGeoJSON output.
func (p *Polygon) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Polygon: expected []byte or string, got %T", value)
	}

	var geom geoJSONPolygon
	if err := json.Unmarshal(raw, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon geometry: %w", err)
	}
	if geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326
	return nil
}

// Value implements driver.Valuer, returning GeoJSON text for ST_GeomFromGeoJSON.
func (p Polygon) Value() (driver.Value, error) {
	if len(p.Coordinates) == 0 {
		return nil, nil
	}

	geoJSON, err := json.Marshal(geoJSONPolygon{Type: "Polygon", Coordinates: p.Coordinates})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon to GeoJSON: %w", err)
	}
	return string(geoJSON), nil
}

// MarshalJSON emits a GeoJSON geometry object.
func (p Polygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPolygon{Type: "Polygon", Coordinates: p.Coordinates})
}

// UnmarshalJSON parses a GeoJSON geometry object. An absent type is accepted.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom geoJSONPolygon
	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}
	if geom.Type != "" && geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326
	return nil
}

// OuterRing returns the exterior ring as geographic points, dropping the
// closing vertex so the result is parallel to an open planar ring.
func (p Polygon) OuterRing() []GeoPoint {
	if len(p.Coordinates) == 0 {
		return nil
	}

	ring := p.Coordinates[0]
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}

	points := make([]GeoPoint, 0, len(ring))
	for _, c := range ring {
		points = append(points, GeoPoint{Lat: c[1], Lng: c[0]})
	}
	return points
}
