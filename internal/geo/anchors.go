// Package geo places planar parcel geometry on the map and measures polygons.
//
// The projection here is an affine box-fit onto fixed anchor points in the
// district of Jesús (Cajamarca). It keeps the relative shape of a parcel but
// not its metric size or orientation; a registry backed by real data uses
// PostGIS to transform UTM geometry instead.
package geo

import (
	"math/rand/v2"

	"github.com/stwalsh4118/catastro/internal/models"
)

// DistrictCenter is the reference centre of the district (Jesús town centre).
var DistrictCenter = models.GeoPoint{Lat: -7.2458, Lng: -78.3861}

// AnchorJitter is the full width, in degrees, of the random offset applied
// around an anchor so parcels sharing an anchor do not overlap exactly.
const AnchorJitter = 0.005

// AnchorTable is an ordered, immutable set of anchor points.
type AnchorTable []models.AnchorPoint

// DistrictAnchors returns the ten zones of the district used to seed generated parcels.
func DistrictAnchors() AnchorTable {
	return AnchorTable{
		{Name: "Centro de Jesús", GeoPoint: models.GeoPoint{Lat: -7.2458, Lng: -78.3861}},
		{Name: "Zona sur", GeoPoint: models.GeoPoint{Lat: -7.252, Lng: -78.392}},
		{Name: "Zona norte", GeoPoint: models.GeoPoint{Lat: -7.24, Lng: -78.38}},
		{Name: "Zona este", GeoPoint: models.GeoPoint{Lat: -7.248, Lng: -78.375}},
		{Name: "Zona oeste", GeoPoint: models.GeoPoint{Lat: -7.243, Lng: -78.395}},
		{Name: "Zona noreste", GeoPoint: models.GeoPoint{Lat: -7.238, Lng: -78.383}},
		{Name: "Zona sureste", GeoPoint: models.GeoPoint{Lat: -7.251, Lng: -78.378}},
		{Name: "Zona noroeste", GeoPoint: models.GeoPoint{Lat: -7.239, Lng: -78.393}},
		{Name: "Zona suroeste", GeoPoint: models.GeoPoint{Lat: -7.254, Lng: -78.389}},
		{Name: "Zona central alternativa", GeoPoint: models.GeoPoint{Lat: -7.247, Lng: -78.384}},
	}
}

// Index reduces any integer to a valid table index.
func (t AnchorTable) Index(i int) int {
	n := len(t)
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// At returns the anchor at i modulo the table size.
func (t AnchorTable) At(i int) models.AnchorPoint {
	return t[t.Index(i)]
}

// Jittered returns the anchor at i displaced by a uniform offset in
// [-spread/2, spread/2) on each axis.
func (t AnchorTable) Jittered(i int, rng *rand.Rand, spread float64) models.GeoPoint {
	return Jitter(t.At(i).GeoPoint, rng, spread)
}

// Jitter displaces p by a uniform offset in [-spread/2, spread/2) on each axis.
func Jitter(p models.GeoPoint, rng *rand.Rand, spread float64) models.GeoPoint {
	return models.GeoPoint{
		Lat: p.Lat + (rng.Float64()*spread - spread/2),
		Lng: p.Lng + (rng.Float64()*spread - spread/2),
	}
}
