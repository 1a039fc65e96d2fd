package geo

import (
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/stwalsh4118/catastro/internal/models"
)

const (
	// BaseScale converts planar metres to degrees before clamping.
	BaseScale = 1e-5
	// MaxDegreeSpan bounds the projected polygon to roughly 300 m.
	MaxDegreeSpan = 0.003
)

// Projector fits planar rings onto geographic anchors.
type Projector struct {
	anchors AnchorTable
	rng     *rand.Rand
}

// NewProjector creates a Projector. rng is used only when Project is called
// without an anchor.
func NewProjector(anchors AnchorTable, rng *rand.Rand) *Projector {
	return &Projector{anchors: anchors, rng: rng}
}

// Project maps every vertex of ring to a geographic point around anchor,
// preserving order. A nil anchor picks one of the table anchors at random.
//
// Each vertex keeps its relative position inside the ring's bounding box;
// the box is scaled by min(BaseScale, MaxDegreeSpan/max(width, height)).
// A zero-width or zero-height box places every vertex on the anchor along
// that axis.
func (p *Projector) Project(ring []models.PlanarPoint, anchor *models.GeoPoint) []models.GeoPoint {
	if len(ring) == 0 {
		return []models.GeoPoint{}
	}

	base := p.resolveAnchor(anchor)

	line := make(orb.LineString, 0, len(ring))
	for _, v := range ring {
		line = append(line, orb.Point{v.X, v.Y})
	}
	bound := line.Bound()
	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]

	scale := BaseScale
	if span := math.Max(width, height); span > 0 {
		scale = math.Min(BaseScale, MaxDegreeSpan/span)
	}

	out := make([]models.GeoPoint, 0, len(ring))
	for _, v := range ring {
		relX, relY := 0.5, 0.5
		if width > 0 {
			relX = (v.X - bound.Min[0]) / width
		}
		if height > 0 {
			relY = (v.Y - bound.Min[1]) / height
		}
		out = append(out, models.GeoPoint{
			Lat: base.Lat + (relY-0.5)*height*scale,
			Lng: base.Lng + (relX-0.5)*width*scale,
		})
	}
	return out
}

func (p *Projector) resolveAnchor(anchor *models.GeoPoint) models.GeoPoint {
	if anchor != nil {
		return *anchor
	}
	if len(p.anchors) == 0 {
		return DistrictCenter
	}
	return p.anchors[p.rng.IntN(len(p.anchors))].GeoPoint
}

// Centroid returns the vertex average of a geographic ring.
func Centroid(ring []models.GeoPoint) models.GeoPoint {
	if len(ring) == 0 {
		return models.GeoPoint{}
	}
	var lat, lng float64
	for _, v := range ring {
		lat += v.Lat
		lng += v.Lng
	}
	n := float64(len(ring))
	return models.GeoPoint{Lat: lat / n, Lng: lng / n}
}

// Bound returns the orb bound of a geographic ring in [lng, lat] order.
func Bound(ring []models.GeoPoint) orb.Bound {
	mp := make(orb.MultiPoint, 0, len(ring))
	for _, v := range ring {
		mp = append(mp, orb.Point{v.Lng, v.Lat})
	}
	return mp.Bound()
}
