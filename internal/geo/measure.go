package geo

import (
	"fmt"
	"math"

	"github.com/stwalsh4118/catastro/internal/models"
)

// Area returns the planar area of a ring using the shoelace formula.
// The ring is implicitly closed. Rings with fewer than 3 vertices have area 0.
// Vertices are taken relative to the first one to keep precision at UTM magnitudes.
func Area(ring []models.PlanarPoint) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}

	ox, oy := ring[0].X, ring[0].Y
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += (ring[i].X-ox)*(ring[j].Y-oy) - (ring[j].X-ox)*(ring[i].Y-oy)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the sum of edge lengths of the implicitly closed ring.
// Rings with fewer than 3 vertices have perimeter 0.
func Perimeter(ring []models.PlanarPoint) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += math.Hypot(ring[j].X-ring[i].X, ring[j].Y-ring[i].Y)
	}
	return sum
}

// FormatArea renders square metres the way the ficha shows them.
func FormatArea(m2 float64) string {
	return fmt.Sprintf("%.2f m²", m2)
}

// FormatPerimeter renders metres the way the ficha shows them.
func FormatPerimeter(m float64) string {
	return fmt.Sprintf("%.2f m", m)
}
