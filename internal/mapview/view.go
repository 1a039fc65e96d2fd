package mapview

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stwalsh4118/catastro/internal/geo"
	"github.com/stwalsh4118/catastro/internal/models"
)

// Fit settings for a selected parcel.
const (
	FitPadding = 50
	FitMaxZoom = 22
)

// Placeholder text shown while nothing is selected.
const (
	PlaceholderTitle   = "Visor Catastral"
	PlaceholderMessage = "Busque un predio para visualizarlo en el mapa"
)

// Feature roles, stored in the "role" property.
const (
	RoleParcel = "parcel"
	RoleVertex = "vertex"
	RoleLabel  = "label"
)

// ErrUnknownLayer is returned for a base layer name that is not configured.
var ErrUnknownLayer = errors.New("unknown base layer")

var popupTemplate = template.Must(template.New("popup").Parse(
	`<div style="min-width: 200px;">` +
		`<h3 style="font-weight: bold; margin-bottom: 5px;">{{.Address}}</h3>` +
		`<p><strong>Código:</strong> {{.Code}}</p>` +
		`<p><strong>Área:</strong> {{.Area}}</p>` +
		`<p><strong>Zonificación:</strong> {{.Zoning}}</p>` +
		`<p><strong>Propietario:</strong> {{.Owner}}</p>` +
		`</div>`))

// Placeholder is the single marker drawn when nothing is selected.
type Placeholder struct {
	Position models.GeoPoint `json:"position"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
}

// FitBounds tells the front-end which box to fit the viewport to.
type FitBounds struct {
	SouthWest models.GeoPoint `json:"southWest"`
	NorthEast models.GeoPoint `json:"northEast"`
	Padding   [2]int          `json:"padding"`
	MaxZoom   int             `json:"maxZoom"`
}

// View is everything the front-end needs to redraw the parcel layer. Each View
// is built from scratch, so the front-end clears its layer and draws this one.
type View struct {
	BaseLayer   string                     `json:"baseLayer"`
	MaxZoom     int                        `json:"maxZoom"`
	Center      models.GeoPoint            `json:"center"`
	Zoom        int                        `json:"zoom"`
	Placeholder *Placeholder               `json:"placeholder,omitempty"`
	Features    *geojson.FeatureCollection `json:"features"`
	Popup       template.HTML              `json:"popup,omitempty"`
	FitBounds   *FitBounds                 `json:"fitBounds,omitempty"`
}

// Build returns the view of selected on the default base layer.
func (v *Viewer) Build(selected *models.ParcelRecord) View {
	view, _ := v.BuildOn(v.baseLayers[0].Name, selected)
	return view
}

// BuildOn returns the view of selected on the named base layer. A nil selection
// yields the placeholder marker at the view centre.
func (v *Viewer) BuildOn(layer string, selected *models.ParcelRecord) (View, error) {
	zoom, err := v.ClampZoom(layer, v.zoom)
	if err != nil {
		return View{}, err
	}
	maxZoom, _ := v.MaxZoomFor(layer)

	view := View{
		BaseLayer: layer,
		MaxZoom:   maxZoom,
		Center:    v.center,
		Zoom:      zoom,
		Features:  geojson.NewFeatureCollection(),
	}

	if selected == nil || len(selected.GeoVertices) == 0 {
		view.Placeholder = &Placeholder{
			Position: v.center,
			Title:    PlaceholderTitle,
			Message:  PlaceholderMessage,
		}
		return view, nil
	}

	bound := geo.Bound(selected.GeoVertices)
	center := bound.Center()

	view.Features = ParcelFeatures(selected)
	view.Center = models.GeoPoint{Lat: center.Lat(), Lng: center.Lon()}
	view.FitBounds = &FitBounds{
		SouthWest: models.GeoPoint{Lat: bound.Min.Lat(), Lng: bound.Min.Lon()},
		NorthEast: models.GeoPoint{Lat: bound.Max.Lat(), Lng: bound.Max.Lon()},
		Padding:   [2]int{FitPadding, FitPadding},
		MaxZoom:   FitMaxZoom,
	}

	popup, err := Popup(selected)
	if err != nil {
		v.log.Error("Failed to render parcel popup", err, map[string]interface{}{
			"parcel_id": selected.ID,
		})
	}
	view.Popup = popup

	return view, nil
}

// ParcelFeatures returns the polygon of rec, one point per vertex labelled
// with its 1-based index, and a label point carrying the cadastral code at
// the centre of the polygon bounds.
func ParcelFeatures(rec *models.ParcelRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	footprint := rec.Footprint()
	if len(footprint.Coordinates) == 0 {
		return fc
	}
	ring := make(orb.Ring, 0, len(footprint.Coordinates[0]))
	for _, c := range footprint.Coordinates[0] {
		ring = append(ring, orb.Point{c[0], c[1]})
	}

	parcel := geojson.NewFeature(orb.Polygon{ring})
	parcel.ID = rec.ID
	parcel.Properties["role"] = RoleParcel
	parcel.Properties["codigo"] = rec.Code
	parcel.Properties["direccion"] = rec.Address
	fc.Append(parcel)

	for i, p := range rec.GeoVertices {
		vertex := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		vertex.Properties["role"] = RoleVertex
		vertex.Properties["index"] = i + 1
		vertex.Properties["label"] = strconv.Itoa(i + 1)
		if i < len(rec.PlanarVertices) {
			utm := rec.PlanarVertices[i]
			vertex.Properties["tooltip"] = fmt.Sprintf("Vértice %d<br>X: %s<br>Y: %s",
				i+1, formatMetres(utm.X), formatMetres(utm.Y))
		}
		fc.Append(vertex)
	}

	c := geo.Centroid(rec.GeoVertices)
	label := geojson.NewFeature(orb.Point{c.Lng, c.Lat})
	label.Properties["role"] = RoleLabel
	label.Properties["label"] = rec.Code
	fc.Append(label)

	return fc
}

// Popup renders the parcel popup. Record values are HTML-escaped.
func Popup(rec *models.ParcelRecord) (template.HTML, error) {
	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, rec); err != nil {
		return "", fmt.Errorf("rendering popup: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func formatMetres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
