// Package ficha renders the printable parcel sheet ("ficha catastral") and
// converts it to PDF.
package ficha

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/stwalsh4118/catastro/internal/models"
)

// Datum names the planar reference system of the vertex table.
const Datum = "WGS 1984 UTM Zone 17S"

//go:embed templates/ficha.html
var templateFS embed.FS

// VertexRow is one line of the vertex table.
type VertexRow struct {
	Index int
	X     string
	Y     string
}

type sheet struct {
	Record   *models.ParcelRecord
	Datum    string
	Vertices []VertexRow
}

// Renderer turns a parcel record into the ficha HTML document.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded ficha template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/ficha.html")
	if err != nil {
		return nil, fmt.Errorf("parsing ficha template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render returns the ficha of rec as a standalone HTML document.
func (r *Renderer) Render(rec *models.ParcelRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("rendering ficha: no record")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, sheet{
		Record:   rec,
		Datum:    Datum,
		Vertices: VertexRows(rec.PlanarVertices),
	}); err != nil {
		return "", fmt.Errorf("rendering ficha: %w", err)
	}
	return buf.String(), nil
}

// VertexRows numbers the vertices from 1 and formats them in metres.
func VertexRows(vertices []models.PlanarPoint) []VertexRow {
	rows := make([]VertexRow, len(vertices))
	for i, v := range vertices {
		rows[i] = VertexRow{
			Index: i + 1,
			X:     strconv.FormatFloat(v.X, 'f', 2, 64),
			Y:     strconv.FormatFloat(v.Y, 'f', 2, 64),
		}
	}
	return rows
}

// FileName is the download name of the ficha of the parcel with code.
// Characters outside [0-9A-Za-z-] are replaced with '_'.
func FileName(code string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		default:
			return '_'
		}
	}, code)
	return "ficha-catastral-" + safe + ".pdf"
}
