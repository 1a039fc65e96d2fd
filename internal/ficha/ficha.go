package ficha

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
)

// ErrExportFailed wraps any failure to produce a ficha PDF.
var ErrExportFailed = errors.New("ficha export failed")

// Document is a generated ficha ready for download.
type Document struct {
	FileName string
	PDF      []byte
}

// Generator renders a parcel's ficha and prints it through an Exporter.
type Generator struct {
	renderer *Renderer
	exporter Exporter
	log      *logger.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(renderer *Renderer, exporter Exporter, log *logger.Logger) *Generator {
	return &Generator{
		renderer: renderer,
		exporter: exporter,
		log:      log.WithComponent("ficha"),
	}
}

// Generate produces the PDF ficha of rec. Failures are logged and wrapped
// with ErrExportFailed; ErrExportDisabled is also reachable through errors.Is.
func (g *Generator) Generate(ctx context.Context, rec *models.ParcelRecord) (*Document, error) {
	html, err := g.renderer.Render(rec)
	if err != nil {
		g.log.Error("Failed to render ficha", err, nil)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	fields := map[string]interface{}{
		"parcel_id": rec.ID,
		"code":      rec.Code,
	}

	pdf, err := g.exporter.Export(ctx, html)
	if err != nil {
		g.log.Error("Failed to export ficha", err, fields)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	fields["bytes"] = len(pdf)
	g.log.Info("Ficha exported", fields)

	return &Document{
		FileName: FileName(rec.Code),
		PDF:      pdf,
	}, nil
}
