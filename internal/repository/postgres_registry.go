package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/catastro/internal/database"
	"github.com/stwalsh4118/catastro/internal/geo"
	"github.com/stwalsh4118/catastro/internal/models"
)

// UTMZone17S is the SRID parcel geometry is stored in.
const UTMZone17S = 32717

// Maximum number of parcels returned by an owner search.
const maxOwnerMatches = 3

// parcelColumns is shared by every query so scanParcel sees the same layout.
// Geometry is read twice: in its stored UTM form for the planar vertex table,
// and transformed to WGS84 for the map.
const parcelColumns = `
	id,
	code,
	COALESCE(cadastral_reference, ''),
	COALESCE(address, ''),
	COALESCE(owner_name, ''),
	COALESCE(zoning, ''),
	COALESCE(to_char(registration_date, 'DD/MM/YYYY'), ''),
	assessed_value::float8,
	COALESCE(land_use, ''),
	COALESCE(construction_material, ''),
	construction_year,
	COALESCE(conservation_state, ''),
	COALESCE(services, '{}'),
	ST_AsGeoJSON(geom),
	ST_AsGeoJSON(ST_Transform(geom, 4326))
`

// PostgresRegistry serves parcel records from the parcels table (PostGIS).
type PostgresRegistry struct {
	db *database.Database
}

// NewPostgresRegistry creates a registry backed by the given pool.
func NewPostgresRegistry(db *database.Database) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Name implements CadastralRegistry.
func (r *PostgresRegistry) Name() string {
	return "postgres"
}

// Search implements CadastralRegistry.
//
// Note: coordinate searches are interpreted as UTM 17S easting/northing and
// matched with ST_Contains against the stored geometry.
func (r *PostgresRegistry) Search(ctx context.Context, req models.SearchRequest) ([]models.ParcelRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		query string
		args  []any
	)

	switch req.Kind {
	case models.SearchByOwner:
		query = `SELECT ` + parcelColumns + `
			FROM parcels
			WHERE owner_name ILIKE '%' || $1 || '%'
			ORDER BY owner_name, code
			LIMIT $2`
		args = []any{escapeLike(strings.TrimSpace(req.Owner.Query)), maxOwnerMatches}
	case models.SearchByCode:
		code := strings.TrimSpace(req.Code.Code)
		if !models.ValidCadastralCode(code) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCode, code)
		}
		query = `SELECT ` + parcelColumns + `
			FROM parcels
			WHERE code = $1
			LIMIT 1`
		args = []any{code}
	case models.SearchByCoordinates:
		query = `SELECT ` + parcelColumns + `
			FROM parcels
			WHERE ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), $3))
			LIMIT 1`
		args = []any{req.Coordinates.X, req.Coordinates.Y, UTMZone17S}
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search parcels (type=%s): %w", req.Kind, err)
	}
	defer rows.Close()

	results := []models.ParcelRecord{}
	for rows.Next() {
		rec, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcel rows: %w", err)
	}

	return results, nil
}

// GetDetails implements CadastralRegistry.
func (r *PostgresRegistry) GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = $1`

	rec, err := scanParcel(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %q: %w", id, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (*models.ParcelRecord, error) {
	var (
		rec              models.ParcelRecord
		zoning           string
		assessedValue    *float64
		constructionYear *int
		planar           models.Polygon
		geographic       models.Polygon
		planarJSON       []byte
		geoJSON          []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.Code,
		&rec.CadastralReference,
		&rec.Address,
		&rec.Owner,
		&zoning,
		&rec.RegistrationDate,
		&assessedValue,
		&rec.LandUse,
		&rec.ConstructionMaterial,
		&constructionYear,
		&rec.ConservationState,
		&rec.Services,
		&planarJSON,
		&geoJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan parcel row: %w", err)
	}

	if err := planar.Scan(planarJSON); err != nil {
		return nil, fmt.Errorf("failed to parse planar geometry for parcel %s: %w", rec.ID, err)
	}
	if err := geographic.Scan(geoJSON); err != nil {
		return nil, fmt.Errorf("failed to parse geographic geometry for parcel %s: %w", rec.ID, err)
	}

	rec.Zoning = models.Zoning(zoning)
	if assessedValue != nil {
		rec.AssessedValue = fmt.Sprintf("S/ %.2f", *assessedValue)
	}
	if constructionYear != nil {
		rec.ConstructionAge = fmt.Sprintf("Año %d", *constructionYear)
	}

	for _, p := range planar.OuterRing() {
		rec.PlanarVertices = append(rec.PlanarVertices, models.PlanarPoint{X: p.Lng, Y: p.Lat})
	}
	rec.GeoVertices = geographic.OuterRing()
	if len(rec.GeoVertices) != len(rec.PlanarVertices) {
		return nil, fmt.Errorf("parcel %s: geographic ring has %d vertices, planar ring has %d",
			rec.ID, len(rec.GeoVertices), len(rec.PlanarVertices))
	}

	rec.Area = geo.FormatArea(geo.Area(rec.PlanarVertices))
	rec.Perimeter = geo.FormatPerimeter(geo.Perimeter(rec.PlanarVertices))

	return &rec, nil
}

// escapeLike escapes LIKE wildcards so owner names match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
