package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stwalsh4118/catastro/internal/geo"
	"github.com/stwalsh4118/catastro/internal/models"
)

// Default mock registry settings.
const (
	DefaultSearchLatency  = 1500 * time.Millisecond
	DefaultDetailsLatency = 1000 * time.Millisecond
	DefaultMaxTracked     = 1000
)

// Base of the synthetic UTM grid (WGS 1984 UTM Zone 17S) around the district.
const (
	baseEasting  = 765000
	baseNorthing = 9234000
)

// Owner searches return between 1 and maxOwnerResults records.
const maxOwnerResults = 3

// Value pools the generator draws from.
var (
	streetNames = []string{
		"Jr. Miguel Grau", "Jr. Bolívar", "Jr. San Martín", "Av. Cajamarca",
		"Calle Real", "Jr. Lima", "Av. Perú",
	}
	firstNames = []string{
		"Juan", "María", "Pedro", "Ana", "Luis", "Carmen", "José", "Rosa", "Carlos", "Lucía",
	}
	surnames = []string{
		"Carmona", "García", "Rodríguez", "López", "Martínez",
		"González", "Sánchez", "Romero", "Torres", "Díaz",
	}
	landUses = []string{
		"Vivienda unifamiliar", "Vivienda multifamiliar", "Comercio", "Mixto",
		"Agrícola", "Industrial", "Educativo",
	}
	materials = []string{
		"Concreto", "Adobe", "Ladrillo", "Mixto", "Madera", "Prefabricado", "Material noble",
	}
	conservationStates = []string{
		"Excelente", "Bueno", "Regular", "Malo", "En construcción", "Ruinoso",
	}
	utilityServices = []string{
		"Agua", "Desagüe", "Electricidad", "Internet", "Gas", "Cable", "Telefonía", "Alumbrado público",
	}
)

// MockRegistryConfig configures a MockRegistry. Latencies are used as given,
// zero meaning none; other zero values fall back to defaults.
type MockRegistryConfig struct {
	Anchors        geo.AnchorTable
	SearchLatency  time.Duration
	DetailsLatency time.Duration
	MaxTracked     int
	Rand           *rand.Rand
	// NoLatency disables the artificial latency entirely.
	NoLatency bool
}

// MockRegistry fabricates plausible parcel records in place of a real cadastral registry.
// Every record it produces is remembered (up to MaxTracked) so GetDetails
// returns the same record for an id it handed out.
type MockRegistry struct {
	anchors        geo.AnchorTable
	projector      *geo.Projector
	searchLatency  time.Duration
	detailsLatency time.Duration
	maxTracked     int

	mu      sync.Mutex
	rng     *rand.Rand
	records map[string]models.ParcelRecord
	order   []string
}

// NewMockRegistry creates a MockRegistry.
func NewMockRegistry(cfg MockRegistryConfig) *MockRegistry {
	if len(cfg.Anchors) == 0 {
		cfg.Anchors = geo.DistrictAnchors()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = DefaultMaxTracked
	}
	if cfg.NoLatency {
		cfg.SearchLatency, cfg.DetailsLatency = 0, 0
	}
	cfg.SearchLatency = max(cfg.SearchLatency, 0)
	cfg.DetailsLatency = max(cfg.DetailsLatency, 0)

	return &MockRegistry{
		anchors:        cfg.Anchors,
		projector:      geo.NewProjector(cfg.Anchors, cfg.Rand),
		searchLatency:  cfg.SearchLatency,
		detailsLatency: cfg.DetailsLatency,
		maxTracked:     cfg.MaxTracked,
		rng:            cfg.Rand,
		records:        make(map[string]models.ParcelRecord),
	}
}

// Name implements CadastralRegistry.
func (r *MockRegistry) Name() string {
	return "mock"
}

// LocationIndexForCode derives the anchor index for a cadastral code.
// The same code always maps to the same anchor.
func LocationIndexForCode(code string) int {
	return utf8.RuneCountInString(code) % 10
}

// Search implements CadastralRegistry.
func (r *MockRegistry) Search(ctx context.Context, req models.SearchRequest) ([]models.ParcelRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := wait(ctx, r.searchLatency); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var results []models.ParcelRecord
	switch req.Kind {
	case models.SearchByOwner:
		n := r.rng.IntN(maxOwnerResults) + 1
		for i := 0; i < n; i++ {
			results = append(results, r.generate(recordPlan{
				idPrefix:      fmt.Sprintf("O%d", i+1),
				kind:          models.SearchByOwner,
				owner:         req.Owner.Query,
				locationIndex: i,
			}))
		}
	case models.SearchByCoordinates:
		origin := models.PlanarPoint{X: req.Coordinates.X, Y: req.Coordinates.Y}
		results = append(results, r.generate(recordPlan{
			idPrefix: "C1",
			kind:     models.SearchByCoordinates,
			origin:   &origin,
		}))
	case models.SearchByCode:
		results = append(results, r.generate(recordPlan{
			idPrefix:      "CD1",
			kind:          models.SearchByCode,
			code:          req.Code.Code,
			locationIndex: LocationIndexForCode(req.Code.Code),
		}))
	}

	for _, rec := range results {
		r.track(rec)
	}
	return results, nil
}

// GetDetails implements CadastralRegistry. Only ids this registry produced are known.
func (r *MockRegistry) GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error) {
	if err := wait(ctx, r.detailsLatency); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	rec = rec.Clone()
	return &rec, nil
}

// recordPlan describes one record to generate.
type recordPlan struct {
	idPrefix      string
	kind          models.SearchKind
	owner         string
	code          string
	origin        *models.PlanarPoint
	locationIndex int
}

// generate must be called with r.mu held.
func (r *MockRegistry) generate(s recordPlan) models.ParcelRecord {
	code := s.code
	if code == "" {
		code = fmt.Sprintf("%05d-%03d-%03d", 10000+r.rng.IntN(90000), 100+r.rng.IntN(900), 100+r.rng.IntN(900))
	}

	var address string
	switch s.kind {
	case models.SearchByOwner:
		address = fmt.Sprintf("%s %d", pick(r.rng, streetNames), 100+r.rng.IntN(500))
	case models.SearchByCoordinates:
		address = "Predio sin dirección registrada"
	case models.SearchByCode:
		address = fmt.Sprintf("Predio con código %s", code)
	default:
		address = fmt.Sprintf("Calle %d N° %d", 1+r.rng.IntN(50), 100+r.rng.IntN(500))
	}

	owner := s.owner
	if owner == "" {
		owner = fmt.Sprintf("%s %s", pick(r.rng, firstNames), pick(r.rng, surnames))
	}

	width := float64(10 + r.rng.IntN(50))
	height := float64(10 + r.rng.IntN(50))

	var base models.PlanarPoint
	var anchor models.GeoPoint
	if s.origin != nil {
		base = *s.origin
		anchor = geo.Jitter(geo.DistrictCenter, r.rng, 2*geo.AnchorJitter)
	} else {
		idx := r.anchors.Index(s.locationIndex)
		anchor = r.anchors.Jittered(idx, r.rng, geo.AnchorJitter)
		base = models.PlanarPoint{
			X: float64(baseEasting + r.rng.IntN(1000) + idx*1000),
			Y: float64(baseNorthing + r.rng.IntN(1000) + idx*500),
		}
	}

	ring := []models.PlanarPoint{
		{X: base.X, Y: base.Y},
		{X: base.X + width, Y: base.Y},
		{X: base.X + width, Y: base.Y + height},
		{X: base.X, Y: base.Y + height},
	}

	serviceCount := 2 + r.rng.IntN(5)
	services := make([]string, serviceCount)
	copy(services, utilityServices[:serviceCount])

	return models.ParcelRecord{
		ID:                   fmt.Sprintf("%s-%s", s.idPrefix, uuid.NewString()[:8]),
		Code:                 code,
		CadastralReference:   fmt.Sprintf("RC-%d", 10000+r.rng.IntN(90000)),
		Address:              address,
		Owner:                owner,
		Area:                 geo.FormatArea(width * height),
		Perimeter:            geo.FormatPerimeter(2 * (width + height)),
		Zoning:               models.ZoningClasses[r.rng.IntN(len(models.ZoningClasses))],
		RegistrationDate:     fmt.Sprintf("%02d/%02d/%d", 1+r.rng.IntN(28), 1+r.rng.IntN(12), 2010+r.rng.IntN(10)),
		AssessedValue:        fmt.Sprintf("S/ %.2f", r.rng.Float64()*500000+50000),
		LandUse:              pick(r.rng, landUses),
		ConstructionMaterial: pick(r.rng, materials),
		ConstructionAge:      fmt.Sprintf("%d años", 1+r.rng.IntN(50)),
		ConservationState:    pick(r.rng, conservationStates),
		Services:             services,
		PlanarVertices:       ring,
		GeoVertices:          r.projector.Project(ring, &anchor),
	}
}

// track must be called with r.mu held.
func (r *MockRegistry) track(rec models.ParcelRecord) {
	if _, exists := r.records[rec.ID]; !exists {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = rec.Clone()

	for len(r.order) > r.maxTracked {
		delete(r.records, r.order[0])
		r.order = r.order[1:]
	}
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
