package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/repository"
)

// Service-level errors
var (
	ErrInvalidRequest     = errors.New("invalid search request")
	ErrParcelNotFound     = errors.New("parcel not found")
	ErrMalformedCode      = repository.ErrMalformedCode
	ErrServiceUnavailable = errors.New("cadastral registry unavailable")
)

// CadastralService defines the search API the portal relies on.
type CadastralService interface {
	// Search runs req against the registry.
	// Returns ErrInvalidRequest if req is malformed.
	// Returns ErrMalformedCode if the registry rejects the cadastral code format.
	// Returns a SearchResult with IsEmpty set when nothing matches (not an error).
	// Any other registry failure is wrapped with ErrServiceUnavailable.
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)

	// GetDetails retrieves a single parcel by id.
	// Returns ErrParcelNotFound if the registry does not know the id.
	GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error)

	// Backend names the registry implementation in use.
	Backend() string
}

type cadastralService struct {
	registry repository.CadastralRegistry
	log      *logger.Logger
}

// NewCadastralService creates a new instance of CadastralService.
func NewCadastralService(registry repository.CadastralRegistry, log *logger.Logger) CadastralService {
	return &cadastralService{
		registry: registry,
		log:      log.WithComponent("cadastral_service"),
	}
}

func (s *cadastralService) Backend() string {
	return s.registry.Name()
}

// Search validates req, queries the registry and maps its failures to service errors.
func (s *cadastralService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	if err := req.Validate(); err != nil {
		s.log.Warn("Rejected search request", map[string]interface{}{
			"type":  req.Kind,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	fields := searchFields(req)
	s.log.Info("Searching parcels", fields)

	start := time.Now()
	records, err := s.registry.Search(ctx, req)
	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMalformedCode):
			s.log.Warn("Malformed cadastral code", fields)
			return nil, err
		case errors.Is(err, models.ErrInvalidSearchRequest):
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		s.log.Error("Parcel search failed", err, fields)
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	result := models.NewSearchResult(records)
	fields["count"] = len(result.Records)
	s.log.Info("Parcel search completed", fields)

	return result, nil
}

// GetDetails looks up a parcel by id. The registry reports absence as nil, nil.
func (s *cadastralService) GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: parcel id is required", ErrInvalidRequest)
	}

	rec, err := s.registry.GetDetails(ctx, id)
	if err != nil {
		s.log.Error("Failed to load parcel details", err, map[string]interface{}{
			"parcel_id": id,
			"backend":   s.registry.Name(),
		})
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	if rec == nil {
		s.log.Debug("Parcel not found", map[string]interface{}{
			"parcel_id": id,
		})
		return nil, ErrParcelNotFound
	}

	return rec, nil
}

// searchFields builds log fields for req. Owner names are personal data, so
// only their length is logged.
func searchFields(req models.SearchRequest) map[string]interface{} {
	fields := map[string]interface{}{
		"type": req.Kind,
	}
	switch req.Kind {
	case models.SearchByOwner:
		fields["query_len"] = len(req.Owner.Query)
	case models.SearchByCode:
		fields["code"] = req.Code.Code
	case models.SearchByCoordinates:
		fields["x"] = req.Coordinates.X
		fields["y"] = req.Coordinates.Y
	}
	return fields
}
