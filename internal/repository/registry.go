package repository

import (
	"context"
	"errors"

	"github.com/stwalsh4118/catastro/internal/models"
)

// Registry-level errors.
var (
	// ErrMalformedCode is returned when a cadastral code does not have the NNNNN-NNN-NNN format.
	ErrMalformedCode = errors.New("malformed cadastral code")
)

// CadastralRegistry is the source of parcel records.
// Implementations must be safe for concurrent use and safely retryable.
type CadastralRegistry interface {
	// Search returns the records matching req, in registry order.
	// Returns an empty slice if nothing matches (not an error).
	// Returns error only for malformed input or backend failures.
	Search(ctx context.Context, req models.SearchRequest) ([]models.ParcelRecord, error)

	// GetDetails returns the record with the given id.
	// Returns nil, nil if no such record exists.
	GetDetails(ctx context.Context, id string) (*models.ParcelRecord, error)

	// Name identifies the backend in logs and health output.
	Name() string
}
