package store

import (
	"context"

	"github.com/parleyhq/parley-api/internal/domain"
)

// DimensionStore reads the fixed opinion-dimension catalog. The catalog is
// seeded once by migration and never mutated at runtime, so the interface
// is read-only.
type DimensionStore interface {
	// ListActive returns the active catalog entries in category and
	// ordinal order.
	ListActive(ctx context.Context) ([]*domain.OpinionDimension, error)
}
