package postgres

import (
	"context"
	"log/slog"

	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// PostgresDimensionStore implements the store.DimensionStore interface
// using a PostgreSQL database as the storage backend. The dimension catalog
// is seeded by migration and read-only at runtime.
type PostgresDimensionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDimensionStore creates a new PostgreSQL implementation of the
// DimensionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDimensionStore(db store.DBTX, logger *slog.Logger) *PostgresDimensionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDimensionStore{
		db:     db,
		logger: logger.With(slog.String("component", "dimension_store")),
	}
}

// Ensure PostgresDimensionStore implements store.DimensionStore interface
var _ store.DimensionStore = (*PostgresDimensionStore)(nil)

// ListActive implements store.DimensionStore.ListActive
func (s *PostgresDimensionStore) ListActive(ctx context.Context) ([]*domain.OpinionDimension, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT name, display_name, category, ordinal, description, weight, active
		FROM opinion_dimensions
		WHERE active
		ORDER BY category, ordinal
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query opinion dimensions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var dimensions []*domain.OpinionDimension
	for rows.Next() {
		var d domain.OpinionDimension
		if err := rows.Scan(&d.Name, &d.DisplayName, &d.Category, &d.Ordinal,
			&d.Description, &d.Weight, &d.Active); err != nil {
			return nil, MapError(err)
		}
		dimensions = append(dimensions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return dimensions, nil
}
