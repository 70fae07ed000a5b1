package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// PostgresOpinionScoreStore implements the store.OpinionScoreStore interface
// using a PostgreSQL database as the storage backend.
type PostgresOpinionScoreStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOpinionScoreStore creates a new PostgreSQL implementation of the
// OpinionScoreStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresOpinionScoreStore(db store.DBTX, logger *slog.Logger) *PostgresOpinionScoreStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOpinionScoreStore{
		db:     db,
		logger: logger.With(slog.String("component", "opinion_score_store")),
	}
}

// Ensure PostgresOpinionScoreStore implements store.OpinionScoreStore interface
var _ store.OpinionScoreStore = (*PostgresOpinionScoreStore)(nil)

// WithTx implements store.OpinionScoreStore.WithTx
func (s *PostgresOpinionScoreStore) WithTx(tx *sql.Tx) store.OpinionScoreStore {
	return &PostgresOpinionScoreStore{
		db:     tx,
		logger: s.logger,
	}
}

// Upsert implements store.OpinionScoreStore.Upsert
// Re-submitting a dimension overwrites the previous answer and keeps the
// original created_at.
func (s *PostgresOpinionScoreStore) Upsert(ctx context.Context, score *domain.OpinionScore) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := score.Validate(); err != nil {
		log.Warn("opinion score validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", score.UserID.String()),
			slog.String("dimension", score.Dimension))
		return err
	}

	query := `
		INSERT INTO opinion_scores (user_id, dimension, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, dimension)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		score.UserID,
		score.Dimension,
		score.Value,
		score.CreatedAt,
		score.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert opinion score",
			slog.String("error", err.Error()),
			slog.String("user_id", score.UserID.String()),
			slog.String("dimension", score.Dimension))
		return MapError(err)
	}

	return nil
}

// ListByUser implements store.OpinionScoreStore.ListByUser
func (s *PostgresOpinionScoreStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OpinionScore, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, dimension, value, created_at, updated_at
		FROM opinion_scores
		WHERE user_id = $1
		ORDER BY dimension
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query opinion scores",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var scores []*domain.OpinionScore
	for rows.Next() {
		var score domain.OpinionScore
		if err := rows.Scan(&score.UserID, &score.Dimension, &score.Value,
			&score.CreatedAt, &score.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		scores = append(scores, &score)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return scores, nil
}
