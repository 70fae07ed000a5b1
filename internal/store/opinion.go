package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
)

// OpinionScoreStore defines the interface for per-user questionnaire
// answers. There is at most one row per (user, dimension); submissions
// after the first update in place.
type OpinionScoreStore interface {
	// Upsert inserts the score or, if the (user, dimension) pair already
	// exists, updates its value and updated_at timestamp.
	// Returns validation errors from the domain OpinionScore if data is
	// invalid, and ErrInvalidEntity if the user does not exist.
	Upsert(ctx context.Context, score *domain.OpinionScore) error

	// ListByUser retrieves all scores recorded for the given user, in
	// catalog order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OpinionScore, error)

	// WithTx returns a new OpinionScoreStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) OpinionScoreStore
}
