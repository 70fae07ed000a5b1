package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// OpinionServiceError is a custom error type for opinion service errors.
type OpinionServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for OpinionServiceError.
func (e *OpinionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("opinion service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("opinion service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *OpinionServiceError) Unwrap() error {
	return e.Err
}

// NewOpinionServiceError creates a new OpinionServiceError.
func NewOpinionServiceError(operation, message string, err error) *OpinionServiceError {
	return &OpinionServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// OpinionService manages the opinion survey: the dimension catalog, answer
// submission, and the derived openness score.
type OpinionService interface {
	// ListDimensions returns the active survey dimensions in catalog order.
	ListDimensions(ctx context.Context) ([]*domain.OpinionDimension, error)

	// SubmitScores stores the given answers and, once every active
	// dimension is answered, derives the user's openness score and
	// extremism flag. Partial submissions are kept; the user stays
	// unscored until the survey is complete. Re-submitting a dimension
	// overwrites the earlier answer and triggers re-derivation.
	SubmitScores(ctx context.Context, userID uuid.UUID, answers map[string]float64) error

	// GetScores returns the user's stored answers keyed by dimension.
	GetScores(ctx context.Context, userID uuid.UUID) (map[string]float64, error)
}

// opinionServiceImpl implements the OpinionService interface.
type opinionServiceImpl struct {
	transactor store.Transactor
	userStore  store.UserStore
	scoreStore store.OpinionScoreStore
	dimStore   store.DimensionStore
	logger     *slog.Logger
}

// NewOpinionService creates a new OpinionService.
func NewOpinionService(
	transactor store.Transactor,
	userStore store.UserStore,
	scoreStore store.OpinionScoreStore,
	dimStore store.DimensionStore,
	logger *slog.Logger,
) (OpinionService, error) {
	if transactor == nil {
		return nil, domain.NewValidationError("transactor", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if scoreStore == nil {
		return nil, domain.NewValidationError("scoreStore", "cannot be nil", domain.ErrValidation)
	}
	if dimStore == nil {
		return nil, domain.NewValidationError("dimStore", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &opinionServiceImpl{
		transactor: transactor,
		userStore:  userStore,
		scoreStore: scoreStore,
		dimStore:   dimStore,
		logger:     logger.With(slog.String("component", "opinion_service")),
	}, nil
}

// ListDimensions implements OpinionService.ListDimensions
func (s *opinionServiceImpl) ListDimensions(ctx context.Context) ([]*domain.OpinionDimension, error) {
	dims, err := s.dimStore.ListActive(ctx)
	if err != nil {
		return nil, NewOpinionServiceError("list_dimensions", "failed to load catalog", err)
	}
	return dims, nil
}

// GetScores implements OpinionService.GetScores
func (s *opinionServiceImpl) GetScores(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	scores, err := s.scoreStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewOpinionServiceError("get_scores", "failed to load scores", err)
	}

	out := make(map[string]float64, len(scores))
	for _, sc := range scores {
		out[sc.Dimension] = sc.Value
	}
	return out, nil
}

// SubmitScores implements OpinionService.SubmitScores
// The answer upserts and the derived openness update happen in one
// transaction so a reader never sees a scored user with stale answers.
func (s *opinionServiceImpl) SubmitScores(ctx context.Context, userID uuid.UUID, answers map[string]float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(answers) == 0 {
		return domain.NewValidationError("answers", "cannot be empty", domain.ErrValidation)
	}

	catalog, err := s.dimStore.ListActive(ctx)
	if err != nil {
		return NewOpinionServiceError("submit_scores", "failed to load catalog", err)
	}

	byName := make(map[string]*domain.OpinionDimension, len(catalog))
	for _, d := range catalog {
		byName[d.Name] = d
	}

	scores := make([]*domain.OpinionScore, 0, len(answers))
	for dimension, value := range answers {
		if _, ok := byName[dimension]; !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownDimension, dimension)
		}
		score, err := domain.NewOpinionScore(userID, dimension, value)
		if err != nil {
			return err
		}
		scores = append(scores, score)
	}

	// Existence check up front so a typo'd user ID fails with not-found
	// instead of a foreign key violation.
	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewOpinionServiceError("submit_scores", "failed to load user", err)
	}

	return s.transactor.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txScores := s.scoreStore.WithTx(tx)
		txUsers := s.userStore.WithTx(tx)

		for _, score := range scores {
			if err := txScores.Upsert(ctx, score); err != nil {
				log.Error("failed to save opinion score",
					slog.String("error", err.Error()),
					slog.String("user_id", userID.String()),
					slog.String("dimension", score.Dimension))
				return NewOpinionServiceError("submit_scores", "failed to save answer", err)
			}
		}

		stored, err := txScores.ListByUser(ctx, userID)
		if err != nil {
			return NewOpinionServiceError("submit_scores", "failed to reload answers", err)
		}

		answered := make(map[string]float64, len(stored))
		for _, sc := range stored {
			answered[sc.Dimension] = sc.Value
		}

		var attitude []float64
		complete := true
		for _, d := range catalog {
			v, ok := answered[d.Name]
			if !ok {
				complete = false
				continue
			}
			if d.Category == domain.CategoryAttitude {
				attitude = append(attitude, v)
			}
		}

		if !complete {
			log.Debug("survey incomplete, deferring openness derivation",
				slog.String("user_id", userID.String()),
				slog.Int("answered", len(answered)),
				slog.Int("catalog_size", len(catalog)))
			return nil
		}

		openness, ok := domain.Openness(attitude)
		if !ok {
			return NewOpinionServiceError("submit_scores", "attitude answers incomplete", nil)
		}

		extremist := domain.IsExtremist(openness)
		if err := txUsers.UpdateScoring(ctx, userID, openness, extremist); err != nil {
			log.Error("failed to update derived scoring",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return NewOpinionServiceError("submit_scores", "failed to save derived scoring", err)
		}

		log.Info("survey complete, openness derived",
			slog.String("user_id", userID.String()),
			slog.Float64("openness", openness),
			slog.Bool("extremist", extremist))
		return nil
	})
}
