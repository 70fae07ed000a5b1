package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/service"
)

// mockUserService implements service.UserService with overridable functions.
type mockUserService struct {
	RegisterUserFn   func(ctx context.Context, email string) (*domain.User, error)
	GetUserFn        func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfileFn  func(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (*domain.User, error)
	AvailableSlotsFn func() []time.Time
}

var _ service.UserService = (*mockUserService)(nil)

func (m *mockUserService) RegisterUser(ctx context.Context, email string) (*domain.User, error) {
	return m.RegisterUserFn(ctx, email)
}

func (m *mockUserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetUserFn(ctx, id)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (*domain.User, error) {
	return m.UpdateProfileFn(ctx, id, update)
}

func (m *mockUserService) AvailableSlots() []time.Time {
	if m.AvailableSlotsFn == nil {
		return nil
	}
	return m.AvailableSlotsFn()
}

// mockMatchService implements service.MatchService with overridable functions.
type mockMatchService struct {
	RequestMatchFn      func(ctx context.Context, userID uuid.UUID) (*service.MatchStatus, error)
	GetMatchStatusFn    func(ctx context.Context, userID uuid.UUID) (*service.MatchStatus, error)
	MarkArrivedFn       func(ctx context.Context, userID uuid.UUID) error
	RunBatchMatchingFn  func(ctx context.Context) (int, error)
	ExpireStaleMatchesF func(ctx context.Context) (int, error)
}

var _ service.MatchService = (*mockMatchService)(nil)

func (m *mockMatchService) RequestMatch(ctx context.Context, userID uuid.UUID) (*service.MatchStatus, error) {
	return m.RequestMatchFn(ctx, userID)
}

func (m *mockMatchService) GetMatchStatus(ctx context.Context, userID uuid.UUID) (*service.MatchStatus, error) {
	return m.GetMatchStatusFn(ctx, userID)
}

func (m *mockMatchService) MarkArrived(ctx context.Context, userID uuid.UUID) error {
	return m.MarkArrivedFn(ctx, userID)
}

func (m *mockMatchService) RunBatchMatching(ctx context.Context) (int, error) {
	if m.RunBatchMatchingFn == nil {
		return 0, nil
	}
	return m.RunBatchMatchingFn(ctx)
}

func (m *mockMatchService) ExpireStaleMatches(ctx context.Context) (int, error) {
	if m.ExpireStaleMatchesF == nil {
		return 0, nil
	}
	return m.ExpireStaleMatchesF(ctx)
}

// mockOpinionService implements service.OpinionService with overridable functions.
type mockOpinionService struct {
	ListDimensionsFn func(ctx context.Context) ([]*domain.OpinionDimension, error)
	SubmitScoresFn   func(ctx context.Context, userID uuid.UUID, answers map[string]float64) error
	GetScoresFn      func(ctx context.Context, userID uuid.UUID) (map[string]float64, error)
}

var _ service.OpinionService = (*mockOpinionService)(nil)

func (m *mockOpinionService) ListDimensions(ctx context.Context) ([]*domain.OpinionDimension, error) {
	return m.ListDimensionsFn(ctx)
}

func (m *mockOpinionService) SubmitScores(ctx context.Context, userID uuid.UUID, answers map[string]float64) error {
	return m.SubmitScoresFn(ctx, userID, answers)
}

func (m *mockOpinionService) GetScores(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	return m.GetScoresFn(ctx, userID)
}
