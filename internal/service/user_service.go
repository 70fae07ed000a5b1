package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// UserServiceError is a custom error type for user service errors.
type UserServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for UserServiceError.
func (e *UserServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("user service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *UserServiceError) Unwrap() error {
	return e.Err
}

// NewUserServiceError creates a new UserServiceError.
func NewUserServiceError(operation, message string, err error) *UserServiceError {
	return &UserServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ProfileUpdate carries the fields a participant may change after
// registration. Zero-valued demographic fields are stored as empty.
type ProfileUpdate struct {
	Topic     string
	Gender    string
	Age       int
	Education string
	Job       string
	TimeSlots []time.Time
}

// UserService provides registration and profile operations.
type UserService interface {
	// RegisterUser creates a new participant from an email address.
	RegisterUser(ctx context.Context, email string) (*domain.User, error)

	// GetUser retrieves a participant by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile replaces the participant's topic, demographics, and
	// declared meeting slots. Slots must fall inside the bookable window.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*domain.User, error)

	// AvailableSlots lists the bookable meeting slots still in the future.
	AvailableSlots() []time.Time
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	userStore store.UserStore
	window    domain.SlotWindow
	logger    *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	window domain.SlotWindow,
	logger *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		userStore: userStore,
		window:    window,
		logger:    logger.With(slog.String("component", "user_service")),
	}, nil
}

// RegisterUser implements UserService.RegisterUser
func (s *userServiceImpl) RegisterUser(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email)
	if err != nil {
		log.Warn("invalid registration",
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if store.IsDuplicateError(err) {
			return nil, err
		}
		log.Error("failed to register user",
			slog.String("error", err.Error()))
		return nil, NewUserServiceError("register", "failed to save user", err)
	}

	return user, nil
}

// GetUser implements UserService.GetUser
func (s *userServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("get", "failed to load user", err)
	}
	return user, nil
}

// UpdateProfile implements UserService.UpdateProfile
func (s *userServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateTimeSlots(update.TimeSlots); err != nil {
		return nil, err
	}
	for _, slot := range update.TimeSlots {
		if !s.window.Contains(slot) {
			return nil, fmt.Errorf("%w: %s", ErrSlotOutsideWindow, slot.UTC().Format(time.RFC3339))
		}
	}

	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("update_profile", "failed to load user", err)
	}

	user.Topic = update.Topic
	user.Gender = update.Gender
	user.Age = update.Age
	user.Education = update.Education
	user.Job = update.Job
	user.TimeSlots = normalizeSlots(update.TimeSlots)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userStore.UpdateProfile(ctx, user); err != nil {
		log.Error("failed to update profile",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, NewUserServiceError("update_profile", "failed to save profile", err)
	}

	log.Info("profile updated",
		slog.String("user_id", id.String()),
		slog.String("topic", update.Topic),
		slog.Int("slot_count", len(user.TimeSlots)))
	return user, nil
}

// AvailableSlots implements UserService.AvailableSlots
func (s *userServiceImpl) AvailableSlots() []time.Time {
	return s.window.GenerateSlots(time.Now().UTC())
}

// normalizeSlots converts declared slots to UTC so comparisons and
// intersections are timezone-independent.
func normalizeSlots(slots []time.Time) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.UTC()
	}
	return out
}
