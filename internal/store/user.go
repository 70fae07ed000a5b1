package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/domain/matching"
)

// UserStore defines the interface for participant persistence, including
// the pairing fields the matching engine mutates.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	// Returns validation errors from the domain User if data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetForUpdate retrieves a user with a row-level lock using
	// SELECT FOR UPDATE. It must be called within a transaction and is the
	// basis of the pairing concurrency discipline: two writers racing on
	// the same user serialize here.
	// Returns ErrUserNotFound if the user does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile persists the pre-matching profile fields: topic,
	// demographics, and the declared time slots.
	// Returns ErrUserNotFound if the user does not exist.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// UpdateScoring persists the questionnaire outcome: the openness score
	// and the derived extremist flag.
	// Returns ErrUserNotFound if the user does not exist.
	UpdateScoring(ctx context.Context, id uuid.UUID, openness float64, extremist bool) error

	// SetPartner writes one side of a pairing: partner reference, shared
	// meeting ID, the chosen slot, and the match timestamp. The service
	// calls it for both sides inside a single transaction; calling it
	// outside one breaks the symmetry invariant.
	SetPartner(ctx context.Context, id, partnerID, meetingID uuid.UUID, slot, at time.Time) error

	// ClearPartner removes one side of a pairing, returning the user to
	// the unmatched pool. Like SetPartner it is always paired with the
	// mirror call in the same transaction.
	ClearPartner(ctx context.Context, id uuid.UUID) error

	// ListCandidateProfiles returns matching-ready profile snapshots for
	// every unmatched, non-extremist, fully scored user on the given
	// topic, oldest registration first.
	ListCandidateProfiles(ctx context.Context, topic string) ([]matching.Profile, error)

	// ListOpenTopics returns the distinct topics that currently have at
	// least one unmatched, matchable user.
	ListOpenTopics(ctx context.Context) ([]string, error)

	// ListExpirable returns the matched users whose chosen slot lies
	// before slotBefore or whose match was created before createdBefore.
	// Both sides of an affected pair appear in the result.
	ListExpirable(ctx context.Context, slotBefore, createdBefore time.Time) ([]*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. This allows multiple operations to be executed within
	// a single transaction, managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
