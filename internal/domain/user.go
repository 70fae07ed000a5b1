package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTimeSlots is the maximum number of preferred meeting slots a
// participant may declare.
const MaxTimeSlots = 3

// User represents a study participant. Identity and session handling live
// upstream; this entity carries only the fields the matching engine reads
// and writes.
type User struct {
	ID    uuid.UUID
	Email string

	// Discussion subject chosen before scoring. Matching never crosses
	// topic boundaries.
	Topic string

	// Demographics collected together with availability.
	Gender    string
	Age       int
	Education string
	Job       string

	// Up to MaxTimeSlots preferred meeting times, ascending.
	TimeSlots []time.Time

	// Derived from the attitude questionnaire. Valid only once Scored is
	// true; an extremist is permanently ineligible for matching.
	OpennessScore float64
	IsExtremist   bool
	Scored        bool

	// Pairing state. HasPartner, PartnerID, and MeetingID are always set
	// and cleared together, symmetrically on both sides of a pair.
	HasPartner     bool
	PartnerID      *uuid.UUID
	MeetingID      *uuid.UUID
	MatchedSlot    *time.Time
	MatchCreatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a participant with a fresh ID. The topic and availability
// arrive later in the flow, so only identity fields are validated here.
func NewUser(email string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks the fields the engine depends on. Pairing symmetry is a
// cross-row invariant enforced by the store, not here.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrInvalidID)
	}

	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}

	if err := ValidateTimeSlots(u.TimeSlots); err != nil && len(u.TimeSlots) > 0 {
		return err
	}

	if u.HasPartner {
		if u.PartnerID == nil {
			return fmt.Errorf("%w: partnered user missing partner ID", ErrValidation)
		}
		if *u.PartnerID == u.ID {
			return ErrSelfMatch
		}
	}

	return nil
}

// Matchable reports whether the user can enter the candidate pool: scored,
// not an extremist, not already partnered, with a topic and at least one
// declared slot.
func (u *User) Matchable() bool {
	return u.Scored &&
		!u.IsExtremist &&
		!u.HasPartner &&
		u.Topic != "" &&
		len(u.TimeSlots) > 0
}

// ValidateTimeSlots checks a submitted availability set: between one and
// MaxTimeSlots distinct timestamps.
func ValidateTimeSlots(slots []time.Time) error {
	if len(slots) == 0 {
		return ErrNoTimeSlots
	}
	if len(slots) > MaxTimeSlots {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTimeSlots, len(slots), MaxTimeSlots)
	}

	seen := make(map[time.Time]struct{}, len(slots))
	for _, s := range slots {
		key := s.UTC()
		if _, dup := seen[key]; dup {
			return ErrDuplicateTimeSlots
		}
		seen[key] = struct{}{}
	}

	return nil
}
