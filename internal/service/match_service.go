package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/domain/matching"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// MatchServiceError is a custom error type for match service errors.
type MatchServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for MatchServiceError.
func (e *MatchServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("match service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("match service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *MatchServiceError) Unwrap() error {
	return e.Err
}

// NewMatchServiceError creates a new MatchServiceError.
func NewMatchServiceError(operation, message string, err error) *MatchServiceError {
	return &MatchServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ArrivalTracker records meeting check-ins. Implemented by the Redis-backed
// tracker in platform/redisstore.
type ArrivalTracker interface {
	MarkArrived(ctx context.Context, meetingID, userID uuid.UUID) error
	HasArrived(ctx context.Context, meetingID, userID uuid.UUID) (bool, error)
	BothArrived(ctx context.Context, meetingID, userA, userB uuid.UUID) (bool, error)
	Clear(ctx context.Context, meetingID uuid.UUID, userIDs ...uuid.UUID) error
}

// PartnerSummary is the anonymized view of a matched partner. Contact
// details are never exposed; the meeting itself is the introduction.
type PartnerSummary struct {
	Gender    string
	Age       int
	Education string
	Job       string
}

// MatchStatus is the read model for a participant's current match.
type MatchStatus struct {
	Matched        bool
	MeetingID      *uuid.UUID
	Partner        *PartnerSummary
	Slot           *time.Time
	MatchedAt      *time.Time
	Arrived        bool
	PartnerArrived bool
}

// MatchService drives the match lifecycle: finding a partner, committing
// the pairing symmetrically, reporting status, recording arrivals, and
// dissolving stale matches.
type MatchService interface {
	// RequestMatch finds and commits the best available partner for the
	// user. Already-matched users get their current match back unchanged.
	// Returns ErrNotEligible or ErrNoMatchAvailable when no pairing can
	// happen; the user remains in the pool for the next batch cycle.
	RequestMatch(ctx context.Context, userID uuid.UUID) (*MatchStatus, error)

	// GetMatchStatus reports the user's current match, if any.
	GetMatchStatus(ctx context.Context, userID uuid.UUID) (*MatchStatus, error)

	// MarkArrived records that the user showed up for their meeting.
	MarkArrived(ctx context.Context, userID uuid.UUID) error

	// RunBatchMatching pairs as many waiting users as possible across all
	// open topics. Returns the number of pairs committed.
	RunBatchMatching(ctx context.Context) (int, error)

	// ExpireStaleMatches dissolves matches whose meeting slot has passed
	// without both sides arriving, and matches older than the configured
	// maximum age. Returns the number of pairs dissolved.
	ExpireStaleMatches(ctx context.Context) (int, error)
}

// matchServiceImpl implements the MatchService interface.
type matchServiceImpl struct {
	transactor  store.Transactor
	userStore   store.UserStore
	dimStore    store.DimensionStore
	tracker     ArrivalTracker
	maxMatchAge time.Duration
	logger      *slog.Logger
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	transactor store.Transactor,
	userStore store.UserStore,
	dimStore store.DimensionStore,
	tracker ArrivalTracker,
	maxMatchAge time.Duration,
	logger *slog.Logger,
) (MatchService, error) {
	if transactor == nil {
		return nil, domain.NewValidationError("transactor", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if dimStore == nil {
		return nil, domain.NewValidationError("dimStore", "cannot be nil", domain.ErrValidation)
	}
	if tracker == nil {
		return nil, domain.NewValidationError("tracker", "cannot be nil", domain.ErrValidation)
	}
	if maxMatchAge <= 0 {
		return nil, domain.NewValidationError("maxMatchAge", "must be positive", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &matchServiceImpl{
		transactor:  transactor,
		userStore:   userStore,
		dimStore:    dimStore,
		tracker:     tracker,
		maxMatchAge: maxMatchAge,
		logger:      logger.With(slog.String("component", "match_service")),
	}, nil
}

// loadScorer builds a scorer from the current matching-dimension weights.
// Weights live in the catalog so a migration can retune them without a
// deploy; loading per operation keeps the scorer current.
func (s *matchServiceImpl) loadScorer(ctx context.Context) (*matching.Scorer, error) {
	dims, err := s.dimStore.ListActive(ctx)
	if err != nil {
		return nil, NewMatchServiceError("load_scorer", "failed to load catalog", err)
	}

	weights := make(map[string]float64)
	for _, d := range dims {
		if d.Category == domain.CategoryMatching {
			weights[d.Name] = d.Weight
		}
	}

	scorer, err := matching.NewScorer(weights)
	if err != nil {
		return nil, NewMatchServiceError("load_scorer", "invalid weight catalog", err)
	}
	return scorer, nil
}

// RequestMatch implements MatchService.RequestMatch
func (s *matchServiceImpl) RequestMatch(ctx context.Context, userID uuid.UUID) (*MatchStatus, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewMatchServiceError("request_match", "failed to load user", err)
	}

	// Already matched: idempotent, return the standing match.
	if user.HasPartner {
		return s.statusFor(ctx, user)
	}

	if !user.Matchable() {
		return nil, ErrNotEligible
	}

	scorer, err := s.loadScorer(ctx)
	if err != nil {
		return nil, err
	}

	// A concurrent commit can take our chosen partner between the pool
	// read and the row locks. One fresh retry; after that the user waits
	// for the next batch cycle.
	for attempt := 0; attempt < 2; attempt++ {
		profiles, err := s.userStore.ListCandidateProfiles(ctx, user.Topic)
		if err != nil {
			return nil, NewMatchServiceError("request_match", "failed to load candidate pool", err)
		}

		seeker, pool, ok := splitSeeker(userID, profiles)
		if !ok {
			// The pool query applies the same eligibility filters, so a
			// missing seeker means eligibility was lost concurrently.
			return nil, ErrNotEligible
		}

		result, found := matching.FindBestMatch(seeker, pool, scorer)
		if !found {
			return nil, ErrNoMatchAvailable
		}

		err = s.commitPair(ctx, userID, result.Partner.UserID, result.CommonSlot)
		if err == nil {
			log.Info("match committed",
				slog.String("user_id", userID.String()),
				slog.String("partner_id", result.Partner.UserID.String()),
				slog.Float64("score", result.Score),
				slog.Time("slot", result.CommonSlot))

			matched, err := s.userStore.GetByID(ctx, userID)
			if err != nil {
				return nil, NewMatchServiceError("request_match", "failed to reload match", err)
			}
			return s.statusFor(ctx, matched)
		}

		if errors.Is(err, store.ErrPairingConflict) {
			log.Debug("pairing conflict, retrying with fresh pool",
				slog.String("user_id", userID.String()),
				slog.Int("attempt", attempt))
			continue
		}

		return nil, NewMatchServiceError("request_match", "failed to commit pairing", err)
	}

	return nil, ErrNoMatchAvailable
}

// GetMatchStatus implements MatchService.GetMatchStatus
func (s *matchServiceImpl) GetMatchStatus(ctx context.Context, userID uuid.UUID) (*MatchStatus, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewMatchServiceError("get_status", "failed to load user", err)
	}
	return s.statusFor(ctx, user)
}

// MarkArrived implements MatchService.MarkArrived
func (s *matchServiceImpl) MarkArrived(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewMatchServiceError("mark_arrived", "failed to load user", err)
	}

	if !user.HasPartner || user.MeetingID == nil {
		return ErrNotMatched
	}

	if err := s.tracker.MarkArrived(ctx, *user.MeetingID, userID); err != nil {
		return NewMatchServiceError("mark_arrived", "failed to record arrival", err)
	}
	return nil
}

// RunBatchMatching implements MatchService.RunBatchMatching
// Within each topic the pool is walked oldest-registration first; each
// seeker gets its best available partner and both leave the pool for the
// rest of the pass.
func (s *matchServiceImpl) RunBatchMatching(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	scorer, err := s.loadScorer(ctx)
	if err != nil {
		return 0, err
	}

	topics, err := s.userStore.ListOpenTopics(ctx)
	if err != nil {
		return 0, NewMatchServiceError("batch_matching", "failed to list open topics", err)
	}

	pairs := 0
	for _, topic := range topics {
		profiles, err := s.userStore.ListCandidateProfiles(ctx, topic)
		if err != nil {
			return pairs, NewMatchServiceError("batch_matching", "failed to load candidate pool", err)
		}

		taken := make(map[uuid.UUID]bool)
		for _, seeker := range profiles {
			if taken[seeker.UserID] {
				continue
			}

			pool := make([]matching.Profile, 0, len(profiles))
			for _, p := range profiles {
				if !taken[p.UserID] && p.UserID != seeker.UserID {
					pool = append(pool, p)
				}
			}

			result, found := matching.FindBestMatch(seeker, pool, scorer)
			if !found {
				continue
			}

			err := s.commitPair(ctx, seeker.UserID, result.Partner.UserID, result.CommonSlot)
			if err != nil {
				if errors.Is(err, store.ErrPairingConflict) {
					// Someone matched concurrently; their rows are stale
					// in this snapshot, move on.
					taken[seeker.UserID] = true
					taken[result.Partner.UserID] = true
					continue
				}
				log.Error("failed to commit batch pairing",
					slog.String("error", err.Error()),
					slog.String("user_id", seeker.UserID.String()),
					slog.String("partner_id", result.Partner.UserID.String()))
				continue
			}

			taken[seeker.UserID] = true
			taken[result.Partner.UserID] = true
			pairs++
		}
	}

	log.Info("batch matching pass complete",
		slog.Int("topics", len(topics)),
		slog.Int("pairs", pairs))
	return pairs, nil
}

// ExpireStaleMatches implements MatchService.ExpireStaleMatches
func (s *matchServiceImpl) ExpireStaleMatches(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	cutoff := now.Add(-s.maxMatchAge)

	candidates, err := s.userStore.ListExpirable(ctx, now, cutoff)
	if err != nil {
		return 0, NewMatchServiceError("expire_matches", "failed to list stale matches", err)
	}

	handled := make(map[uuid.UUID]bool)
	dissolved := 0
	for _, user := range candidates {
		if user.PartnerID == nil || user.MeetingID == nil {
			continue
		}
		meetingID := *user.MeetingID
		if handled[meetingID] {
			continue
		}
		handled[meetingID] = true

		partnerID := *user.PartnerID
		overAge := user.MatchCreatedAt != nil && user.MatchCreatedAt.Before(cutoff)

		// A meeting that actually happened is left standing; only the
		// absolute age cap dissolves it.
		if !overAge {
			both, err := s.tracker.BothArrived(ctx, meetingID, user.ID, partnerID)
			if err != nil {
				log.Error("failed to check arrivals, skipping meeting",
					slog.String("error", err.Error()),
					slog.String("meeting_id", meetingID.String()))
				continue
			}
			if both {
				continue
			}
		}

		if err := s.dissolvePair(ctx, user.ID, partnerID, meetingID); err != nil {
			if errors.Is(err, store.ErrPairingConflict) {
				continue
			}
			log.Error("failed to dissolve stale match",
				slog.String("error", err.Error()),
				slog.String("meeting_id", meetingID.String()))
			continue
		}

		// Best effort: flags also expire on their own via TTL.
		if err := s.tracker.Clear(ctx, meetingID, user.ID, partnerID); err != nil {
			log.Warn("failed to clear arrival flags",
				slog.String("error", err.Error()),
				slog.String("meeting_id", meetingID.String()))
		}

		dissolved++
		log.Info("stale match dissolved",
			slog.String("meeting_id", meetingID.String()),
			slog.String("user_id", user.ID.String()),
			slog.String("partner_id", partnerID.String()),
			slog.Bool("over_age", overAge))
	}

	return dissolved, nil
}

// commitPair links two users symmetrically in one transaction. Both rows
// are locked in deterministic ID order so concurrent commits touching the
// same users cannot deadlock; a user who gained a partner between pool read
// and lock fails the re-check and the commit reports a pairing conflict.
func (s *matchServiceImpl) commitPair(ctx context.Context, a, b uuid.UUID, slot time.Time) error {
	first, second := orderPair(a, b)

	return s.transactor.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)

		userA, err := txUsers.GetForUpdate(ctx, first)
		if err != nil {
			return err
		}
		userB, err := txUsers.GetForUpdate(ctx, second)
		if err != nil {
			return err
		}

		if userA.HasPartner || userB.HasPartner {
			return store.ErrPairingConflict
		}

		meetingID := uuid.New()
		now := time.Now().UTC()

		if err := txUsers.SetPartner(ctx, a, b, meetingID, slot, now); err != nil {
			return err
		}
		return txUsers.SetPartner(ctx, b, a, meetingID, slot, now)
	})
}

// dissolvePair clears both sides of a match in one transaction, locking in
// the same deterministic order as commitPair. If either side no longer
// points at the other with the expected meeting, the match already changed
// and the dissolve reports a pairing conflict.
func (s *matchServiceImpl) dissolvePair(ctx context.Context, a, b, meetingID uuid.UUID) error {
	first, second := orderPair(a, b)

	return s.transactor.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)

		userA, err := txUsers.GetForUpdate(ctx, first)
		if err != nil {
			return err
		}
		userB, err := txUsers.GetForUpdate(ctx, second)
		if err != nil {
			return err
		}

		if !pairedWithMeeting(userA, userB, meetingID) {
			return store.ErrPairingConflict
		}

		if err := txUsers.ClearPartner(ctx, first); err != nil {
			return err
		}
		return txUsers.ClearPartner(ctx, second)
	})
}

// statusFor assembles the read model for a loaded user.
func (s *matchServiceImpl) statusFor(ctx context.Context, user *domain.User) (*MatchStatus, error) {
	if !user.HasPartner || user.PartnerID == nil || user.MeetingID == nil {
		return &MatchStatus{Matched: false}, nil
	}

	partner, err := s.userStore.GetByID(ctx, *user.PartnerID)
	if err != nil {
		return nil, NewMatchServiceError("get_status", "failed to load partner", err)
	}

	status := &MatchStatus{
		Matched:   true,
		MeetingID: user.MeetingID,
		Partner: &PartnerSummary{
			Gender:    partner.Gender,
			Age:       partner.Age,
			Education: partner.Education,
			Job:       partner.Job,
		},
		Slot:      user.MatchedSlot,
		MatchedAt: user.MatchCreatedAt,
	}

	arrived, err := s.tracker.HasArrived(ctx, *user.MeetingID, user.ID)
	if err != nil {
		return nil, NewMatchServiceError("get_status", "failed to check arrival", err)
	}
	partnerArrived, err := s.tracker.HasArrived(ctx, *user.MeetingID, partner.ID)
	if err != nil {
		return nil, NewMatchServiceError("get_status", "failed to check partner arrival", err)
	}
	status.Arrived = arrived
	status.PartnerArrived = partnerArrived

	return status, nil
}

// splitSeeker pulls the seeker's own snapshot out of the pool.
func splitSeeker(userID uuid.UUID, profiles []matching.Profile) (matching.Profile, []matching.Profile, bool) {
	var (
		seeker matching.Profile
		found  bool
	)
	pool := make([]matching.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID == userID {
			seeker = p
			found = true
			continue
		}
		pool = append(pool, p)
	}
	return seeker, pool, found
}

// orderPair returns the two IDs in their canonical locking order.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

// pairedWithMeeting verifies the two rows still form the expected match.
func pairedWithMeeting(a, b *domain.User, meetingID uuid.UUID) bool {
	return a.HasPartner && b.HasPartner &&
		a.PartnerID != nil && *a.PartnerID == b.ID &&
		b.PartnerID != nil && *b.PartnerID == a.ID &&
		a.MeetingID != nil && *a.MeetingID == meetingID &&
		b.MeetingID != nil && *b.MeetingID == meetingID
}
