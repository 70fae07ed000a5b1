package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/domain/matching"
	"github.com/parleyhq/parley-api/internal/store"
)

// fakeTransactor runs the function directly without a real transaction.
// The in-memory stores ignore the nil *sql.Tx.
type fakeTransactor struct {
	mu    sync.Mutex
	calls int

	// failuresLeft injects store.ErrPairingConflict for the next N calls
	// before running the function, to exercise retry paths.
	failuresLeft int
}

func (t *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	t.mu.Lock()
	t.calls++
	if t.failuresLeft > 0 {
		t.failuresLeft--
		t.mu.Unlock()
		return store.ErrPairingConflict
	}
	t.mu.Unlock()
	return fn(ctx, nil)
}

// memUserStore is an in-memory store.UserStore sharing score state with
// memScoreStore so candidate profiles carry real answers.
type memUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	scores *memScoreStore
	dims   *memDimensionStore
}

func newMemUserStore(scores *memScoreStore, dims *memDimensionStore) *memUserStore {
	return &memUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		scores: scores,
		dims:   dims,
	}
}

var _ store.UserStore = (*memUserStore)(nil)

func (m *memUserStore) put(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

func (m *memUserStore) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Topic = user.Topic
	u.Gender = user.Gender
	u.Age = user.Age
	u.Education = user.Education
	u.Job = user.Job
	u.TimeSlots = append([]time.Time(nil), user.TimeSlots...)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memUserStore) UpdateScoring(ctx context.Context, id uuid.UUID, openness float64, extremist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.OpennessScore = openness
	u.IsExtremist = extremist
	u.Scored = true
	return nil
}

func (m *memUserStore) SetPartner(ctx context.Context, id, partnerID, meetingID uuid.UUID, slot, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.HasPartner = true
	u.PartnerID = &partnerID
	u.MeetingID = &meetingID
	s := slot.UTC()
	u.MatchedSlot = &s
	a := at.UTC()
	u.MatchCreatedAt = &a
	return nil
}

func (m *memUserStore) ClearPartner(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.HasPartner = false
	u.PartnerID = nil
	u.MeetingID = nil
	u.MatchedSlot = nil
	u.MatchCreatedAt = nil
	return nil
}

func (m *memUserStore) ListCandidateProfiles(ctx context.Context, topic string) ([]matching.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matchingDims := make(map[string]bool)
	for _, d := range m.dims.catalog {
		if d.Category == domain.CategoryMatching && d.Active {
			matchingDims[d.Name] = true
		}
	}

	var profiles []matching.Profile
	for _, u := range m.users {
		if u.Topic != topic || u.HasPartner || u.IsExtremist || !u.Scored || len(u.TimeSlots) == 0 {
			continue
		}
		scores := make(map[string]float64)
		for dim, v := range m.scores.answers(u.ID) {
			if matchingDims[dim] {
				scores[dim] = v
			}
		}
		if len(scores) == 0 {
			continue
		}
		profiles = append(profiles, matching.Profile{
			UserID:       u.ID,
			Topic:        u.Topic,
			Extremist:    u.IsExtremist,
			HasPartner:   u.HasPartner,
			RegisteredAt: u.CreatedAt,
			Slots:        append([]time.Time(nil), u.TimeSlots...),
			Scores:       scores,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].RegisteredAt.Equal(profiles[j].RegisteredAt) {
			return profiles[i].RegisteredAt.Before(profiles[j].RegisteredAt)
		}
		return profiles[i].UserID.String() < profiles[j].UserID.String()
	})
	return profiles, nil
}

func (m *memUserStore) ListOpenTopics(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, u := range m.users {
		if u.Topic != "" && !u.HasPartner && !u.IsExtremist && u.Scored && len(u.TimeSlots) > 0 {
			seen[u.Topic] = true
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics, nil
}

func (m *memUserStore) ListExpirable(ctx context.Context, slotBefore, createdBefore time.Time) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.users {
		if !u.HasPartner {
			continue
		}
		slotPassed := u.MatchedSlot != nil && u.MatchedSlot.Before(slotBefore)
		overAge := u.MatchCreatedAt != nil && u.MatchCreatedAt.Before(createdBefore)
		if slotPassed || overAge {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}

// memScoreStore is an in-memory store.OpinionScoreStore.
type memScoreStore struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]map[string]*domain.OpinionScore
}

func newMemScoreStore() *memScoreStore {
	return &memScoreStore{byUser: make(map[uuid.UUID]map[string]*domain.OpinionScore)}
}

var _ store.OpinionScoreStore = (*memScoreStore)(nil)

func (m *memScoreStore) Upsert(ctx context.Context, score *domain.OpinionScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUser[score.UserID] == nil {
		m.byUser[score.UserID] = make(map[string]*domain.OpinionScore)
	}
	cp := *score
	if prev, ok := m.byUser[score.UserID][score.Dimension]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	m.byUser[score.UserID][score.Dimension] = &cp
	return nil
}

func (m *memScoreStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OpinionScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OpinionScore
	for _, sc := range m.byUser[userID] {
		cp := *sc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dimension < out[j].Dimension })
	return out, nil
}

func (m *memScoreStore) WithTx(tx *sql.Tx) store.OpinionScoreStore {
	return m
}

func (m *memScoreStore) answers(userID uuid.UUID) map[string]float64 {
	out := make(map[string]float64)
	for dim, sc := range m.byUser[userID] {
		out[dim] = sc.Value
	}
	return out
}

// memDimensionStore serves a fixed catalog.
type memDimensionStore struct {
	catalog []*domain.OpinionDimension
}

var _ store.DimensionStore = (*memDimensionStore)(nil)

func (m *memDimensionStore) ListActive(ctx context.Context) ([]*domain.OpinionDimension, error) {
	out := make([]*domain.OpinionDimension, 0, len(m.catalog))
	for _, d := range m.catalog {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

// testCatalog builds a full catalog: five attitude dimensions at weight 1.0
// and ten weighted matching dimensions.
func testCatalog() *memDimensionStore {
	weights := []float64{2.0, 1.8, 1.5, 1.9, 1.3, 1.4, 1.2, 1.1, 1.7, 1.6}
	var catalog []*domain.OpinionDimension
	for i := 1; i <= domain.AttitudeDimensionCount; i++ {
		catalog = append(catalog, &domain.OpinionDimension{
			Name:     fmt.Sprintf("att_%d", i),
			Category: domain.CategoryAttitude,
			Ordinal:  i,
			Weight:   1.0,
			Active:   true,
		})
	}
	for i := 1; i <= domain.MatchingDimensionCount; i++ {
		catalog = append(catalog, &domain.OpinionDimension{
			Name:     fmt.Sprintf("match_%d", i),
			Category: domain.CategoryMatching,
			Ordinal:  i,
			Weight:   weights[i-1],
			Active:   true,
		})
	}
	return &memDimensionStore{catalog: catalog}
}

// fakeTracker is an in-memory ArrivalTracker.
type fakeTracker struct {
	mu      sync.Mutex
	arrived map[string]bool
	cleared []uuid.UUID
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{arrived: make(map[string]bool)}
}

var _ ArrivalTracker = (*fakeTracker)(nil)

func trackerKey(meetingID, userID uuid.UUID) string {
	return meetingID.String() + ":" + userID.String()
}

func (t *fakeTracker) MarkArrived(ctx context.Context, meetingID, userID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arrived[trackerKey(meetingID, userID)] = true
	return nil
}

func (t *fakeTracker) HasArrived(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arrived[trackerKey(meetingID, userID)], nil
}

func (t *fakeTracker) BothArrived(ctx context.Context, meetingID, userA, userB uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arrived[trackerKey(meetingID, userA)] && t.arrived[trackerKey(meetingID, userB)], nil
}

func (t *fakeTracker) Clear(ctx context.Context, meetingID uuid.UUID, userIDs ...uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range userIDs {
		delete(t.arrived, trackerKey(meetingID, id))
	}
	t.cleared = append(t.cleared, meetingID)
	return nil
}
