package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/domain/matching"
	"github.com/parleyhq/parley-api/internal/platform/logger"
	"github.com/parleyhq/parley-api/internal/store"
)

// userColumns is the column list shared by every user SELECT, in scanUser
// order.
const userColumns = `
	id, email, topic, gender, age, education, job,
	time_slot_1, time_slot_2, time_slot_3,
	openness_score, is_extremist, scored,
	has_partner, partner_id, meeting_id, matched_slot, match_created_at,
	created_at, updated_at
`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate email during user creation",
				slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created",
		slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.UserStore.GetForUpdate
// It locks the user's row for the duration of the surrounding transaction.
func (s *PostgresUserStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresUserStore) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, MapError(err)
	}

	return user, nil
}

// UpdateProfile implements store.UserStore.UpdateProfile
func (s *PostgresUserStore) UpdateProfile(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during profile update",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		UPDATE users
		SET topic = $1, gender = $2, age = $3, education = $4, job = $5,
		    time_slot_1 = $6, time_slot_2 = $7, time_slot_3 = $8,
		    updated_at = $9
		WHERE id = $10
	`
	result, err := s.db.ExecContext(ctx, query,
		nullString(user.Topic),
		nullString(user.Gender),
		nullInt(user.Age),
		nullString(user.Education),
		nullString(user.Job),
		slotAt(user.TimeSlots, 0),
		slotAt(user.TimeSlots, 1),
		slotAt(user.TimeSlots, 2),
		time.Now().UTC(),
		user.ID,
	)
	if err != nil {
		log.Error("failed to update user profile",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// UpdateScoring implements store.UserStore.UpdateScoring
func (s *PostgresUserStore) UpdateScoring(ctx context.Context, id uuid.UUID, openness float64, extremist bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET openness_score = $1, is_extremist = $2, scored = TRUE, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, openness, extremist, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update user scoring",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// SetPartner implements store.UserStore.SetPartner
func (s *PostgresUserStore) SetPartner(ctx context.Context, id, partnerID, meetingID uuid.UUID, slot, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET has_partner = TRUE, partner_id = $1, meeting_id = $2,
		    matched_slot = $3, match_created_at = $4, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, partnerID, meetingID, slot.UTC(), at.UTC(), id)
	if err != nil {
		log.Error("failed to set partner",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()),
			slog.String("partner_id", partnerID.String()))
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// ClearPartner implements store.UserStore.ClearPartner
func (s *PostgresUserStore) ClearPartner(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET has_partner = FALSE, partner_id = NULL, meeting_id = NULL,
		    matched_slot = NULL, match_created_at = NULL, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to clear partner",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// ListCandidateProfiles implements store.UserStore.ListCandidateProfiles
// It assembles matching-ready snapshots in one query: user pool filters in
// SQL, matching-dimension answers joined in, grouped into profiles here.
func (s *PostgresUserStore) ListCandidateProfiles(ctx context.Context, topic string) ([]matching.Profile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT u.id, u.topic, u.is_extremist, u.has_partner, u.created_at,
		       u.time_slot_1, u.time_slot_2, u.time_slot_3,
		       s.dimension, s.value
		FROM users u
		JOIN opinion_scores s ON s.user_id = u.id
		JOIN opinion_dimensions d ON d.name = s.dimension
		WHERE d.category = 'matching' AND d.active
		  AND u.topic = $1
		  AND u.has_partner = FALSE
		  AND u.is_extremist = FALSE
		  AND u.scored = TRUE
		  AND u.time_slot_1 IS NOT NULL
		ORDER BY u.created_at ASC, u.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, topic)
	if err != nil {
		log.Error("failed to query candidate profiles",
			slog.String("error", err.Error()),
			slog.String("topic", topic))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var (
		profiles []matching.Profile
		index    = make(map[uuid.UUID]int)
	)

	for rows.Next() {
		var (
			id           uuid.UUID
			rowTopic     string
			extremist    bool
			hasPartner   bool
			registeredAt time.Time
			slot1        sql.NullTime
			slot2        sql.NullTime
			slot3        sql.NullTime
			dimension    string
			value        float64
		)
		if err := rows.Scan(&id, &rowTopic, &extremist, &hasPartner, &registeredAt,
			&slot1, &slot2, &slot3, &dimension, &value); err != nil {
			log.Error("failed to scan candidate profile row",
				slog.String("error", err.Error()),
				slog.String("topic", topic))
			return nil, MapError(err)
		}

		i, ok := index[id]
		if !ok {
			profiles = append(profiles, matching.Profile{
				UserID:       id,
				Topic:        rowTopic,
				Extremist:    extremist,
				HasPartner:   hasPartner,
				RegisteredAt: registeredAt,
				Slots:        collectSlots(slot1, slot2, slot3),
				Scores:       make(map[string]float64),
			})
			i = len(profiles) - 1
			index[id] = i
		}
		profiles[i].Scores[dimension] = value
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating candidate profile rows",
			slog.String("error", err.Error()),
			slog.String("topic", topic))
		return nil, MapError(err)
	}

	return profiles, nil
}

// ListOpenTopics implements store.UserStore.ListOpenTopics
func (s *PostgresUserStore) ListOpenTopics(ctx context.Context) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT topic
		FROM users
		WHERE topic IS NOT NULL
		  AND has_partner = FALSE
		  AND is_extremist = FALSE
		  AND scored = TRUE
		  AND time_slot_1 IS NOT NULL
		ORDER BY topic
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query open topics",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, MapError(err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return topics, nil
}

// ListExpirable implements store.UserStore.ListExpirable
func (s *PostgresUserStore) ListExpirable(ctx context.Context, slotBefore, createdBefore time.Time) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE has_partner = TRUE
		  AND (matched_slot < $1 OR match_created_at < $2)
		ORDER BY match_created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, slotBefore.UTC(), createdBefore.UTC())
	if err != nil {
		log.Error("failed to query expirable matches",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, MapError(err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanUser.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one full user row in userColumns order.
func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		email     string
		topic     sql.NullString
		gender    sql.NullString
		age       sql.NullInt64
		education sql.NullString
		job       sql.NullString
		slot1     sql.NullTime
		slot2     sql.NullTime
		slot3     sql.NullTime
		openness  sql.NullFloat64
		partner   uuid.NullUUID
		meeting   uuid.NullUUID
		matched   sql.NullTime
		matchedAt sql.NullTime
	)

	err := row.Scan(
		&user.ID, &email, &topic, &gender, &age, &education, &job,
		&slot1, &slot2, &slot3,
		&openness, &user.IsExtremist, &user.Scored,
		&user.HasPartner, &partner, &meeting, &matched, &matchedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Email = email
	user.Topic = topic.String
	user.Gender = gender.String
	user.Age = int(age.Int64)
	user.Education = education.String
	user.Job = job.String
	user.TimeSlots = collectSlots(slot1, slot2, slot3)
	user.OpennessScore = openness.Float64

	if partner.Valid {
		p := partner.UUID
		user.PartnerID = &p
	}
	if meeting.Valid {
		m := meeting.UUID
		user.MeetingID = &m
	}
	if matched.Valid {
		t := matched.Time
		user.MatchedSlot = &t
	}
	if matchedAt.Valid {
		t := matchedAt.Time
		user.MatchCreatedAt = &t
	}

	return &user, nil
}

// collectSlots folds the three nullable slot columns into a slice.
func collectSlots(slots ...sql.NullTime) []time.Time {
	var out []time.Time
	for _, s := range slots {
		if s.Valid {
			out = append(out, s.Time.UTC())
		}
	}
	return out
}

// slotAt returns the i-th declared slot as a nullable value for binding.
func slotAt(slots []time.Time, i int) sql.NullTime {
	if i >= len(slots) {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: slots[i].UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}

// requireRowAffected converts a zero-rows UPDATE into notFound.
func requireRowAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
