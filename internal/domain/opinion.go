package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OpinionScore is one participant's answer to one catalog dimension.
// There is exactly one row per (user, dimension) pair; re-submissions
// update the value in place rather than creating duplicates.
type OpinionScore struct {
	UserID    uuid.UUID
	Dimension string
	Value     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOpinionScore creates a validated score for the given user and
// dimension key. The dimension key is checked against the catalog by the
// service layer; here we only validate what the entity can know on its own.
func NewOpinionScore(userID uuid.UUID, dimension string, value float64) (*OpinionScore, error) {
	now := time.Now().UTC()
	score := &OpinionScore{
		UserID:    userID,
		Dimension: dimension,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := score.Validate(); err != nil {
		return nil, err
	}

	return score, nil
}

// Validate checks that the score refers to a user and dimension and that
// its value lies within the Likert range.
func (s *OpinionScore) Validate() error {
	if s.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrValidation)
	}

	if s.Dimension == "" {
		return fmt.Errorf("%w: dimension key is required", ErrValidation)
	}

	if !ValidScore(s.Value) {
		return fmt.Errorf("%w: %v is outside [%v, %v]",
			ErrScoreOutOfRange, s.Value, ScoreMin, ScoreMax)
	}

	return nil
}

// Openness computes the openness score: the arithmetic mean of the five
// attitude answers. The second return value is false until all five
// attitude dimensions have been answered.
func Openness(attitudeScores []float64) (float64, bool) {
	if len(attitudeScores) != AttitudeDimensionCount {
		return 0, false
	}

	var sum float64
	for _, v := range attitudeScores {
		sum += v
	}
	return sum / AttitudeDimensionCount, true
}

// IsExtremist applies the hard eligibility cutoff: any openness score below
// neutral permanently excludes the participant from matching.
func IsExtremist(openness float64) bool {
	return openness < 0
}
