package domain

import "fmt"

// DimensionCategory distinguishes the two halves of the questionnaire.
type DimensionCategory string

const (
	// CategoryAttitude covers the five general-attitude questions. Their
	// mean forms the openness score used by the extremist filter; they do
	// not contribute to compatibility scoring.
	CategoryAttitude DimensionCategory = "attitude"

	// CategoryMatching covers the ten topic-specific questions that feed
	// the weighted compatibility distance.
	CategoryMatching DimensionCategory = "matching"
)

// IsValid reports whether the category is one of the known values.
func (c DimensionCategory) IsValid() bool {
	return c == CategoryAttitude || c == CategoryMatching
}

// Catalog sizes. The catalog is seeded once by migration and is immutable
// at runtime.
const (
	AttitudeDimensionCount = 5
	MatchingDimensionCount = 10
)

// Bounds of the 5-point Likert encoding used for every answer.
const (
	ScoreMin = -2.0
	ScoreMax = 2.0
)

// OpinionDimension is one entry of the fixed 15-item question catalog.
// Name is the unique key used by score submissions; Weight scales the
// dimension's contribution to the compatibility distance.
type OpinionDimension struct {
	Name        string
	DisplayName string
	Category    DimensionCategory
	Ordinal     int
	Description string
	Weight      float64
	Active      bool
}

// Validate checks catalog-entry consistency: known category, ordinal within
// the category's range, and a positive weight.
func (d *OpinionDimension) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDimension)
	}

	if !d.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidDimension, d.Category)
	}

	max := AttitudeDimensionCount
	if d.Category == CategoryMatching {
		max = MatchingDimensionCount
	}
	if d.Ordinal < 1 || d.Ordinal > max {
		return fmt.Errorf("%w: ordinal %d out of range for category %q",
			ErrInvalidDimension, d.Ordinal, d.Category)
	}

	if d.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidDimension)
	}

	return nil
}

// ValidScore reports whether v lies in the closed Likert range [-2, +2].
func ValidScore(v float64) bool {
	return v >= ScoreMin && v <= ScoreMax
}
