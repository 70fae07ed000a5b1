package matching

import (
	"errors"
	"math"
	"sort"
)

// Common errors
var (
	ErrNoWeights = errors.New("scorer requires at least one weighted dimension")
)

// Scorer computes pairwise compatibility over a fixed set of weighted
// opinion dimensions. Lower weighted opinion distance means higher
// compatibility; the score is mapped into (0, 1] so that identical answers
// score exactly 1.
type Scorer struct {
	weights map[string]float64

	// Dimension names in sorted order. Summing in a fixed order keeps the
	// score reproducible: float addition is not associative, so ranging
	// over the map directly would let Go's randomized iteration order
	// perturb the last bits of the result.
	dims []string
}

// NewScorer creates a Scorer from the catalog's matching-dimension weights.
// The weight map is copied; the catalog is immutable at runtime and the
// scorer must not observe later mutation of the caller's map.
func NewScorer(weights map[string]float64) (*Scorer, error) {
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}

	copied := make(map[string]float64, len(weights))
	dims := make([]string, 0, len(weights))
	for dim, w := range weights {
		copied[dim] = w
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	return &Scorer{weights: copied, dims: dims}, nil
}

// Score returns the compatibility score between two profiles and whether
// the pair is eligible at all. Eligibility requires that neither side is an
// extremist and that both have answered every weighted dimension; when it
// fails, the returned score is 0 and the caller must not use it.
//
// The score is 1 / (1 + Σ w_d·|a_d − b_d|): strictly decreasing in the
// weighted distance, 1 for identical answers, and approaching 0 as opinions
// diverge. The function is pure and symmetric in its arguments, and repeated
// calls on the same pair return bit-identical values.
func (s *Scorer) Score(a, b Profile) (float64, bool) {
	if a.Extremist || b.Extremist {
		return 0, false
	}

	if !a.HasAllScores(s.weights) || !b.HasAllScores(s.weights) {
		return 0, false
	}

	var distance float64
	for _, dim := range s.dims {
		distance += s.weights[dim] * math.Abs(a.Scores[dim]-b.Scores[dim])
	}

	return 1 / (1 + distance), true
}

// Dimensions returns the number of weighted dimensions the scorer covers.
func (s *Scorer) Dimensions() int {
	return len(s.weights)
}
