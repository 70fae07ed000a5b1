// Package matching implements the opinion-compatibility engine: profile
// snapshots, the weighted compatibility scorer, slot intersection, and the
// best-match search. Everything in this package is pure computation over
// in-memory values; persistence and pairing commits live in the service
// layer.
package matching

import (
	"time"

	"github.com/google/uuid"
)

// Profile is an owned value snapshot of one participant, carrying exactly
// what scoring and candidate selection need. Snapshots are assembled by the
// store; the engine never reaches back into the database.
type Profile struct {
	UserID uuid.UUID
	Topic  string

	// Extremist marks participants excluded from matching by the openness
	// cutoff. Pool queries filter them out already, but the engine treats
	// the flag as authoritative and re-checks.
	Extremist bool

	// HasPartner marks participants already committed to a pair.
	HasPartner bool

	// RegisteredAt orders candidates for starvation-free tie-breaking:
	// the oldest-waiting candidate wins an exact score tie.
	RegisteredAt time.Time

	// Slots holds up to three declared meeting times.
	Slots []time.Time

	// Scores maps matching-dimension keys to answers in [-2, +2]. Only
	// matching-category dimensions appear here; attitude answers are
	// folded into Extremist upstream.
	Scores map[string]float64
}

// HasAllScores reports whether the profile has an answer for every weighted
// dimension. Incomplete profiles are ineligible for scoring.
func (p Profile) HasAllScores(weights map[string]float64) bool {
	for dim := range weights {
		if _, ok := p.Scores[dim]; !ok {
			return false
		}
	}
	return true
}
