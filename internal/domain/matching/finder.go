package matching

import (
	"strings"
	"time"
)

// Result describes the best partner found for a seeker: who, how
// compatible, and when they can meet. CommonSlot is the earliest shared
// slot; SharedSlots carries the full intersection for display.
type Result struct {
	Partner     Profile
	Score       float64
	CommonSlot  time.Time
	SharedSlots []time.Time
}

// FindBestMatch scans the candidate pool for the seeker's best compatible
// partner. A candidate qualifies only if it is a different user on the same
// topic, not an extremist, not already partnered, eligible under the
// scorer, and shares at least one time slot with the seeker. Among
// qualifying candidates the highest score wins; there is no absolute score
// floor, so the worst compatible candidate is still returned when it is the
// only one.
//
// Ties on score go to the candidate that registered earliest, so nobody
// waits forever behind equally compatible newcomers. A residual tie on
// registration time is broken by user ID ordering to keep the search
// deterministic.
//
// The function has no side effects; committing the pairing is the caller's
// responsibility. It returns false when no candidate qualifies, leaving the
// seeker in the pool for a later pass.
func FindBestMatch(seeker Profile, pool []Profile, scorer *Scorer) (Result, bool) {
	if seeker.Extremist || seeker.HasPartner {
		return Result{}, false
	}

	var (
		best  Result
		found bool
	)

	for _, candidate := range pool {
		if candidate.UserID == seeker.UserID {
			continue
		}
		if candidate.Topic != seeker.Topic {
			continue
		}
		if candidate.Extremist || candidate.HasPartner {
			continue
		}

		score, eligible := scorer.Score(seeker, candidate)
		if !eligible {
			continue
		}

		shared := IntersectSlots(seeker.Slots, candidate.Slots)
		if len(shared) == 0 {
			continue
		}

		result := Result{
			Partner:     candidate,
			Score:       score,
			CommonSlot:  shared[0],
			SharedSlots: shared,
		}

		if !found || better(result, best) {
			best = result
			found = true
		}
	}

	return best, found
}

// better reports whether a should be preferred over b: higher score first,
// then earlier registration, then user ID order.
func better(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Partner.RegisteredAt.Equal(b.Partner.RegisteredAt) {
		return a.Partner.RegisteredAt.Before(b.Partner.RegisteredAt)
	}
	return strings.Compare(a.Partner.UserID.String(), b.Partner.UserID.String()) < 0
}
