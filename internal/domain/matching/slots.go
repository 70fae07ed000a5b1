package matching

import (
	"sort"
	"time"
)

// IntersectSlots returns the timestamps present in both availability sets,
// sorted ascending. Zero-valued entries are ignored; an empty result means
// the two users are not matchable regardless of their compatibility score.
func IntersectSlots(a, b []time.Time) []time.Time {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	inA := make(map[time.Time]struct{}, len(a))
	for _, s := range a {
		if s.IsZero() {
			continue
		}
		inA[s.UTC()] = struct{}{}
	}

	var common []time.Time
	seen := make(map[time.Time]struct{}, len(b))
	for _, s := range b {
		if s.IsZero() {
			continue
		}
		key := s.UTC()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := inA[key]; ok {
			common = append(common, key)
		}
	}

	sort.Slice(common, func(i, j int) bool {
		return common[i].Before(common[j])
	})

	return common
}
