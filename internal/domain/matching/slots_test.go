package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntersectSlots(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 12, 2, 17, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		a    []time.Time
		b    []time.Time
		want []time.Time
	}{
		{
			name: "single common slot",
			a:    []time.Time{t1, t2},
			b:    []time.Time{t2, t3},
			want: []time.Time{t2},
		},
		{
			name: "no overlap",
			a:    []time.Time{t1},
			b:    []time.Time{t3},
			want: nil,
		},
		{
			name: "full overlap sorted ascending",
			a:    []time.Time{t3, t1, t2},
			b:    []time.Time{t2, t3, t1},
			want: []time.Time{t1, t2, t3},
		},
		{
			name: "zero values ignored",
			a:    []time.Time{t1, {}},
			b:    []time.Time{{}, t1},
			want: []time.Time{t1},
		},
		{
			name: "empty side yields empty intersection",
			a:    nil,
			b:    []time.Time{t1, t2},
			want: nil,
		},
		{
			name: "duplicates collapse",
			a:    []time.Time{t1, t1},
			b:    []time.Time{t1, t1},
			want: []time.Time{t1},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IntersectSlots(tc.a, tc.b))
		})
	}
}

func TestIntersectSlotsNormalizesZones(t *testing.T) {
	t.Parallel()

	utc := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	berlin := time.FixedZone("CET", 3600)
	sameInstant := time.Date(2025, 12, 1, 13, 0, 0, 0, berlin)

	got := IntersectSlots([]time.Time{utc}, []time.Time{sameInstant})
	assert.Len(t, got, 1)
	assert.True(t, got[0].Equal(utc))
}
