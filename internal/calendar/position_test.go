package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	hours := Hours{Earliest: 8, Latest: 18}
	day := func(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  Box
	}{
		{"one hour after opening", day(9, 0), day(10, 0), Box{Top: 10, Height: 10}},
		{"fifteen minutes", day(8, 0), day(8, 15), Box{Top: 0, Height: 2.5}},
		{"ten minutes hits floor", day(12, 0), day(12, 10), Box{Top: 40, Height: 2}},
		{"before opening clamps top", day(7, 0), day(9, 0), Box{Top: 0, Height: 20}},
		{"after closing", day(19, 0), day(20, 0), Box{Top: 100, Height: 2}},
		{"near closing floor wins", day(17, 55), day(18, 25), Box{Top: 99.17, Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Position(tt.start, tt.end, hours, time.UTC))
		})
	}
}

func TestPositionUsesGivenLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 08:00 UTC in March is 09:00 in Berlin.
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	got := Position(start, start.Add(time.Hour), Hours{Earliest: 8, Latest: 18}, berlin)
	assert.Equal(t, Box{Top: 10, Height: 10}, got)
}

func TestPositionEmptyRange(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, Box{Top: 0, Height: MinHeightPercent}, Position(start, start.Add(time.Hour), Hours{Earliest: 9, Latest: 9}, nil))
	assert.False(t, Hours{Earliest: 9, Latest: 9}.Valid())
	assert.True(t, Hours{Earliest: 0, Latest: 24}.Valid())
}
