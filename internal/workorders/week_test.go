package workorders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekBounds(t *testing.T) {
	w, err := ParseWeek("2026-W01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), w.Start())
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), w.End())
	assert.Equal(t, "2026-W01", w.String())

	w, err = ParseWeek("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC), w.Start())
}

func TestParseWeekRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "2026-07", "2026-W7", "2026-W00", "2026-W54", "2025-W53"} {
		_, err := ParseWeek(in)
		assert.Error(t, err, in)
	}
}

func TestWeekOfRoundTrips(t *testing.T) {
	day := time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)
	w := WeekOf(day)
	assert.Equal(t, "2026-W42", w.String())
	assert.False(t, day.Before(w.Start()))
	assert.True(t, day.Before(w.End()))
}
