package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		spec string
		span time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1h", time.Hour},
	}
	for _, tc := range cases {
		w := ParseWindow(tc.spec, now)
		assert.Equal(t, now, w.To, "spec %q", tc.spec)
		assert.Equal(t, now.Add(-tc.span), w.From, "spec %q", tc.spec)
	}
}

func TestParseWindow_InvalidFallsBackToSevenDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, spec := range []string{"", "banana", "7", "d7", "-3d", "3m", "3dd"} {
		w := ParseWindow(spec, now)
		assert.Equal(t, now.Add(-DefaultWindowSpan), w.From, "spec %q", spec)
		assert.Equal(t, now, w.To, "spec %q", spec)
	}
}

func TestTimeWindowContains(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
	w := TimeWindow{From: from, To: to}

	assert.True(t, w.Contains(from))
	assert.True(t, w.Contains(to))
	assert.True(t, w.Contains(from.Add(time.Hour)))
	assert.False(t, w.Contains(from.Add(-time.Second)))
	assert.False(t, w.Contains(to.Add(time.Second)))
}
