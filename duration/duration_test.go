package duration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/duration"
)

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"00:01", 60},
		{"08:00", 28800},
		{"09:30", 34200},
		{"23:59", 86340},
		{"120:30", 433800},
		{"1:90", 9000}, // minutes over 59 are legal on input
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := duration.Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "8", "08:00:00", "8h30", "ab:cd", "-1:00", "08:-5", ":", " 1 : 30 ", "08: 00", " 08:00"} {
		t.Run(in, func(t *testing.T) {
			_, err := duration.Parse(in)
			assert.ErrorIs(t, err, duration.ErrInvalidFormat)

			var ferr *duration.InvalidFormatError
			assert.ErrorAs(t, err, &ferr)
			assert.Equal(t, in, ferr.Input)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", duration.Format(0))
	assert.Equal(t, "00:01", duration.Format(60))
	assert.Equal(t, "08:00", duration.Format(28800))
	assert.Equal(t, "09:30", duration.Format(34200))
	assert.Equal(t, "120:30", duration.Format(433800))
	assert.Equal(t, "00:00", duration.Format(-500), "negative clamps to zero")
}

func TestFormat_TruncatesSubMinute(t *testing.T) {
	assert.Equal(t, "00:01", duration.Format(61))
	assert.Equal(t, "00:01", duration.Format(119))
}

// Round-trip law: Parse(Format(s)) == s for every whole-minute value, and
// truncates to the minute otherwise.
func TestRoundTrip(t *testing.T) {
	for s := 0; s < 10_000_000; s += 60 {
		got, err := duration.Parse(duration.Format(s))
		require.NoError(t, err)
		require.Equal(t, s, got, "round trip failed for %d", s)
	}
	for _, s := range []int{1, 59, 61, 3601, 86399, 9_999_999} {
		got, err := duration.Parse(duration.Format(s))
		require.NoError(t, err)
		require.Equal(t, s-s%60, got)
	}
}
