package timegrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"8:30", 510, false},
		{"17:00", 1020, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"9:5", 0, true},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestFromMinutes(t *testing.T) {
	assert.Equal(t, "00:00", FromMinutes(0))
	assert.Equal(t, "08:05", FromMinutes(485))
	assert.Equal(t, "23:59", FromMinutes(1439))
	// wraps past midnight
	assert.Equal(t, "01:00", FromMinutes(25*60))
	assert.Equal(t, "23:00", FromMinutes(-60))
}

func TestAddHours(t *testing.T) {
	assert.Equal(t, "10:30", AddHours("09:00", 1.5))
	assert.Equal(t, "09:30", AddHours("09:00", 0.5))
	assert.Equal(t, "08:00", AddHours("20:00", 12))
	// malformed input is passed through untouched
	assert.Equal(t, "bogus", AddHours("bogus", 1))
}

func TestOverlaps(t *testing.T) {
	// identical
	assert.True(t, Overlaps(600, 720, 600, 720))
	// contained
	assert.True(t, Overlaps(600, 720, 630, 660))
	// encompassing
	assert.True(t, Overlaps(630, 660, 600, 720))
	// partial left / right
	assert.True(t, Overlaps(540, 630, 600, 720))
	assert.True(t, Overlaps(660, 780, 600, 720))
	// adjacent half-open intervals do not overlap
	assert.False(t, Overlaps(480, 600, 600, 720))
	assert.False(t, Overlaps(720, 780, 600, 720))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("06:00"))
	assert.True(t, Valid("6:00"))
	assert.False(t, Valid("25:00"))
	assert.False(t, Valid("10:5"))
}
