// Package timegrid provides minutes-since-midnight arithmetic over "HH:MM"
// wire strings. All slot and conflict computations convert at the boundary
// and operate on plain ints so that date-library drift never leaks into
// scheduling decisions.
package timegrid

import (
	"fmt"
	"regexp"
)

// MinutesPerDay is the wrap-around modulus for time-of-day arithmetic.
const MinutesPerDay = 24 * 60

var timePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Valid reports whether raw is a well-formed "HH:MM" time-of-day.
func Valid(raw string) bool {
	return timePattern.MatchString(raw)
}

// ToMinutes converts "HH:MM" into minutes since midnight.
func ToMinutes(raw string) (int, error) {
	if !timePattern.MatchString(raw) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return h*60 + m, nil
}

// FromMinutes renders minutes since midnight as zero-padded "HH:MM".
// Values outside [0, MinutesPerDay) wrap around midnight.
func FromMinutes(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddHours shifts an "HH:MM" time by a fractional hour amount, wrapping at
// midnight. Malformed input yields the input unchanged.
func AddHours(raw string, hours float64) string {
	start, err := ToMinutes(raw)
	if err != nil {
		return raw
	}
	return FromMinutes(start + int(hours*60))
}

// Overlaps reports whether the half-open minute intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
