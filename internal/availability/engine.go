// Package availability computes per-day slot grids from operating hours and
// existing bookings. Everything here is pure: no storage, no clock, fully
// deterministic for a given input.
package availability

import (
	"time"

	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/pkg/timegrid"
)

const (
	// ReasonClosed marks the single slot emitted for a closed day.
	ReasonClosed = "Workshop closed"
	// ReasonBooked marks slots occupied by an existing appointment.
	ReasonBooked = "Booked"

	// DefaultSlotHours is the grid granularity applied when callers pass a
	// non-positive slot duration.
	DefaultSlotHours = 1.0

	dateLayout = "2006-01-02"
)

// ComputeSlots partitions the day's operating window into contiguous
// slotHours-wide slots and tags each one available, booked, or closed.
//
// The window is tiled from open to close; when the window does not divide
// evenly, the trailing slot is shrunk to end exactly at closing time rather
// than dropped. A slot is booked when it overlaps any occupying appointment
// interval under the half-open [start, end) test.
func ComputeSlots(day models.DayHours, date time.Time, existing []models.Appointment, slotHours float64) []models.AvailabilitySlot {
	dateStr := date.Format(dateLayout)

	if day.Closed {
		return []models.AvailabilitySlot{{
			Date:        dateStr,
			StartTime:   "00:00",
			EndTime:     "23:59",
			IsAvailable: false,
			Reason:      ReasonClosed,
		}}
	}

	open, err := timegrid.ToMinutes(day.Open)
	if err != nil {
		return nil
	}
	closing, err := timegrid.ToMinutes(day.Close)
	if err != nil || closing <= open {
		return nil
	}

	if slotHours <= 0 {
		slotHours = DefaultSlotHours
	}
	step := int(slotHours * 60)

	busy := occupiedIntervals(existing)

	var slots []models.AvailabilitySlot
	for start := open; start < closing; start += step {
		end := start + step
		if end > closing {
			end = closing
		}

		slot := models.AvailabilitySlot{
			Date:        dateStr,
			StartTime:   timegrid.FromMinutes(start),
			EndTime:     timegrid.FromMinutes(end),
			IsAvailable: true,
		}
		for _, iv := range busy {
			if timegrid.Overlaps(start, end, iv[0], iv[1]) {
				slot.IsAvailable = false
				slot.Reason = ReasonBooked
				break
			}
		}
		slots = append(slots, slot)
	}

	return slots
}

// occupiedIntervals extracts the minute intervals of appointments whose
// status reserves workshop time. Appointments with malformed times are
// skipped rather than poisoning the whole grid.
func occupiedIntervals(existing []models.Appointment) [][2]int {
	var busy [][2]int
	for i := range existing {
		appt := &existing[i]
		if !appt.Occupying() {
			continue
		}
		start, err := timegrid.ToMinutes(appt.ScheduledStartTime)
		if err != nil {
			continue
		}
		end, err := timegrid.ToMinutes(appt.ScheduledEndTime)
		if err != nil || end <= start {
			continue
		}
		busy = append(busy, [2]int{start, end})
	}
	return busy
}
