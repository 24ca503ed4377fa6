package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengkelin/booking-api/internal/models"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func appt(start, end string, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		ScheduledDate:      monday,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
		Status:             status,
	}
}

func TestComputeSlotsClosedDay(t *testing.T) {
	slots := ComputeSlots(models.DayHours{Closed: true}, monday, nil, 1)
	require.Len(t, slots, 1)
	assert.False(t, slots[0].IsAvailable)
	assert.Equal(t, "00:00", slots[0].StartTime)
	assert.Equal(t, "23:59", slots[0].EndTime)
	assert.Equal(t, ReasonClosed, slots[0].Reason)
}

func TestComputeSlotsOpenDayTilesWithoutGaps(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "17:00"}
	slots := ComputeSlots(day, monday, nil, 1)
	require.Len(t, slots, 9)

	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[len(slots)-1].EndTime)
	for i, slot := range slots {
		assert.True(t, slot.IsAvailable, "slot %d", i)
		assert.Equal(t, "2026-03-02", slot.Date)
		if i > 0 {
			assert.Equal(t, slots[i-1].EndTime, slot.StartTime, "slot %d must abut previous", i)
		}
	}
}

func TestComputeSlotsTrailingPartialSlotShrinks(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "12:30"}
	slots := ComputeSlots(day, monday, nil, 1)
	require.Len(t, slots, 5)
	last := slots[len(slots)-1]
	assert.Equal(t, "12:00", last.StartTime)
	assert.Equal(t, "12:30", last.EndTime)
}

func TestComputeSlotsMarksOverlapsBooked(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "17:00"}

	cases := []struct {
		name   string
		appt   models.Appointment
		booked []string // start times expected unavailable
	}{
		{"identical to slot", appt("10:00", "11:00", models.StatusConfirmed), []string{"10:00"}},
		{"contained in slot", appt("10:15", "10:45", models.StatusScheduled), []string{"10:00"}},
		{"spanning two slots", appt("10:30", "11:30", models.StatusInProgress), []string{"10:00", "11:00"}},
		{"encompassing several slots", appt("09:00", "12:00", models.StatusConfirmed), []string{"09:00", "10:00", "11:00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots := ComputeSlots(day, monday, []models.Appointment{tc.appt}, 1)
			require.Len(t, slots, 9)
			bookedSet := map[string]bool{}
			for _, s := range tc.booked {
				bookedSet[s] = true
			}
			for _, slot := range slots {
				if bookedSet[slot.StartTime] {
					assert.False(t, slot.IsAvailable, "slot %s should be booked", slot.StartTime)
					assert.Equal(t, ReasonBooked, slot.Reason)
				} else {
					assert.True(t, slot.IsAvailable, "slot %s should stay available", slot.StartTime)
				}
			}
		})
	}
}

func TestComputeSlotsAdjacentAppointmentsDoNotBlock(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "17:00"}
	// booking ends exactly where the 12:00 slot starts
	slots := ComputeSlots(day, monday, []models.Appointment{appt("10:00", "12:00", models.StatusConfirmed)}, 1)
	for _, slot := range slots {
		switch slot.StartTime {
		case "10:00", "11:00":
			assert.False(t, slot.IsAvailable, slot.StartTime)
		default:
			assert.True(t, slot.IsAvailable, slot.StartTime)
		}
	}
}

func TestComputeSlotsIgnoresNonOccupyingStatuses(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "17:00"}
	existing := []models.Appointment{
		appt("10:00", "11:00", models.StatusCancelled),
		appt("11:00", "12:00", models.StatusCompleted),
		appt("13:00", "14:00", models.StatusRequested),
	}
	slots := ComputeSlots(day, monday, existing, 1)
	for _, slot := range slots {
		assert.True(t, slot.IsAvailable, slot.StartTime)
	}
}

func TestComputeSlotsDeterministic(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "17:00"}
	existing := []models.Appointment{appt("10:00", "12:00", models.StatusScheduled)}
	first := ComputeSlots(day, monday, existing, 1)
	second := ComputeSlots(day, monday, existing, 1)
	assert.Equal(t, first, second)
}

func TestComputeSlotsHalfHourGranularity(t *testing.T) {
	day := models.DayHours{Open: "08:00", Close: "10:00"}
	slots := ComputeSlots(day, monday, nil, 0.5)
	require.Len(t, slots, 4)
	assert.Equal(t, "08:30", slots[0].EndTime)
}

func TestComputeSlotsMalformedHours(t *testing.T) {
	assert.Nil(t, ComputeSlots(models.DayHours{Open: "late", Close: "17:00"}, monday, nil, 1))
	assert.Nil(t, ComputeSlots(models.DayHours{Open: "17:00", Close: "08:00"}, monday, nil, 1))
}
