package service

import (
	"fmt"
	"time"

	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/pkg/timegrid"
)

// ValidationResult reports every violated rule at once so callers never need
// multiple round trips to correct a form.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// BookingRequest is the slot proposal checked by the validator.
type BookingRequest struct {
	Date      time.Time
	StartTime string
	Duration  float64
}

// BookingRules bounds what a booking request may ask for.
type BookingRules struct {
	MinDurationHours  float64
	MaxDurationHours  float64
	MaxAdvanceDays    int
	LeadTimeHours     int
	EarliestStartHour int
	LatestStartHour   int
}

// DefaultBookingRules mirror the marketplace's booking policy.
func DefaultBookingRules() BookingRules {
	return BookingRules{
		MinDurationHours:  0.5,
		MaxDurationHours:  12,
		MaxAdvanceDays:    90,
		LeadTimeHours:     24,
		EarliestStartHour: 6,
		LatestStartHour:   22,
	}
}

// BookingValidator applies stateless rule checks to booking and reschedule
// requests. It performs no I/O; the clock is injected for testability.
type BookingValidator struct {
	rules BookingRules
	now   func() time.Time
}

// NewBookingValidator constructs a validator. A nil clock falls back to
// time.Now.
func NewBookingValidator(rules BookingRules, now func() time.Time) *BookingValidator {
	if now == nil {
		now = time.Now
	}
	return &BookingValidator{rules: rules, now: now}
}

// ValidateBookingRequest runs every applicable check and collects all
// failures rather than stopping at the first.
func (v *BookingValidator) ValidateBookingRequest(req BookingRequest) ValidationResult {
	var errs []string
	now := v.now()

	timeOK := timegrid.Valid(req.StartTime)
	if !timeOK {
		errs = append(errs, fmt.Sprintf("start time %q is not a valid HH:MM time", req.StartTime))
	}

	if timeOK {
		startMinutes, _ := timegrid.ToMinutes(req.StartTime)
		scheduled := atMinutes(req.Date, startMinutes)
		if !scheduled.After(now) {
			errs = append(errs, "appointment must be scheduled in the future")
		}
		hour := startMinutes / 60
		if hour < v.rules.EarliestStartHour || hour > v.rules.LatestStartHour {
			errs = append(errs, fmt.Sprintf("start time must be between %02d:00 and %02d:00",
				v.rules.EarliestStartHour, v.rules.LatestStartHour))
		}
	} else if !dayStart(req.Date).After(dayStart(now)) {
		// Without a parseable start time only the date can be checked, and
		// today cannot be proven future.
		errs = append(errs, "appointment must be scheduled in the future")
	}

	maxAdvance := dayStart(now).AddDate(0, 0, v.rules.MaxAdvanceDays)
	if dayStart(req.Date).After(maxAdvance) {
		errs = append(errs, fmt.Sprintf("appointment cannot be more than %d days in advance", v.rules.MaxAdvanceDays))
	}

	if req.Duration < v.rules.MinDurationHours || req.Duration > v.rules.MaxDurationHours {
		errs = append(errs, fmt.Sprintf("duration must be between %.1f and %.0f hours",
			v.rules.MinDurationHours, v.rules.MaxDurationHours))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateRescheduleRequest checks that the appointment may still be moved
// and that the proposed slot passes the full booking validation. The 24-hour
// lead time is measured against the CURRENTLY scheduled start, not the new
// one: an appointment starting within the lead window cannot be moved at
// all, however far out the new slot is.
func (v *BookingValidator) ValidateRescheduleRequest(appt *models.Appointment, newDate time.Time, newStartTime string) ValidationResult {
	var errs []string

	switch appt.Status {
	case models.StatusRequested, models.StatusConfirmed, models.StatusScheduled:
	default:
		errs = append(errs, fmt.Sprintf("appointment in status %q cannot be rescheduled", appt.Status))
	}

	if startMinutes, err := timegrid.ToMinutes(appt.ScheduledStartTime); err == nil {
		currentStart := atMinutes(appt.ScheduledDate, startMinutes)
		lead := time.Duration(v.rules.LeadTimeHours) * time.Hour
		if currentStart.Sub(v.now()) < lead {
			errs = append(errs, fmt.Sprintf("appointments starting within %d hours cannot be rescheduled", v.rules.LeadTimeHours))
		}
	}

	slotCheck := v.ValidateBookingRequest(BookingRequest{
		Date:      newDate,
		StartTime: newStartTime,
		Duration:  appt.EstimatedDuration,
	})
	errs = append(errs, slotCheck.Errors...)

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// atMinutes combines a calendar day with a minutes-since-midnight offset.
func atMinutes(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minutes, 0, 0, date.Location())
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
