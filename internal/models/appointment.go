package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AppointmentStatus enumerates the appointment lifecycle states.
type AppointmentStatus string

const (
	StatusRequested   AppointmentStatus = "requested"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusInProgress  AppointmentStatus = "in_progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// PaymentStatus enumerates payment settlement states.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// OccupyingStatuses are the states that reserve a workshop's time. Two
// appointments in any of these states may not overlap on the same day.
var OccupyingStatuses = []AppointmentStatus{StatusConfirmed, StatusScheduled, StatusInProgress}

// statusTransitions is the allowed transition table. Terminal states have no
// outbound transitions.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusRequested:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusScheduled, StatusCancelled},
	StatusScheduled:   {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress:  {StatusCompleted, StatusCancelled},
	StatusRescheduled: {StatusConfirmed, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
}

// CanTransition reports whether the from -> to status change is legal.
func CanTransition(from, to AppointmentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal targets from the given status.
func AllowedTransitions(from AppointmentStatus) []AppointmentStatus {
	return statusTransitions[from]
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s AppointmentStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// StatusChange is one entry of the append-only status audit log.
type StatusChange struct {
	Status    AppointmentStatus `json:"status"`
	ChangedAt time.Time         `json:"changed_at"`
	ChangedBy string            `json:"changed_by"`
	Reason    string            `json:"reason,omitempty"`
}

// RescheduleRecord is one entry of the append-only reschedule log.
type RescheduleRecord struct {
	OriginalDate      string    `json:"original_date"`
	OriginalStartTime string    `json:"original_start_time"`
	NewDate           string    `json:"new_date"`
	NewStartTime      string    `json:"new_start_time"`
	Reason            string    `json:"reason,omitempty"`
	RequestedBy       string    `json:"requested_by"`
	RequestedAt       time.Time `json:"requested_at"`
}

// StatusHistory is a JSONB-backed append-only log of status changes.
type StatusHistory []StatusChange

// Value implements driver.Valuer.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal([]StatusChange{})
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *StatusHistory) Scan(src interface{}) error {
	return scanJSON(src, h, "status history")
}

// RescheduleHistory is a JSONB-backed append-only log of reschedules.
type RescheduleHistory []RescheduleRecord

// Value implements driver.Valuer.
func (h RescheduleHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal([]RescheduleRecord{})
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *RescheduleHistory) Scan(src interface{}) error {
	return scanJSON(src, h, "reschedule history")
}

func scanJSON(src, dest interface{}, label string) error {
	if src == nil {
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%s: unsupported scan type %T", label, src)
	}
	return json.Unmarshal(raw, dest)
}

// Appointment is the booked-service aggregate. Appointments are created when
// a quotation is accepted and are never deleted; cancellation is a terminal
// status, not a row removal.
type Appointment struct {
	ID          string `db:"id" json:"id"`
	QuotationID string `db:"quotation_id" json:"quotation_id"`
	CustomerID  string `db:"customer_id" json:"customer_id"`
	WorkshopID  string `db:"workshop_id" json:"workshop_id"`

	ScheduledDate      time.Time `db:"scheduled_date" json:"scheduled_date"`
	ScheduledStartTime string    `db:"scheduled_start_time" json:"scheduled_start_time"`
	ScheduledEndTime   string    `db:"scheduled_end_time" json:"scheduled_end_time"`
	EstimatedDuration  float64   `db:"estimated_duration" json:"estimated_duration"`

	Status            AppointmentStatus `db:"status" json:"status"`
	StatusHistory     StatusHistory     `db:"status_history" json:"status_history"`
	RescheduleHistory RescheduleHistory `db:"reschedule_history" json:"reschedule_history"`

	ActualStartTime *time.Time `db:"actual_start_time" json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time `db:"actual_end_time" json:"actual_end_time,omitempty"`

	Notes        *string `db:"notes" json:"notes,omitempty"`
	ServiceNotes *string `db:"service_notes" json:"service_notes,omitempty"`

	CustomerRating *int          `db:"customer_rating" json:"customer_rating,omitempty"`
	CustomerReview *string       `db:"customer_review" json:"customer_review,omitempty"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Occupying reports whether the appointment reserves workshop time.
func (a *Appointment) Occupying() bool {
	for _, s := range OccupyingStatuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
