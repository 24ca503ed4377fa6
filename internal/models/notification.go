package models

import "time"

// NotificationType enumerates dispatched notification kinds.
type NotificationType string

const (
	NotificationStatusChange NotificationType = "appointment_status_change"
	NotificationRescheduled  NotificationType = "appointment_rescheduled"
	NotificationReminder     NotificationType = "appointment_reminder"
)

// Notification is one delivered message about an appointment. Rows are the
// delivery record; the actual channel (push, email) is out of scope here.
type Notification struct {
	ID             string            `db:"id" json:"id"`
	AppointmentID  string            `db:"appointment_id" json:"appointment_id"`
	RecipientID    string            `db:"recipient_id" json:"recipient_id"`
	Type           NotificationType  `db:"type" json:"type"`
	PreviousStatus AppointmentStatus `db:"previous_status" json:"previous_status,omitempty"`
	NewStatus      AppointmentStatus `db:"new_status" json:"new_status,omitempty"`
	Message        string            `db:"message" json:"message"`
	Read           bool              `db:"read" json:"read"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}
