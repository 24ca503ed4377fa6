package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DayHours describes one weekday's operating window. Open and Close use the
// "HH:MM" wire format; Open < Close whenever the day is not closed.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// OperatingHours maps lowercase weekday names to their operating windows.
// A well-formed value has exactly seven entries.
type OperatingHours map[string]DayHours

// Weekdays lists the canonical keys of an OperatingHours map.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayKey converts a time.Weekday into the map key used by OperatingHours.
func WeekdayKey(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// ForDate returns the operating window applying to the given calendar date.
func (h OperatingHours) ForDate(date time.Time) DayHours {
	day, ok := h[WeekdayKey(date.Weekday())]
	if !ok {
		return DayHours{Closed: true}
	}
	return day
}

// Value implements driver.Valuer, storing the hours as JSONB.
func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *OperatingHours) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("operating hours: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, h)
}

// Workshop represents a repair workshop able to take bookings. Historical
// records key the workshop either by its owning user or by its profile, so
// lookups must try both.
type Workshop struct {
	ID             string         `db:"id" json:"id"`
	OwnerUserID    string         `db:"owner_user_id" json:"owner_user_id"`
	ProfileID      *string        `db:"profile_id" json:"profile_id,omitempty"`
	Name           string         `db:"name" json:"name"`
	OperatingHours OperatingHours `db:"operating_hours" json:"operating_hours,omitempty"`
	ServiceTypes   StringList     `db:"service_types" json:"service_types,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// StringList is a JSONB-backed string slice.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("string list: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, l)
}

// DefaultOperatingHours is the documented fallback schedule applied when a
// workshop has no hours configured: Mon-Fri 08:00-17:00, Sat 08:00-12:00,
// Sun closed. It is injected into the scheduler at construction so tests can
// substitute their own.
func DefaultOperatingHours() OperatingHours {
	hours := OperatingHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours[day] = DayHours{Open: "08:00", Close: "17:00"}
	}
	hours["saturday"] = DayHours{Open: "08:00", Close: "12:00"}
	hours["sunday"] = DayHours{Closed: true}
	return hours
}
