package models

// TimeSlot is a candidate or confirmed booking window. It is a derived value
// type, never persisted on its own.
type TimeSlot struct {
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// AvailabilitySlot is one granular unit of a day's slot grid.
type AvailabilitySlot struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
}

// WorkshopAvailability is the full per-day availability report.
type WorkshopAvailability struct {
	WorkshopID       string             `json:"workshop_id"`
	Date             string             `json:"date"`
	OperatingHours   DayHours           `json:"operating_hours"`
	AvailableSlots   []AvailabilitySlot `json:"available_slots"`
	BookedSlots      []AvailabilitySlot `json:"booked_slots"`
	UnavailableSlots []AvailabilitySlot `json:"unavailable_slots"`
}
