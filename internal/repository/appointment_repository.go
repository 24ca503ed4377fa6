package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
)

const appointmentColumns = `id, quotation_id, customer_id, workshop_id, scheduled_date, scheduled_start_time, scheduled_end_time,
estimated_duration, status, status_history, reschedule_history, actual_start_time, actual_end_time,
notes, service_notes, customer_rating, customer_review, payment_status, created_at, updated_at`

// AppointmentRepository persists appointments. Every mutation is a single
// UPDATE that both sets the changed columns and appends one history entry,
// so the state change and its audit record cannot drift apart.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// FindByID fetches an appointment by primary key.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindForWorkshopDay returns a workshop's appointments on one calendar day,
// optionally restricted to the given statuses.
func (r *AppointmentRepository) FindForWorkshopDay(ctx context.Context, workshopID string, date time.Time, statusIn []models.AppointmentStatus) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments
WHERE workshop_id = $1 AND scheduled_date = $2`, appointmentColumns)
	args := []interface{}{workshopID, date.Format("2006-01-02")}
	if len(statusIn) > 0 {
		query += " AND status = ANY($3)"
		args = append(args, pq.Array(statusStrings(statusIn)))
	}
	query += " ORDER BY scheduled_start_time ASC"

	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("find appointments for day: %w", err)
	}
	return appts, nil
}

// FindForWorkshopRange returns a workshop's appointments within an inclusive
// date range, restricted to the given statuses.
func (r *AppointmentRepository) FindForWorkshopRange(ctx context.Context, workshopID string, start, end time.Time, statusIn []models.AppointmentStatus) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments
WHERE workshop_id = $1 AND scheduled_date >= $2 AND scheduled_date <= $3`, appointmentColumns)
	args := []interface{}{workshopID, start.Format("2006-01-02"), end.Format("2006-01-02")}
	if len(statusIn) > 0 {
		query += " AND status = ANY($4)"
		args = append(args, pq.Array(statusStrings(statusIn)))
	}
	query += " ORDER BY scheduled_date ASC, scheduled_start_time ASC"

	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("find appointments for range: %w", err)
	}
	return appts, nil
}

// ListForParty pages through the appointments visible to one customer or one
// workshop.
func (r *AppointmentRepository) ListForParty(ctx context.Context, column, partyID string, page, pageSize int) ([]models.Appointment, int, error) {
	if column != "customer_id" && column != "workshop_id" {
		return nil, 0, fmt.Errorf("unsupported party column %q", column)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s = $1
ORDER BY scheduled_date DESC, scheduled_start_time DESC LIMIT %d OFFSET %d`, appointmentColumns, column, pageSize, offset)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, partyID); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM appointments WHERE %s = $1", column)
	if err := r.db.GetContext(ctx, &total, countQuery, partyID); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return appts, total, nil
}

// Insert creates an appointment. A unique-violation on the occupied-slot
// index means a concurrent request won the slot; it surfaces as a conflict
// so the check-then-act race always resolves cleanly for the loser.
func (r *AppointmentRepository) Insert(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	query := `INSERT INTO appointments (id, quotation_id, customer_id, workshop_id, scheduled_date, scheduled_start_time, scheduled_end_time,
estimated_duration, status, status_history, reschedule_history, actual_start_time, actual_end_time,
notes, service_notes, customer_rating, customer_review, payment_status, created_at, updated_at)
VALUES (:id, :quotation_id, :customer_id, :workshop_id, :scheduled_date, :scheduled_start_time, :scheduled_end_time,
:estimated_duration, :status, :status_history, :reschedule_history, :actual_start_time, :actual_end_time,
:notes, :service_notes, :customer_rating, :customer_review, :payment_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "time slot was just taken by another booking")
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// UpdateStatus transitions an appointment and appends the audit entry in one
// statement. Optional actual start/end timestamps are set for in_progress
// and completed transitions.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, change models.StatusChange, actualStart, actualEnd *time.Time) (*models.Appointment, error) {
	entry, err := json.Marshal([]models.StatusChange{change})
	if err != nil {
		return nil, fmt.Errorf("marshal status change: %w", err)
	}

	query := fmt.Sprintf(`UPDATE appointments
SET status = $2,
    status_history = status_history || $3::jsonb,
    actual_start_time = COALESCE($4, actual_start_time),
    actual_end_time = COALESCE($5, actual_end_time),
    updated_at = $6
WHERE id = $1
RETURNING %s`, appointmentColumns)

	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, status, entry, actualStart, actualEnd, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &appt, nil
}

// Reschedule moves an appointment to a new slot, pushing one reschedule
// record and one status-history entry in the same statement.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id string, newDate time.Time, newStart, newEnd string, change models.StatusChange, record models.RescheduleRecord) (*models.Appointment, error) {
	statusEntry, err := json.Marshal([]models.StatusChange{change})
	if err != nil {
		return nil, fmt.Errorf("marshal status change: %w", err)
	}
	rescheduleEntry, err := json.Marshal([]models.RescheduleRecord{record})
	if err != nil {
		return nil, fmt.Errorf("marshal reschedule record: %w", err)
	}

	query := fmt.Sprintf(`UPDATE appointments
SET scheduled_date = $2,
    scheduled_start_time = $3,
    scheduled_end_time = $4,
    status = $5,
    status_history = status_history || $6::jsonb,
    reschedule_history = reschedule_history || $7::jsonb,
    updated_at = $8
WHERE id = $1
RETURNING %s`, appointmentColumns)

	var appt models.Appointment
	err = r.db.GetContext(ctx, &appt, query, id, newDate.Format("2006-01-02"), newStart, newEnd,
		models.StatusRescheduled, statusEntry, rescheduleEntry, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "time slot was just taken by another booking")
		}
		return nil, err
	}
	return &appt, nil
}

// UpdateNotes replaces the customer-visible notes.
func (r *AppointmentRepository) UpdateNotes(ctx context.Context, id, notes string) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments SET notes = $2, updated_at = $3 WHERE id = $1 RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, notes, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateServiceTimes records the wall-clock execution window.
func (r *AppointmentRepository) UpdateServiceTimes(ctx context.Context, id string, actualStart, actualEnd *time.Time, serviceNotes *string) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments
SET actual_start_time = COALESCE($2, actual_start_time),
    actual_end_time = COALESCE($3, actual_end_time),
    service_notes = COALESCE($4, service_notes),
    updated_at = $5
WHERE id = $1
RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, actualStart, actualEnd, serviceNotes, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateReview stores the post-completion customer rating and review.
func (r *AppointmentRepository) UpdateReview(ctx context.Context, id string, rating int, review string) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments SET customer_rating = $2, customer_review = $3, updated_at = $4 WHERE id = $1 RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, rating, review, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdatePayment stores the payment settlement state.
func (r *AppointmentRepository) UpdatePayment(ctx context.Context, id string, status models.PaymentStatus) (*models.Appointment, error) {
	query := fmt.Sprintf(`UPDATE appointments SET payment_status = $2, updated_at = $3 WHERE id = $1 RETURNING %s`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, status, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &appt, nil
}

func statusStrings(statuses []models.AppointmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
