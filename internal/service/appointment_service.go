package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/timegrid"
)

type appointmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	ListForParty(ctx context.Context, column, partyID string, page, pageSize int) ([]models.Appointment, int, error)
	Insert(ctx context.Context, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, change models.StatusChange, actualStart, actualEnd *time.Time) (*models.Appointment, error)
	Reschedule(ctx context.Context, id string, newDate time.Time, newStart, newEnd string, change models.StatusChange, record models.RescheduleRecord) (*models.Appointment, error)
	UpdateNotes(ctx context.Context, id, notes string) (*models.Appointment, error)
	UpdateServiceTimes(ctx context.Context, id string, actualStart, actualEnd *time.Time, serviceNotes *string) (*models.Appointment, error)
	UpdateReview(ctx context.Context, id string, rating int, review string) (*models.Appointment, error)
	UpdatePayment(ctx context.Context, id string, status models.PaymentStatus) (*models.Appointment, error)
}

type slotGate interface {
	IsTimeSlotAvailableExcluding(ctx context.Context, workshopID string, date time.Time, startTime string, duration float64, excludeAppointmentID string) (*SlotCheckResult, error)
	InvalidateAvailability(ctx context.Context, workshopID string)
	EstimateServiceDuration(serviceTypes []string) float64
}

// NotificationEvent describes a committed appointment change for dispatch.
// Delivery happens after the write and can never roll it back.
type NotificationEvent struct {
	Appointment    *models.Appointment      `json:"appointment"`
	PreviousStatus models.AppointmentStatus `json:"previous_status"`
	NewStatus      models.AppointmentStatus `json:"new_status"`
	ActingUserID   string                   `json:"acting_user_id"`
	Reason         string                   `json:"reason,omitempty"`
}

type notifier interface {
	EnqueueStatusChange(event NotificationEvent) error
}

// AppointmentService orchestrates validated appointment mutations. Every
// state change goes through the status machine and lands as one atomic
// repository patch that appends its own audit entry.
type AppointmentService struct {
	repo      appointmentStore
	workshops workshopFinder
	scheduler slotGate
	validator *BookingValidator
	validate  *validator.Validate
	notify    notifier
	metrics   *MetricsService
	now       func() time.Time
	logger    *zap.Logger
}

// NewAppointmentService constructs the service.
func NewAppointmentService(repo appointmentStore, workshops workshopFinder, scheduler slotGate,
	bookingValidator *BookingValidator, validate *validator.Validate, notify notifier,
	metrics *MetricsService, now func() time.Time, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:      repo,
		workshops: workshops,
		scheduler: scheduler,
		validator: bookingValidator,
		validate:  validate,
		notify:    notify,
		metrics:   metrics,
		now:       now,
		logger:    logger,
	}
}

// CreateAppointmentRequest is the accepted-quotation boundary payload.
type CreateAppointmentRequest struct {
	QuotationID  string   `json:"quotation_id" validate:"required"`
	WorkshopID   string   `json:"workshop_id" validate:"required"`
	Date         string   `json:"date" validate:"required"`
	StartTime    string   `json:"start_time" validate:"required"`
	Duration     float64  `json:"duration"`
	ServiceTypes []string `json:"service_types"`
	Notes        *string  `json:"notes"`
}

// RescheduleRequest moves an appointment to a new slot.
type RescheduleRequest struct {
	NewDate      string  `json:"new_date" validate:"required"`
	NewStartTime string  `json:"new_start_time" validate:"required"`
	NewEndTime   *string `json:"new_end_time"`
	Reason       string  `json:"reason"`
}

// StatusChangeRequest requests one state-machine transition.
type StatusChangeRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required"`
	Reason string                   `json:"reason"`
	Notes  *string                  `json:"notes"`
}

// ServiceTimesRequest records the wall-clock execution window.
type ServiceTimesRequest struct {
	ActualStartTime *time.Time `json:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time"`
	ServiceNotes    *string    `json:"service_notes"`
}

// ReviewRequest submits a post-completion rating.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=10"`
}

// PaymentRequest updates payment settlement.
type PaymentRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required"`
}

// Get returns an appointment visible to the caller.
func (s *AppointmentService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	return appt, nil
}

// List pages through the caller's appointments. Customers see their own,
// workshop owners see their workshop's, admins may pass an explicit party.
func (s *AppointmentService) List(ctx context.Context, claims *models.JWTClaims, workshopID, customerID string, page, pageSize int) ([]models.Appointment, *models.Pagination, error) {
	var column, partyID string
	switch claims.Role {
	case models.RoleCustomer:
		column, partyID = "customer_id", claims.UserID
	case models.RoleWorkshop:
		workshop, err := s.ownWorkshop(ctx, claims)
		if err != nil {
			return nil, nil, err
		}
		column, partyID = "workshop_id", workshop.ID
	case models.RoleAdmin:
		switch {
		case workshopID != "":
			column, partyID = "workshop_id", workshopID
		case customerID != "":
			column, partyID = "customer_id", customerID
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "workshop_id or customer_id filter is required")
		}
	default:
		return nil, nil, appErrors.ErrAccessDenied
	}

	appts, total, err := s.repo.ListForParty(ctx, column, partyID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return appts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create books an appointment out of an accepted quotation. The requested
// slot is validated and conflict-checked; the row starts in "requested" with
// its first status-history entry already attached.
func (s *AppointmentService) Create(ctx context.Context, req CreateAppointmentRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	if claims.Role != models.RoleCustomer && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only customers can book appointments")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}

	duration := req.Duration
	if duration <= 0 {
		duration = s.scheduler.EstimateServiceDuration(req.ServiceTypes)
	}

	result := s.validator.ValidateBookingRequest(BookingRequest{Date: date, StartTime: req.StartTime, Duration: duration})
	if !result.Valid {
		return nil, appErrors.Validation("booking request is invalid", result.Errors)
	}

	check, err := s.scheduler.IsTimeSlotAvailableExcluding(ctx, req.WorkshopID, date, req.StartTime, duration, "")
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, appErrors.Clone(appErrors.ErrConflict, check.Reason)
	}

	// The gate reports the interval the booking occupies on its start date.
	// For multi-day services that is the opening hour, not start+duration,
	// which would wrap past midnight into an empty interval.
	endTime := check.ReservedEndTime
	if endTime == "" {
		endTime = timegrid.AddHours(req.StartTime, duration)
	}

	now := s.now().UTC()
	appt := &models.Appointment{
		QuotationID:        req.QuotationID,
		CustomerID:         claims.UserID,
		WorkshopID:         req.WorkshopID,
		ScheduledDate:      date,
		ScheduledStartTime: req.StartTime,
		ScheduledEndTime:   endTime,
		EstimatedDuration:  duration,
		Status:             models.StatusRequested,
		StatusHistory: models.StatusHistory{{
			Status:    models.StatusRequested,
			ChangedAt: now,
			ChangedBy: claims.UserID,
			Reason:    "appointment created from accepted quotation",
		}},
		RescheduleHistory: models.RescheduleHistory{},
		Notes:             req.Notes,
		PaymentStatus:     models.PaymentPending,
	}
	if err := s.repo.Insert(ctx, appt); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	s.scheduler.InvalidateAvailability(ctx, req.WorkshopID)
	return appt, nil
}

// Reschedule moves an appointment to a new slot after rule checks and a
// conflict probe that ignores the appointment's own reservation.
func (s *AppointmentService) Reschedule(ctx context.Context, id string, req RescheduleRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	newDate, err := time.Parse(dateLayout, req.NewDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid new_date, expected YYYY-MM-DD")
	}

	result := s.validator.ValidateRescheduleRequest(appt, newDate, req.NewStartTime)
	if !result.Valid {
		return nil, appErrors.Validation("reschedule request is invalid", result.Errors)
	}

	check, err := s.scheduler.IsTimeSlotAvailableExcluding(ctx, appt.WorkshopID, newDate, req.NewStartTime, appt.EstimatedDuration, appt.ID)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, appErrors.Clone(appErrors.ErrConflict, check.Reason)
	}

	newEnd := check.ReservedEndTime
	if newEnd == "" {
		newEnd = timegrid.AddHours(req.NewStartTime, appt.EstimatedDuration)
	}
	if req.NewEndTime != nil && timegrid.Valid(*req.NewEndTime) {
		newEnd = *req.NewEndTime
	}

	now := s.now().UTC()
	previous := appt.Status
	change := models.StatusChange{
		Status:    models.StatusRescheduled,
		ChangedAt: now,
		ChangedBy: claims.UserID,
		Reason:    req.Reason,
	}
	record := models.RescheduleRecord{
		OriginalDate:      appt.ScheduledDate.Format(dateLayout),
		OriginalStartTime: appt.ScheduledStartTime,
		NewDate:           req.NewDate,
		NewStartTime:      req.NewStartTime,
		Reason:            req.Reason,
		RequestedBy:       claims.UserID,
		RequestedAt:       now,
	}

	updated, err := s.repo.Reschedule(ctx, appt.ID, newDate, req.NewStartTime, newEnd, change, record)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule appointment")
	}

	s.scheduler.InvalidateAvailability(ctx, appt.WorkshopID)
	s.emit(NotificationEvent{
		Appointment:    updated,
		PreviousStatus: previous,
		NewStatus:      models.StatusRescheduled,
		ActingUserID:   claims.UserID,
		Reason:         req.Reason,
	})
	return updated, nil
}

// ChangeStatus performs one validated state-machine transition.
func (s *AppointmentService) ChangeStatus(ctx context.Context, id string, req StatusChangeRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}

	target := models.AppointmentStatus(strings.ToLower(string(req.Status)))
	if !models.ValidStatus(target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}
	if err := s.authorizeTransition(target, claims); err != nil {
		return nil, err
	}
	if !models.CanTransition(appt.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot transition appointment from %q to %q", appt.Status, target))
	}

	now := s.now().UTC()
	var actualStart, actualEnd *time.Time
	switch target {
	case models.StatusInProgress:
		actualStart = &now
	case models.StatusCompleted:
		actualEnd = &now
	}

	change := models.StatusChange{Status: target, ChangedAt: now, ChangedBy: claims.UserID, Reason: req.Reason}
	previous := appt.Status
	updated, err := s.repo.UpdateStatus(ctx, appt.ID, target, change, actualStart, actualEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	if req.Notes != nil {
		if updated, err = s.repo.UpdateNotes(ctx, appt.ID, *req.Notes); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notes")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(target))
	}
	s.scheduler.InvalidateAvailability(ctx, appt.WorkshopID)
	s.emit(NotificationEvent{
		Appointment:    updated,
		PreviousStatus: previous,
		NewStatus:      target,
		ActingUserID:   claims.UserID,
		Reason:         req.Reason,
	})
	return updated, nil
}

// UpdateNotes replaces the customer-visible notes.
func (s *AppointmentService) UpdateNotes(ctx context.Context, id, notes string, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateNotes(ctx, appt.ID, notes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notes")
	}
	return updated, nil
}

// RecordServiceTimes stores actual execution times; workshop side only.
func (s *AppointmentService) RecordServiceTimes(ctx context.Context, id string, req ServiceTimesRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	if claims.Role == models.RoleCustomer {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only the workshop can record service times")
	}
	updated, err := s.repo.UpdateServiceTimes(ctx, appt.ID, req.ActualStartTime, req.ActualEndTime, req.ServiceNotes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record service times")
	}
	return updated, nil
}

// SubmitReview stores a rating and review, permitted only to the customer
// and only once the appointment is completed.
func (s *AppointmentService) SubmitReview(ctx context.Context, id string, req ReviewRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	if claims.Role != models.RoleCustomer && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only the customer can review an appointment")
	}
	if appt.Status != models.StatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "reviews are only accepted for completed appointments")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Validation("invalid review", []string{
			"rating must be between 1 and 5",
			"comment must be at least 10 characters",
		})
	}
	updated, err := s.repo.UpdateReview(ctx, appt.ID, req.Rating, req.Comment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store review")
	}
	return updated, nil
}

// UpdatePayment records payment settlement for a completed appointment.
func (s *AppointmentService) UpdatePayment(ctx context.Context, id string, req PaymentRequest, claims *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appt, claims); err != nil {
		return nil, err
	}
	if claims.Role == models.RoleCustomer {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only the workshop can update payment status")
	}
	if appt.Status != models.StatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment status applies to completed appointments only")
	}
	switch req.Status {
	case models.PaymentPending, models.PaymentPaid, models.PaymentRefunded:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown payment status %q", req.Status))
	}
	updated, err := s.repo.UpdatePayment(ctx, appt.ID, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	return updated, nil
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

// authorize admits the appointment's customer, the owning workshop, and
// admins; everyone else is denied.
func (s *AppointmentService) authorize(ctx context.Context, appt *models.Appointment, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if appt.CustomerID == claims.UserID {
			return nil
		}
	case models.RoleWorkshop:
		workshop, err := s.ownWorkshop(ctx, claims)
		if err != nil {
			return err
		}
		if workshop.ID == appt.WorkshopID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, "caller is neither the appointment's customer nor its workshop")
}

// authorizeTransition limits which side may request which target state:
// customers may only cancel, the workshop side drives the rest.
func (s *AppointmentService) authorizeTransition(target models.AppointmentStatus, claims *models.JWTClaims) error {
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleWorkshop {
		return nil
	}
	if target == models.StatusCancelled {
		return nil
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, fmt.Sprintf("customers cannot set status %q", target))
}

func (s *AppointmentService) ownWorkshop(ctx context.Context, claims *models.JWTClaims) (*models.Workshop, error) {
	key := claims.UserID
	workshop, err := s.workshops.FindByOwnerKey(ctx, key)
	if err == nil {
		return workshop, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	if claims.ProfileID != "" {
		workshop, err = s.workshops.FindByOwnerKey(ctx, claims.ProfileID)
		if err == nil {
			return workshop, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found for caller")
}

// emit hands the event to the notifier. Dispatch failures are logged and
// swallowed: the appointment mutation has already committed and must not be
// failed because a message could not be sent.
func (s *AppointmentService) emit(event NotificationEvent) {
	if s.notify == nil {
		return
	}
	if err := s.notify.EnqueueStatusChange(event); err != nil {
		s.logger.Warn("notification enqueue failed",
			zap.String("appointment_id", event.Appointment.ID),
			zap.String("new_status", string(event.NewStatus)),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordNotification("enqueue_failed")
		}
	}
}
