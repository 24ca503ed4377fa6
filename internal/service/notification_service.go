package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/pkg/config"
	"github.com/bengkelin/booking-api/pkg/jobs"
)

const jobTypeStatusChange = "appointment_status_change"

type notificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, page, pageSize int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// statusMessages renders the human line for each lifecycle state.
var statusMessages = map[models.AppointmentStatus]string{
	models.StatusRequested:   "A new appointment has been requested",
	models.StatusConfirmed:   "Your appointment has been confirmed",
	models.StatusScheduled:   "Your appointment has been scheduled",
	models.StatusInProgress:  "Work on your vehicle has started",
	models.StatusCompleted:   "Your service is complete",
	models.StatusCancelled:   "The appointment has been cancelled",
	models.StatusNoShow:      "The appointment was marked as a no-show",
	models.StatusRescheduled: "The appointment has been rescheduled",
}

// NotificationService delivers appointment change notifications off the
// request path. Events are enqueued by the appointment service after the
// database write commits, then workers resolve recipients and persist one
// notification row per recipient. A failed delivery retries with backoff and
// is eventually dropped with a log line; it never affects the appointment.
type NotificationService struct {
	store     notificationStore
	workshops workshopFinder
	metrics   *MetricsService
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewNotificationService builds the service and its worker queue. Call Start
// before enqueueing and Stop on shutdown.
func NewNotificationService(store notificationStore, workshops workshopFinder, metrics *MetricsService,
	cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		store:     store,
		workshops: workshops,
		metrics:   metrics,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("notifications", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// EnqueueStatusChange queues a committed appointment change for dispatch.
func (s *NotificationService) EnqueueStatusChange(event NotificationEvent) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeStatusChange,
		Payload: event,
	})
}

// ListForRecipient returns a user's notifications, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string, page, pageSize int) ([]models.Notification, int, error) {
	return s.store.ListForRecipient(ctx, recipientID, page, pageSize)
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	return s.store.MarkRead(ctx, id, recipientID)
}

func (s *NotificationService) process(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(NotificationEvent)
	if !ok {
		// Malformed payloads cannot succeed on retry; drop them.
		s.logger.Error("dropping notification job with unexpected payload",
			zap.String("job_id", job.ID), zap.String("type", job.Type))
		s.observe("dropped")
		return nil
	}

	recipients, err := s.recipients(ctx, event)
	if err != nil {
		s.observe("failed")
		return err
	}

	notifType := models.NotificationStatusChange
	if event.NewStatus == models.StatusRescheduled {
		notifType = models.NotificationRescheduled
	}
	message := statusMessages[event.NewStatus]
	if message == "" {
		message = fmt.Sprintf("Appointment status changed to %s", event.NewStatus)
	}

	for _, recipientID := range recipients {
		notification := &models.Notification{
			AppointmentID:  event.Appointment.ID,
			RecipientID:    recipientID,
			Type:           notifType,
			PreviousStatus: event.PreviousStatus,
			NewStatus:      event.NewStatus,
			Message:        message,
		}
		if err := s.store.Insert(ctx, notification); err != nil {
			s.observe("failed")
			return err
		}
		s.logger.Info("notification dispatched",
			zap.String("appointment_id", event.Appointment.ID),
			zap.String("recipient_id", recipientID),
			zap.String("new_status", string(event.NewStatus)))
		s.observe("delivered")
	}
	return nil
}

// recipients resolves both parties of the appointment, dropping whoever made
// the change. You don't get notified about your own action.
func (s *NotificationService) recipients(ctx context.Context, event NotificationEvent) ([]string, error) {
	appt := event.Appointment
	candidates := []string{appt.CustomerID}

	workshop, err := s.workshops.GetByID(ctx, appt.WorkshopID)
	if err != nil {
		return nil, fmt.Errorf("resolve workshop %s: %w", appt.WorkshopID, err)
	}
	candidates = append(candidates, workshop.OwnerUserID)

	recipients := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id == "" || id == event.ActingUserID {
			continue
		}
		recipients = append(recipients, id)
	}
	return recipients, nil
}

func (s *NotificationService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(outcome)
	}
}
