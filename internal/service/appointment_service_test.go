package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
)

// memStore is an in-memory appointmentStore mirroring the repository's
// append-on-update history semantics.
type memStore struct {
	appts  map[string]*models.Appointment
	nextID int
}

func newMemStore() *memStore {
	return &memStore{appts: map[string]*models.Appointment{}}
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *appt
	return &clone, nil
}

func (m *memStore) ListForParty(_ context.Context, column, partyID string, _, _ int) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, appt := range m.appts {
		if (column == "customer_id" && appt.CustomerID == partyID) ||
			(column == "workshop_id" && appt.WorkshopID == partyID) {
			out = append(out, *appt)
		}
	}
	return out, len(out), nil
}

func (m *memStore) Insert(_ context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		m.nextID++
		appt.ID = "appt-" + time.Now().Format("150405") + "-" + string(rune('a'+m.nextID))
	}
	clone := *appt
	m.appts[appt.ID] = &clone
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status models.AppointmentStatus, change models.StatusChange, actualStart, actualEnd *time.Time) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	appt.Status = status
	appt.StatusHistory = append(appt.StatusHistory, change)
	if actualStart != nil {
		appt.ActualStartTime = actualStart
	}
	if actualEnd != nil {
		appt.ActualEndTime = actualEnd
	}
	clone := *appt
	return &clone, nil
}

func (m *memStore) Reschedule(_ context.Context, id string, newDate time.Time, newStart, newEnd string, change models.StatusChange, record models.RescheduleRecord) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	appt.ScheduledDate = newDate
	appt.ScheduledStartTime = newStart
	appt.ScheduledEndTime = newEnd
	appt.Status = models.StatusRescheduled
	appt.StatusHistory = append(appt.StatusHistory, change)
	appt.RescheduleHistory = append(appt.RescheduleHistory, record)
	clone := *appt
	return &clone, nil
}

func (m *memStore) UpdateNotes(_ context.Context, id, notes string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	appt.Notes = &notes
	clone := *appt
	return &clone, nil
}

func (m *memStore) UpdateServiceTimes(_ context.Context, id string, actualStart, actualEnd *time.Time, serviceNotes *string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if actualStart != nil {
		appt.ActualStartTime = actualStart
	}
	if actualEnd != nil {
		appt.ActualEndTime = actualEnd
	}
	if serviceNotes != nil {
		appt.ServiceNotes = serviceNotes
	}
	clone := *appt
	return &clone, nil
}

func (m *memStore) UpdateReview(_ context.Context, id string, rating int, review string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	appt.CustomerRating = &rating
	appt.CustomerReview = &review
	clone := *appt
	return &clone, nil
}

func (m *memStore) UpdatePayment(_ context.Context, id string, status models.PaymentStatus) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	appt.PaymentStatus = status
	clone := *appt
	return &clone, nil
}

// stubGate scripts slot checks and records exclusion ids.
type stubGate struct {
	result       *SlotCheckResult
	excludedID   string
	invalidated  []string
	estimateOnly float64
}

func (g *stubGate) IsTimeSlotAvailableExcluding(_ context.Context, _ string, _ time.Time, _ string, _ float64, excludeID string) (*SlotCheckResult, error) {
	g.excludedID = excludeID
	if g.result != nil {
		return g.result, nil
	}
	return &SlotCheckResult{Available: true}, nil
}

func (g *stubGate) InvalidateAvailability(_ context.Context, workshopID string) {
	g.invalidated = append(g.invalidated, workshopID)
}

func (g *stubGate) EstimateServiceDuration(_ []string) float64 {
	if g.estimateOnly > 0 {
		return g.estimateOnly
	}
	return 2
}

type recordingNotifier struct {
	events []NotificationEvent
}

func (n *recordingNotifier) EnqueueStatusChange(event NotificationEvent) error {
	n.events = append(n.events, event)
	return nil
}

func customerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "cust-1", Role: models.RoleCustomer}
}

func workshopClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "owner-1", Role: models.RoleWorkshop}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

type apptServiceFixture struct {
	svc      *AppointmentService
	store    *memStore
	gate     *stubGate
	notifier *recordingNotifier
}

func newApptService(t *testing.T) *apptServiceFixture {
	t.Helper()
	_, workshops := testWorkshop()
	store := newMemStore()
	gate := &stubGate{}
	notifier := &recordingNotifier{}
	validator := NewBookingValidator(DefaultBookingRules(), func() time.Time { return fixedNow })
	svc := NewAppointmentService(store, workshops, gate, validator, nil, notifier, nil,
		func() time.Time { return fixedNow }, nil)
	return &apptServiceFixture{svc: svc, store: store, gate: gate, notifier: notifier}
}

func seedAppointment(f *apptServiceFixture, status models.AppointmentStatus, daysAhead int) *models.Appointment {
	date := dayStart(fixedNow).AddDate(0, 0, daysAhead)
	appt := &models.Appointment{
		ID:                 "appt-seed",
		QuotationID:        "quote-1",
		CustomerID:         "cust-1",
		WorkshopID:         "ws-1",
		ScheduledDate:      date,
		ScheduledStartTime: "10:00",
		ScheduledEndTime:   "12:00",
		EstimatedDuration:  2,
		Status:             status,
		StatusHistory:      models.StatusHistory{{Status: models.StatusRequested, ChangedAt: fixedNow, ChangedBy: "cust-1"}},
		PaymentStatus:      models.PaymentPending,
	}
	clone := *appt
	f.store.appts[appt.ID] = &clone
	return appt
}

func TestCreateAppointment(t *testing.T) {
	f := newApptService(t)
	req := CreateAppointmentRequest{
		QuotationID:  "quote-1",
		WorkshopID:   "ws-1",
		Date:         fixedNow.AddDate(0, 0, 3).Format(dateLayout),
		StartTime:    "09:00",
		Duration:     2,
		ServiceTypes: []string{"brake_service"},
	}

	appt, err := f.svc.Create(context.Background(), req, customerClaims())
	require.NoError(t, err)

	assert.Equal(t, models.StatusRequested, appt.Status)
	assert.Equal(t, "cust-1", appt.CustomerID)
	assert.Equal(t, "11:00", appt.ScheduledEndTime)
	require.Len(t, appt.StatusHistory, 1)
	assert.Equal(t, models.StatusRequested, appt.StatusHistory[0].Status)
	assert.Equal(t, []string{"ws-1"}, f.gate.invalidated)
}

func TestCreateAppointment_MultiDayStoresReservedEnd(t *testing.T) {
	f := newApptService(t)
	f.gate.result = &SlotCheckResult{Available: true, ReservedEndTime: "16:00"}

	appt, err := f.svc.Create(context.Background(), CreateAppointmentRequest{
		QuotationID:  "quote-1",
		WorkshopID:   "ws-1",
		Date:         fixedNow.AddDate(0, 0, 3).Format(dateLayout),
		StartTime:    "15:00",
		Duration:     10,
		ServiceTypes: []string{"painting"},
	}, customerClaims())
	require.NoError(t, err)

	// 15:00 plus ten hours would wrap to 01:00, an empty interval that
	// reserves nothing. The stored end is the gate's reserved window.
	assert.Equal(t, "16:00", appt.ScheduledEndTime)
	assert.Equal(t, 10.0, appt.EstimatedDuration)
}

func TestCreateAppointment_SlotConflict(t *testing.T) {
	f := newApptService(t)
	f.gate.result = &SlotCheckResult{Available: false, Reason: "conflicts with an existing appointment", ConflictingAppointmentID: "other"}

	_, err := f.svc.Create(context.Background(), CreateAppointmentRequest{
		QuotationID: "quote-1",
		WorkshopID:  "ws-1",
		Date:        fixedNow.AddDate(0, 0, 3).Format(dateLayout),
		StartTime:   "09:00",
		Duration:    2,
	}, customerClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateAppointment_InvalidRequestCollectsErrors(t *testing.T) {
	f := newApptService(t)

	_, err := f.svc.Create(context.Background(), CreateAppointmentRequest{
		QuotationID: "quote-1",
		WorkshopID:  "ws-1",
		Date:        fixedNow.AddDate(0, 0, -2).Format(dateLayout),
		StartTime:   "09:00",
		Duration:    13,
	}, customerClaims())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, appErr.Details, 2)
}

func TestCreateAppointment_WorkshopRoleDenied(t *testing.T) {
	f := newApptService(t)

	_, err := f.svc.Create(context.Background(), CreateAppointmentRequest{
		QuotationID: "quote-1",
		WorkshopID:  "ws-1",
		Date:        fixedNow.AddDate(0, 0, 3).Format(dateLayout),
		StartTime:   "09:00",
		Duration:    2,
	}, workshopClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestCreateAppointment_EstimatesDurationWhenOmitted(t *testing.T) {
	f := newApptService(t)
	f.gate.estimateOnly = 2.5

	appt, err := f.svc.Create(context.Background(), CreateAppointmentRequest{
		QuotationID:  "quote-1",
		WorkshopID:   "ws-1",
		Date:         fixedNow.AddDate(0, 0, 3).Format(dateLayout),
		StartTime:    "09:00",
		ServiceTypes: []string{"diagnostics"},
	}, customerClaims())
	require.NoError(t, err)
	assert.Equal(t, 2.5, appt.EstimatedDuration)
	assert.Equal(t, "11:30", appt.ScheduledEndTime)
}

func TestChangeStatus_FullLifecycle(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusRequested, 3)
	ctx := context.Background()

	steps := []struct {
		target models.AppointmentStatus
		claims *models.JWTClaims
	}{
		{models.StatusConfirmed, workshopClaims()},
		{models.StatusScheduled, workshopClaims()},
		{models.StatusInProgress, workshopClaims()},
		{models.StatusCompleted, workshopClaims()},
	}

	for i, step := range steps {
		appt, err := f.svc.ChangeStatus(ctx, "appt-seed", StatusChangeRequest{Status: step.target}, step.claims)
		require.NoError(t, err, "transition to %s", step.target)
		assert.Equal(t, step.target, appt.Status)
		// One new history entry per transition on top of the seed entry.
		assert.Len(t, appt.StatusHistory, i+2)
	}

	final := f.store.appts["appt-seed"]
	require.NotNil(t, final.ActualStartTime)
	require.NotNil(t, final.ActualEndTime)
	assert.Len(t, f.notifier.events, 4)
	assert.Equal(t, models.StatusRequested, f.notifier.events[0].PreviousStatus)
	assert.Equal(t, models.StatusCompleted, f.notifier.events[3].NewStatus)
}

func TestChangeStatus_IllegalTransition(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusCompleted, -1)

	_, err := f.svc.ChangeStatus(context.Background(), "appt-seed",
		StatusChangeRequest{Status: models.StatusScheduled}, workshopClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.notifier.events)
}

func TestChangeStatus_CustomerMayOnlyCancel(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusRequested, 3)
	ctx := context.Background()

	_, err := f.svc.ChangeStatus(ctx, "appt-seed", StatusChangeRequest{Status: models.StatusConfirmed}, customerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)

	appt, err := f.svc.ChangeStatus(ctx, "appt-seed", StatusChangeRequest{Status: models.StatusCancelled, Reason: "changed my mind"}, customerClaims())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, appt.Status)
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusRequested, 3)

	_, err := f.svc.ChangeStatus(context.Background(), "appt-seed",
		StatusChangeRequest{Status: "teleported"}, workshopClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccessControl_ForeignCustomerDenied(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusRequested, 3)

	other := &models.JWTClaims{UserID: "cust-999", Role: models.RoleCustomer}
	_, err := f.svc.Get(context.Background(), "appt-seed", other)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestAccessControl_AdminAlwaysPasses(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusRequested, 3)

	appt, err := f.svc.Get(context.Background(), "appt-seed", adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "appt-seed", appt.ID)
}

func TestReschedule(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusConfirmed, 3)
	newDate := fixedNow.AddDate(0, 0, 7).Format(dateLayout)

	appt, err := f.svc.Reschedule(context.Background(), "appt-seed", RescheduleRequest{
		NewDate:      newDate,
		NewStartTime: "14:00",
		Reason:       "customer request",
	}, customerClaims())
	require.NoError(t, err)

	assert.Equal(t, models.StatusRescheduled, appt.Status)
	assert.Equal(t, "14:00", appt.ScheduledStartTime)
	assert.Equal(t, "16:00", appt.ScheduledEndTime)
	require.Len(t, appt.RescheduleHistory, 1)
	assert.Equal(t, "10:00", appt.RescheduleHistory[0].OriginalStartTime)
	assert.Equal(t, newDate, appt.RescheduleHistory[0].NewDate)

	// The conflict probe must ignore the appointment being moved.
	assert.Equal(t, "appt-seed", f.gate.excludedID)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, models.StatusConfirmed, f.notifier.events[0].PreviousStatus)
	assert.Equal(t, models.StatusRescheduled, f.notifier.events[0].NewStatus)
}

func TestReschedule_WithinLeadTimeRejected(t *testing.T) {
	f := newApptService(t)
	appt := seedAppointment(f, models.StatusConfirmed, 0)
	// Starts at 10:00 today; the clock reads 10:00, well inside 24 hours.
	_ = appt

	_, err := f.svc.Reschedule(context.Background(), "appt-seed", RescheduleRequest{
		NewDate:      fixedNow.AddDate(0, 0, 10).Format(dateLayout),
		NewStartTime: "09:00",
	}, customerClaims())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "appointments starting within 24 hours cannot be rescheduled")
}

func TestSubmitReview(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusCompleted, -1)

	appt, err := f.svc.SubmitReview(context.Background(), "appt-seed", ReviewRequest{
		Rating:  5,
		Comment: "quick and clean work",
	}, customerClaims())
	require.NoError(t, err)
	require.NotNil(t, appt.CustomerRating)
	assert.Equal(t, 5, *appt.CustomerRating)
}

func TestSubmitReview_OnlyWhenCompleted(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusScheduled, 3)

	_, err := f.svc.SubmitReview(context.Background(), "appt-seed", ReviewRequest{
		Rating:  4,
		Comment: "pretty good overall",
	}, customerClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmitReview_RejectsInvalidRatingOrShortComment(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusCompleted, -1)
	ctx := context.Background()

	_, err := f.svc.SubmitReview(ctx, "appt-seed", ReviewRequest{Rating: 6, Comment: "great service all round"}, customerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.SubmitReview(ctx, "appt-seed", ReviewRequest{Rating: 4, Comment: "ok"}, customerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitReview_WorkshopDenied(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusCompleted, -1)

	_, err := f.svc.SubmitReview(context.Background(), "appt-seed", ReviewRequest{
		Rating:  5,
		Comment: "reviewing ourselves",
	}, workshopClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestUpdatePayment(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusCompleted, -1)

	appt, err := f.svc.UpdatePayment(context.Background(), "appt-seed", PaymentRequest{Status: models.PaymentPaid}, workshopClaims())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, appt.PaymentStatus)
}

func TestUpdatePayment_RequiresCompletion(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusScheduled, 3)

	_, err := f.svc.UpdatePayment(context.Background(), "appt-seed", PaymentRequest{Status: models.PaymentPaid}, workshopClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceTimes_CustomerDenied(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusInProgress, 0)

	start := fixedNow
	_, err := f.svc.RecordServiceTimes(context.Background(), "appt-seed", ServiceTimesRequest{ActualStartTime: &start}, customerClaims())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestUpdateNotes(t *testing.T) {
	f := newApptService(t)
	seedAppointment(f, models.StatusConfirmed, 3)

	appt, err := f.svc.UpdateNotes(context.Background(), "appt-seed", "please check the brakes too", customerClaims())
	require.NoError(t, err)
	require.NotNil(t, appt.Notes)
	assert.Equal(t, "please check the brakes too", *appt.Notes)
}

func TestGet_NotFound(t *testing.T) {
	f := newApptService(t)

	_, err := f.svc.Get(context.Background(), "missing", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
