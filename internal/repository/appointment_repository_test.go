package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

var apptCols = []string{
	"id", "quotation_id", "customer_id", "workshop_id", "scheduled_date", "scheduled_start_time", "scheduled_end_time",
	"estimated_duration", "status", "status_history", "reschedule_history", "actual_start_time", "actual_end_time",
	"notes", "service_notes", "customer_rating", "customer_review", "payment_status", "created_at", "updated_at",
}

func sampleRows(id, start, end string, status models.AppointmentStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(apptCols).AddRow(
		id, "quote-1", "cust-1", "ws-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start, end,
		2.0, string(status), []byte(`[]`), []byte(`[]`), nil, nil,
		nil, nil, nil, nil, "pending", now, now,
	)
}

func TestAppointmentRepositoryFindForWorkshopDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("ws-1", "2026-03-02", pq.Array([]string{"confirmed", "scheduled", "in_progress"})).
		WillReturnRows(sampleRows("appt-1", "10:00", "12:00", models.StatusConfirmed))

	appts, err := repo.FindForWorkshopDay(context.Background(), "ws-1",
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), models.OccupyingStatuses)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "appt-1", appts[0].ID)
	assert.Equal(t, "10:00", appts[0].ScheduledStartTime)
	assert.Equal(t, models.StatusConfirmed, appts[0].Status)
}

func TestAppointmentRepositoryInsertMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnError(&pq.Error{Code: "23505"})

	appt := &models.Appointment{
		QuotationID:        "quote-1",
		CustomerID:         "cust-1",
		WorkshopID:         "ws-1",
		ScheduledDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ScheduledStartTime: "10:00",
		ScheduledEndTime:   "12:00",
		EstimatedDuration:  2,
		Status:             models.StatusRequested,
		PaymentStatus:      models.PaymentPending,
	}
	err := repo.Insert(context.Background(), appt)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAppointmentRepositoryUpdateStatusAppendsHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("status_history = status_history ||")).
		WillReturnRows(sampleRows("appt-1", "10:00", "12:00", models.StatusConfirmed))

	change := models.StatusChange{Status: models.StatusConfirmed, ChangedAt: time.Now().UTC(), ChangedBy: "ws-owner"}
	appt, err := repo.UpdateStatus(context.Background(), "appt-1", models.StatusConfirmed, change, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, appt.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryRescheduleAppendsBothLogs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("reschedule_history = reschedule_history ||")).
		WillReturnRows(sampleRows("appt-1", "14:00", "16:00", models.StatusRescheduled))

	change := models.StatusChange{Status: models.StatusRescheduled, ChangedAt: time.Now().UTC(), ChangedBy: "cust-1"}
	record := models.RescheduleRecord{
		OriginalDate:      "2026-03-02",
		OriginalStartTime: "10:00",
		NewDate:           "2026-03-03",
		NewStartTime:      "14:00",
		RequestedBy:       "cust-1",
		RequestedAt:       time.Now().UTC(),
	}
	appt, err := repo.Reschedule(context.Background(), "appt-1",
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), "14:00", "16:00", change, record)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRescheduled, appt.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
