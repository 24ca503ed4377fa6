package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/internal/service"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/response"
)

// AppointmentHandler manages appointment endpoints.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	exports      *service.ExportService
}

// NewAppointmentHandler constructs handler.
func NewAppointmentHandler(appointments *service.AppointmentService, exports *service.ExportService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, exports: exports}
}

// List godoc
// @Summary List the caller's appointments
// @Tags Appointments
// @Produce json
// @Param workshop_id query string false "Filter by workshop (admin only)"
// @Param customer_id query string false "Filter by customer (admin only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	appts, pagination, err := h.appointments.List(c.Request.Context(), claimsFromContext(c),
		c.Query("workshop_id"), c.Query("customer_id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appts, pagination)
}

// Get godoc
// @Summary Get one appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appt, err := h.appointments.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Create godoc
// @Summary Book an appointment from an accepted quotation
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.CreateAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req service.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appt, err := h.appointments.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// appointmentPatchRequest is the action-dispatch payload for PATCH. The
// action field selects the mutation; the remaining fields feed it.
type appointmentPatchRequest struct {
	Action string `json:"action" binding:"required"`

	// reschedule
	NewDate      string  `json:"new_date"`
	NewStartTime string  `json:"new_start_time"`
	NewEndTime   *string `json:"new_end_time"`

	// status
	Status string `json:"status"`

	// shared by reschedule and status
	Reason string `json:"reason"`

	// notes
	Notes *string `json:"notes"`

	// service_times
	ActualStartTime *time.Time `json:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time"`
	ServiceNotes    *string    `json:"service_notes"`

	// review
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`

	// payment
	PaymentStatus string `json:"payment_status"`
}

// Patch godoc
// @Summary Mutate an appointment (reschedule, status, notes, service times, review, payment)
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body appointmentPatchRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) Patch(c *gin.Context) {
	var req appointmentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	claims := claimsFromContext(c)

	switch req.Action {
	case "reschedule":
		appt, err := h.appointments.Reschedule(ctx, id, service.RescheduleRequest{
			NewDate:      req.NewDate,
			NewStartTime: req.NewStartTime,
			NewEndTime:   req.NewEndTime,
			Reason:       req.Reason,
		}, claims)
		respond(c, appt, err)
	case "status":
		appt, err := h.appointments.ChangeStatus(ctx, id, service.StatusChangeRequest{
			Status: models.AppointmentStatus(req.Status),
			Reason: req.Reason,
			Notes:  req.Notes,
		}, claims)
		respond(c, appt, err)
	case "notes":
		if req.Notes == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "notes field is required"))
			return
		}
		appt, err := h.appointments.UpdateNotes(ctx, id, *req.Notes, claims)
		respond(c, appt, err)
	case "service_times":
		appt, err := h.appointments.RecordServiceTimes(ctx, id, service.ServiceTimesRequest{
			ActualStartTime: req.ActualStartTime,
			ActualEndTime:   req.ActualEndTime,
			ServiceNotes:    req.ServiceNotes,
		}, claims)
		respond(c, appt, err)
	case "review":
		appt, err := h.appointments.SubmitReview(ctx, id, service.ReviewRequest{
			Rating:  req.Rating,
			Comment: req.Comment,
		}, claims)
		respond(c, appt, err)
	case "payment":
		appt, err := h.appointments.UpdatePayment(ctx, id, service.PaymentRequest{
			Status: models.PaymentStatus(req.PaymentStatus),
		}, claims)
		respond(c, appt, err)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", req.Action)))
	}
}

// ExportSchedule godoc
// @Summary Download a workshop's schedule as CSV or PDF
// @Tags Appointments
// @Produce octet-stream
// @Param id path string true "Workshop ID"
// @Param start_date query string false "Start date (YYYY-MM-DD), defaults to today"
// @Param end_date query string false "End date (YYYY-MM-DD), defaults to start date"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /workshops/{id}/schedule/export [get]
func (h *AppointmentHandler) ExportSchedule(c *gin.Context) {
	today := time.Now()
	start, ok := parseDateQuery(c, "start_date", today)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start_date, expected YYYY-MM-DD"))
		return
	}
	end, ok := parseDateQuery(c, "end_date", start)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid end_date, expected YYYY-MM-DD"))
		return
	}

	file, err := h.exports.ExportSchedule(c.Request.Context(), c.Param("id"), start, end, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
