package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bengkelin/booking-api/internal/service"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/response"
)

// AvailabilityHandler serves slot grids and availability queries.
type AvailabilityHandler struct {
	scheduler *service.SchedulerService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(scheduler *service.SchedulerService) *AvailabilityHandler {
	return &AvailabilityHandler{scheduler: scheduler}
}

// GetAvailability godoc
// @Summary Get a workshop's availability grid
// @Tags Availability
// @Produce json
// @Param id path string true "Workshop ID"
// @Param start_date query string false "Start date (YYYY-MM-DD), defaults to today"
// @Param end_date query string false "End date (YYYY-MM-DD), defaults to start date"
// @Param slot_duration query number false "Slot duration in hours"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/availability [get]
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
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
	slotDuration, _ := strconv.ParseFloat(c.DefaultQuery("slot_duration", "0"), 64)

	reports, err := h.scheduler.GetWorkshopAvailability(c.Request.Context(), c.Param("id"), start, end, slotDuration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// NextSlots godoc
// @Summary Get the next open slots for a workshop
// @Tags Availability
// @Produce json
// @Param id path string true "Workshop ID"
// @Param duration query number false "Required duration in hours"
// @Param days query int false "Lookahead window in days"
// @Param count query int false "Number of slots wanted"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/availability/next [get]
func (h *AvailabilityHandler) NextSlots(c *gin.Context) {
	duration, _ := strconv.ParseFloat(c.DefaultQuery("duration", "0"), 64)
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	count, _ := strconv.Atoi(c.DefaultQuery("count", "0"))

	slots, err := h.scheduler.GetNextAvailableSlots(c.Request.Context(), c.Param("id"), duration, days, count)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CheckSlot godoc
// @Summary Check whether one candidate slot is bookable
// @Tags Availability
// @Produce json
// @Param id path string true "Workshop ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start time (HH:MM)"
// @Param duration query number true "Duration in hours"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/availability/check [get]
func (h *AvailabilityHandler) CheckSlot(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
		return
	}
	duration, err := strconv.ParseFloat(c.Query("duration"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid duration"))
		return
	}

	result, err := h.scheduler.IsTimeSlotAvailable(c.Request.Context(), c.Param("id"), date, c.Query("start_time"), duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

type optimalSlotsRequest struct {
	Duration        float64             `json:"duration"`
	PreferredDates  []string            `json:"preferred_dates" binding:"required,min=1"`
	PreferredRanges []service.TimeRange `json:"preferred_ranges"`
	MaxAlternatives int                 `json:"max_alternatives"`
}

// OptimalSlots godoc
// @Summary Find slots matching the caller's preferred dates and times
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body optimalSlotsRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/availability/optimal [post]
func (h *AvailabilityHandler) OptimalSlots(c *gin.Context) {
	var req optimalSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	dates := make([]time.Time, 0, len(req.PreferredDates))
	for _, raw := range req.PreferredDates {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid preferred date, expected YYYY-MM-DD"))
			return
		}
		dates = append(dates, parsed)
	}

	result, err := h.scheduler.FindOptimalSlots(c.Request.Context(), c.Param("id"), req.Duration, dates, req.PreferredRanges, req.MaxAlternatives)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CurrentStatus godoc
// @Summary Get a workshop's live status
// @Tags Availability
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/status [get]
func (h *AvailabilityHandler) CurrentStatus(c *gin.Context) {
	status, err := h.scheduler.GetWorkshopCurrentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

type compareRequest struct {
	WorkshopIDs   []string `json:"workshop_ids" binding:"required,min=1"`
	Duration      float64  `json:"duration"`
	PreferredDate *string  `json:"preferred_date"`
	DaysToCheck   int      `json:"days_to_check"`
}

// Compare godoc
// @Summary Rank workshops by how soon they can take a job
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body compareRequest true "Comparison request"
// @Success 200 {object} response.Envelope
// @Router /workshops/compare [post]
func (h *AvailabilityHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	var preferred *time.Time
	if req.PreferredDate != nil {
		parsed, err := time.Parse(dateLayout, *req.PreferredDate)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid preferred_date, expected YYYY-MM-DD"))
			return
		}
		preferred = &parsed
	}

	comparisons, err := h.scheduler.CompareWorkshopAvailability(c.Request.Context(), req.WorkshopIDs, req.Duration, preferred, req.DaysToCheck)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comparisons, nil)
}

type estimateRequest struct {
	ServiceTypes []string `json:"service_types" binding:"required,min=1"`
}

// Estimate godoc
// @Summary Estimate total service duration for a set of service types
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body estimateRequest true "Service types"
// @Success 200 {object} response.Envelope
// @Router /services/estimate [post]
func (h *AvailabilityHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hours := h.scheduler.EstimateServiceDuration(req.ServiceTypes)
	response.JSON(c, http.StatusOK, gin.H{"estimated_duration": hours}, nil)
}
