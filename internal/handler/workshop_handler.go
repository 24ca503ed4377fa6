package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/internal/service"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/response"
)

// WorkshopHandler manages workshop endpoints.
type WorkshopHandler struct {
	workshops *service.WorkshopService
}

// NewWorkshopHandler constructs handler.
func NewWorkshopHandler(workshops *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{workshops: workshops}
}

// List godoc
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workshops [get]
func (h *WorkshopHandler) List(c *gin.Context) {
	workshops, err := h.workshops.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshops, nil)
}

// Get godoc
// @Summary Get one workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [get]
func (h *WorkshopHandler) Get(c *gin.Context) {
	workshop, err := h.workshops.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Create godoc
// @Summary Register a workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Param payload body service.CreateWorkshopRequest true "Workshop payload"
// @Success 201 {object} response.Envelope
// @Router /workshops [post]
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req service.CreateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.workshops.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workshop)
}

type operatingHoursRequest struct {
	OperatingHours models.OperatingHours `json:"operating_hours" binding:"required"`
}

// UpdateOperatingHours godoc
// @Summary Replace a workshop's weekly operating hours
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body operatingHoursRequest true "New weekly schedule"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/operating-hours [put]
func (h *WorkshopHandler) UpdateOperatingHours(c *gin.Context) {
	var req operatingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.workshops.UpdateOperatingHours(c.Request.Context(), c.Param("id"), req.OperatingHours, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}
