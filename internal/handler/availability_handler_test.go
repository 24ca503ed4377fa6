package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func getContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func postContext(t *testing.T, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestGetAvailabilityRejectsBadStartDate(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := getContext(t, "/workshops/ws-1/availability?start_date=not-a-date")

	h.GetAvailability(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAvailabilityRejectsBadEndDate(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := getContext(t, "/workshops/ws-1/availability?start_date=2025-06-02&end_date=junk")

	h.GetAvailability(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckSlotRejectsMissingDate(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := getContext(t, "/workshops/ws-1/availability/check?start_time=10:00&duration=2")

	h.CheckSlot(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckSlotRejectsBadDuration(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := getContext(t, "/workshops/ws-1/availability/check?date=2025-06-02&start_time=10:00&duration=lots")

	h.CheckSlot(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimalSlotsRequiresPreferredDates(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := postContext(t, "/workshops/ws-1/availability/optimal", `{"duration": 2}`)

	h.OptimalSlots(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimalSlotsRejectsBadDate(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := postContext(t, "/workshops/ws-1/availability/optimal",
		`{"duration": 2, "preferred_dates": ["06/02/2025"]}`)

	h.OptimalSlots(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareRequiresWorkshopIDs(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := postContext(t, "/workshops/compare", `{"duration": 1}`)

	h.Compare(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareRejectsBadPreferredDate(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := postContext(t, "/workshops/compare",
		`{"workshop_ids": ["ws-1"], "preferred_date": "tomorrow"}`)

	h.Compare(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimateRequiresServiceTypes(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := postContext(t, "/services/estimate", `{}`)

	h.Estimate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
