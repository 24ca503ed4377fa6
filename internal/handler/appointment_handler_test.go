package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func patchContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/appointments/appt-1", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "appt-1"}}
	return c, rec
}

func TestPatchRequiresAction(t *testing.T) {
	h := NewAppointmentHandler(nil, nil)
	c, rec := patchContext(t, `{"status": "confirmed"}`)

	h.Patch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchRejectsUnknownAction(t *testing.T) {
	h := NewAppointmentHandler(nil, nil)
	c, rec := patchContext(t, `{"action": "teleport"}`)

	h.Patch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown action")
}

func TestPatchNotesRequiresNotesField(t *testing.T) {
	h := NewAppointmentHandler(nil, nil)
	c, rec := patchContext(t, `{"action": "notes"}`)

	h.Patch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	h := NewAppointmentHandler(nil, nil)
	c, rec := postContext(t, "/appointments", `{"quotation_id": `)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportScheduleRejectsBadDates(t *testing.T) {
	h := NewAppointmentHandler(nil, nil)
	c, rec := getContext(t, "/workshops/ws-1/schedule/export?start_date=soon")
	c.Params = gin.Params{{Key: "id", Value: "ws-1"}}

	h.ExportSchedule(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationListRequiresClaims(t *testing.T) {
	h := NewNotificationHandler(nil)
	c, rec := getContext(t, "/notifications")

	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
