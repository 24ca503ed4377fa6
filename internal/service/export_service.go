package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/export"
)

type appointmentRangeReader interface {
	FindForWorkshopRange(ctx context.Context, workshopID string, start, end time.Time, statusIn []models.AppointmentStatus) ([]models.Appointment, error)
}

// ExportFile is a rendered schedule export ready for download.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

var exportHeaders = []string{"Date", "Start", "End", "Status", "Customer", "Duration (h)", "Payment"}

// ExportService renders a workshop's schedule as CSV or PDF day sheets.
type ExportService struct {
	workshops    workshopFinder
	appointments appointmentRangeReader
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
}

// NewExportService constructs the export service.
func NewExportService(workshops workshopFinder, appointments appointmentRangeReader) *ExportService {
	return &ExportService{
		workshops:    workshops,
		appointments: appointments,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
	}
}

// ExportSchedule renders every appointment of one workshop in the inclusive
// [start, end] date range. Cancelled and no-show rows are included so the
// sheet matches the audit trail, not just the working plan.
func (s *ExportService) ExportSchedule(ctx context.Context, workshopID string, start, end time.Time, format string) (*ExportFile, error) {
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	appts, err := s.appointments.FindForWorkshopRange(ctx, workshop.ID, start, end, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(appts))}
	for i := range appts {
		appt := &appts[i]
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":         appt.ScheduledDate.Format(dateLayout),
			"Start":        appt.ScheduledStartTime,
			"End":          appt.ScheduledEndTime,
			"Status":       string(appt.Status),
			"Customer":     appt.CustomerID,
			"Duration (h)": fmt.Sprintf("%g", appt.EstimatedDuration),
			"Payment":      string(appt.PaymentStatus),
		})
	}

	base := fmt.Sprintf("schedule_%s_%s_%s", workshop.ID, start.Format(dateLayout), end.Format(dateLayout))
	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Content: content, ContentType: "text/csv", Filename: base + ".csv"}, nil
	case "pdf":
		title := fmt.Sprintf("%s schedule %s to %s", workshop.Name, start.Format(dateLayout), end.Format(dateLayout))
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Content: content, ContentType: "application/pdf", Filename: base + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
