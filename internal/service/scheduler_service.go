package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bengkelin/booking-api/internal/availability"
	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/pkg/config"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/timegrid"
)

const dateLayout = "2006-01-02"

type workshopFinder interface {
	GetByID(ctx context.Context, id string) (*models.Workshop, error)
	FindByOwnerKey(ctx context.Context, key string) (*models.Workshop, error)
}

type appointmentReader interface {
	FindForWorkshopDay(ctx context.Context, workshopID string, date time.Time, statusIn []models.AppointmentStatus) ([]models.Appointment, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// serviceDurations maps recognised service types to base working hours.
// Unrecognised types fall back to two hours.
var serviceDurations = map[string]float64{
	"oil_change":          1,
	"tire_replacement":    1,
	"battery_replacement": 0.5,
	"brake_service":       2,
	"ac_service":          2,
	"diagnostics":         1.5,
	"engine_repair":       4,
	"transmission_repair": 6,
	"suspension_repair":   3,
	"bodywork":            8,
	"painting":            10,
	"inspection":          1,
}

const (
	defaultServiceHours = 2.0
	durationBuffer      = 1.2
)

// SlotCheckResult answers a point query about one candidate slot. For an
// available slot ReservedEndTime is the end of the interval the booking will
// occupy on its start date. Multi-day bookings reserve only their opening
// hour, so their reserved end is start plus one hour, never a time wrapped
// past midnight.
type SlotCheckResult struct {
	Available                bool   `json:"available"`
	Reason                   string `json:"reason,omitempty"`
	ReservedEndTime          string `json:"reserved_end_time,omitempty"`
	ConflictingAppointmentID string `json:"conflicting_appointment_id,omitempty"`
}

// TimeRange is a preferred time-of-day window in "HH:MM" form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OptimalSlots partitions candidates into preferred-range matches and
// fallback alternatives.
type OptimalSlots struct {
	PreferredSlots   []models.TimeSlot `json:"preferred_slots"`
	AlternativeSlots []models.TimeSlot `json:"alternative_slots"`
}

// WorkshopStatus is the live snapshot for one workshop.
type WorkshopStatus struct {
	IsOpen             bool                `json:"is_open"`
	NextAvailableSlot  *models.TimeSlot    `json:"next_available_slot,omitempty"`
	CurrentAppointment *models.Appointment `json:"current_appointment,omitempty"`
	TodaySlots         SlotCounts          `json:"today_slots"`
}

// SlotCounts summarises a day's grid.
type SlotCounts struct {
	Available int `json:"available"`
	Booked    int `json:"booked"`
	Total     int `json:"total"`
}

// WorkshopComparison ranks one workshop's near-term availability.
type WorkshopComparison struct {
	WorkshopID          string           `json:"workshop_id"`
	WorkshopName        string           `json:"workshop_name"`
	TotalAvailableSlots int              `json:"total_available_slots"`
	FirstAvailable      *models.TimeSlot `json:"first_available,omitempty"`
	WaitDays            int              `json:"wait_days"`
}

// SchedulerService orchestrates availability computation over storage. The
// default schedule and the clock are injected so tests control both.
type SchedulerService struct {
	workshops    workshopFinder
	appointments appointmentReader
	cache        availabilityCache
	defaultHours models.OperatingHours
	cfg          config.SchedulingConfig
	metrics      *MetricsService
	now          func() time.Time
	logger       *zap.Logger
}

// NewSchedulerService constructs the scheduler.
func NewSchedulerService(workshops workshopFinder, appointments appointmentReader, cache availabilityCache,
	defaultHours models.OperatingHours, cfg config.SchedulingConfig, metrics *MetricsService,
	now func() time.Time, logger *zap.Logger) *SchedulerService {
	if defaultHours == nil {
		defaultHours = models.DefaultOperatingHours()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotDurationHours <= 0 {
		cfg.SlotDurationHours = availability.DefaultSlotHours
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 14
	}
	if cfg.SlotsNeeded <= 0 {
		cfg.SlotsNeeded = 10
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 5
	}
	return &SchedulerService{
		workshops:    workshops,
		appointments: appointments,
		cache:        cache,
		defaultHours: defaultHours,
		cfg:          cfg,
		metrics:      metrics,
		now:          now,
		logger:       logger,
	}
}

// resolveWorkshop loads the workshop by id, falling back to the historical
// owner/profile keys, and returns it with its effective operating hours.
func (s *SchedulerService) resolveWorkshop(ctx context.Context, workshopID string) (*models.Workshop, models.OperatingHours, error) {
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
		}
		workshop, err = s.workshops.FindByOwnerKey(ctx, workshopID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
		}
	}

	hours := workshop.OperatingHours
	if len(hours) == 0 {
		hours = s.defaultHours
	}
	return workshop, hours, nil
}

// GetWorkshopAvailability builds one per-day report for every calendar day
// in [startDate, endDate] inclusive. Time-of-day components of the inputs
// are ignored; iteration is at day granularity.
func (s *SchedulerService) GetWorkshopAvailability(ctx context.Context, workshopID string, startDate, endDate time.Time, slotHours float64) ([]models.WorkshopAvailability, error) {
	workshop, hours, err := s.resolveWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if slotHours <= 0 {
		slotHours = s.cfg.SlotDurationHours
	}

	var reports []models.WorkshopAvailability
	for day := dayStart(startDate); !day.After(dayStart(endDate)); day = day.AddDate(0, 0, 1) {
		report, err := s.dayReport(ctx, workshop, hours, day, slotHours)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func (s *SchedulerService) dayReport(ctx context.Context, workshop *models.Workshop, hours models.OperatingHours, day time.Time, slotHours float64) (*models.WorkshopAvailability, error) {
	cacheKey := fmt.Sprintf("availability:%s:%s:%g", workshop.ID, day.Format(dateLayout), slotHours)
	if s.cache != nil {
		var cached models.WorkshopAvailability
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("availability cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	booked, err := s.appointments.FindForWorkshopDay(ctx, workshop.ID, day, models.OccupyingStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}

	dayHours := hours.ForDate(day)
	slots := availability.ComputeSlots(dayHours, day, booked, slotHours)

	report := &models.WorkshopAvailability{
		WorkshopID:     workshop.ID,
		Date:           day.Format(dateLayout),
		OperatingHours: dayHours,
	}
	for _, slot := range slots {
		switch {
		case slot.IsAvailable:
			report.AvailableSlots = append(report.AvailableSlots, slot)
		case slot.Reason == availability.ReasonBooked:
			report.BookedSlots = append(report.BookedSlots, slot)
		default:
			report.UnavailableSlots = append(report.UnavailableSlots, slot)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

// InvalidateAvailability drops cached reports after a booking mutation.
func (s *SchedulerService) InvalidateAvailability(ctx context.Context, workshopID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("availability:%s:*", workshopID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("workshop_id", workshopID), zap.Error(err))
	}
}

// GetNextAvailableSlots scans forward day by day and returns the first
// slotsNeeded open slots in chronological order. It may return fewer than
// requested when the lookahead window is exhausted; that is not an error.
// Slots earlier than the current wall-clock time are skipped.
func (s *SchedulerService) GetNextAvailableSlots(ctx context.Context, workshopID string, requiredDuration float64, daysToLookAhead, slotsNeeded int) ([]models.TimeSlot, error) {
	workshop, hours, err := s.resolveWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if daysToLookAhead <= 0 {
		daysToLookAhead = s.cfg.LookaheadDays
	}
	if slotsNeeded <= 0 {
		slotsNeeded = s.cfg.SlotsNeeded
	}
	if requiredDuration <= 0 {
		requiredDuration = s.cfg.SlotDurationHours
	}

	now := s.now()
	today := dayStart(now)
	nowMinutes := now.Hour()*60 + now.Minute()

	slots := make([]models.TimeSlot, 0, slotsNeeded)
	for offset := 0; offset < daysToLookAhead && len(slots) < slotsNeeded; offset++ {
		day := today.AddDate(0, 0, offset)
		report, err := s.dayReport(ctx, workshop, hours, day, requiredDuration)
		if err != nil {
			return nil, err
		}
		required := requiredSlotMinutes(hours.ForDate(day), requiredDuration)
		for _, slot := range report.AvailableSlots {
			if !slotSpansDuration(slot, required) {
				continue
			}
			if offset == 0 {
				start, err := timegrid.ToMinutes(slot.StartTime)
				if err != nil || start < nowMinutes {
					continue
				}
			}
			slots = append(slots, models.TimeSlot{
				Date:      slot.Date,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Duration:  requiredDuration,
			})
			if len(slots) >= slotsNeeded {
				break
			}
		}
	}
	return slots, nil
}

// IsTimeSlotAvailable is the conflict-detection core. Services longer than
// the day's operating window are treated as multi-day: only the start time
// must fall inside the window, and conflicts are probed over a synthetic
// one-hour window at the start, which is all a multi-day booking reserves.
func (s *SchedulerService) IsTimeSlotAvailable(ctx context.Context, workshopID string, date time.Time, startTime string, duration float64) (*SlotCheckResult, error) {
	return s.IsTimeSlotAvailableExcluding(ctx, workshopID, date, startTime, duration, "")
}

// IsTimeSlotAvailableExcluding is IsTimeSlotAvailable with one appointment
// ignored during conflict detection. Reschedules pass the appointment being
// moved so its own reservation does not block the move.
func (s *SchedulerService) IsTimeSlotAvailableExcluding(ctx context.Context, workshopID string, date time.Time, startTime string, duration float64, excludeAppointmentID string) (*SlotCheckResult, error) {
	workshop, hours, err := s.resolveWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	start, err := timegrid.ToMinutes(startTime)
	if err != nil {
		return nil, appErrors.Validation("invalid start time", []string{err.Error()})
	}
	if duration <= 0 {
		return nil, appErrors.Validation("invalid duration", []string{"duration must be positive"})
	}

	dayHours := hours.ForDate(date)
	if dayHours.Closed {
		s.observeSlotCheck("closed")
		return &SlotCheckResult{
			Available: false,
			Reason:    fmt.Sprintf("workshop is closed on %s", models.WeekdayKey(date.Weekday())),
		}, nil
	}

	open, err := timegrid.ToMinutes(dayHours.Open)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed operating hours")
	}
	closing, err := timegrid.ToMinutes(dayHours.Close)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed operating hours")
	}

	dailyHours := float64(closing-open) / 60
	multiDay := duration > dailyHours

	if start < open || start >= closing {
		s.observeSlotCheck("outside_hours")
		return &SlotCheckResult{
			Available: false,
			Reason:    fmt.Sprintf("start time must be within operating hours %s-%s", dayHours.Open, dayHours.Close),
		}, nil
	}

	end := start + int(duration*60)
	if multiDay {
		// Multi-day bookings only reserve their opening hour for conflict
		// purposes; the end-of-day fit check does not apply.
		end = start + 60
	} else if end > closing {
		s.observeSlotCheck("outside_hours")
		return &SlotCheckResult{
			Available: false,
			Reason:    fmt.Sprintf("service would run past closing time; operating hours are %s-%s", dayHours.Open, dayHours.Close),
		}, nil
	}

	booked, err := s.appointments.FindForWorkshopDay(ctx, workshop.ID, dayStart(date), models.OccupyingStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	for i := range booked {
		appt := &booked[i]
		if excludeAppointmentID != "" && appt.ID == excludeAppointmentID {
			continue
		}
		apptStart, err := timegrid.ToMinutes(appt.ScheduledStartTime)
		if err != nil {
			continue
		}
		apptEnd, err := timegrid.ToMinutes(appt.ScheduledEndTime)
		if err != nil {
			continue
		}
		if timegrid.Overlaps(start, end, apptStart, apptEnd) {
			s.observeSlotCheck("conflict")
			return &SlotCheckResult{
				Available:                false,
				Reason:                   "conflicts with an existing appointment",
				ConflictingAppointmentID: appt.ID,
			}, nil
		}
	}

	s.observeSlotCheck("available")
	return &SlotCheckResult{Available: true, ReservedEndTime: timegrid.FromMinutes(end)}, nil
}

// FindOptimalSlots checks the caller's candidate dates, partitioning open
// slots into preferred-range matches and alternatives. When fewer than three
// preferred matches exist, the next seven days (minus dates already checked)
// backfill the alternatives.
func (s *SchedulerService) FindOptimalSlots(ctx context.Context, workshopID string, requiredDuration float64, preferredDates []time.Time, preferredRanges []TimeRange, maxAlternatives int) (*OptimalSlots, error) {
	workshop, hours, err := s.resolveWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if maxAlternatives <= 0 {
		maxAlternatives = s.cfg.MaxAlternatives
	}
	if requiredDuration <= 0 {
		requiredDuration = s.cfg.SlotDurationHours
	}

	checked := make(map[string]bool, len(preferredDates))
	result := &OptimalSlots{
		PreferredSlots:   []models.TimeSlot{},
		AlternativeSlots: []models.TimeSlot{},
	}

	for _, date := range preferredDates {
		day := dayStart(date)
		checked[day.Format(dateLayout)] = true
		report, err := s.dayReport(ctx, workshop, hours, day, requiredDuration)
		if err != nil {
			return nil, err
		}
		required := requiredSlotMinutes(hours.ForDate(day), requiredDuration)
		for _, slot := range report.AvailableSlots {
			if !slotSpansDuration(slot, required) {
				continue
			}
			ts := models.TimeSlot{Date: slot.Date, StartTime: slot.StartTime, EndTime: slot.EndTime, Duration: requiredDuration}
			if startsInRanges(slot.StartTime, preferredRanges) {
				result.PreferredSlots = append(result.PreferredSlots, ts)
			} else {
				result.AlternativeSlots = append(result.AlternativeSlots, ts)
			}
		}
	}

	if len(result.PreferredSlots) < 3 {
		today := dayStart(s.now())
		for offset := 0; offset < 7 && len(result.AlternativeSlots) < maxAlternatives; offset++ {
			day := today.AddDate(0, 0, offset)
			if checked[day.Format(dateLayout)] {
				continue
			}
			report, err := s.dayReport(ctx, workshop, hours, day, requiredDuration)
			if err != nil {
				return nil, err
			}
			required := requiredSlotMinutes(hours.ForDate(day), requiredDuration)
			for _, slot := range report.AvailableSlots {
				if !slotSpansDuration(slot, required) {
					continue
				}
				result.AlternativeSlots = append(result.AlternativeSlots, models.TimeSlot{
					Date: slot.Date, StartTime: slot.StartTime, EndTime: slot.EndTime, Duration: requiredDuration,
				})
				if len(result.AlternativeSlots) >= maxAlternatives {
					break
				}
			}
		}
	}

	if len(result.PreferredSlots) > maxAlternatives {
		result.PreferredSlots = result.PreferredSlots[:maxAlternatives]
	}
	if len(result.AlternativeSlots) > maxAlternatives {
		result.AlternativeSlots = result.AlternativeSlots[:maxAlternatives]
	}
	return result, nil
}

// slotSpansDuration reports whether a grid slot is at least required
// minutes wide. The grid shrinks its trailing slot to the closing time, so
// a lookahead tiled at the service duration can produce a final slot too
// narrow for the service to fit.
func slotSpansDuration(slot models.AvailabilitySlot, required int) bool {
	start, err := timegrid.ToMinutes(slot.StartTime)
	if err != nil {
		return false
	}
	end, err := timegrid.ToMinutes(slot.EndTime)
	if err != nil {
		return false
	}
	return end-start >= required
}

// requiredSlotMinutes is the slot width a service needs on a given day. A
// service longer than the day's open window runs multi-day and only needs
// its opening stretch, so the requirement caps at the window itself.
func requiredSlotMinutes(day models.DayHours, durationHours float64) int {
	required := int(durationHours * 60)
	open, openErr := timegrid.ToMinutes(day.Open)
	closing, closeErr := timegrid.ToMinutes(day.Close)
	if openErr == nil && closeErr == nil && closing > open && closing-open < required {
		required = closing - open
	}
	return required
}

func startsInRanges(startTime string, ranges []TimeRange) bool {
	start, err := timegrid.ToMinutes(startTime)
	if err != nil {
		return false
	}
	for _, r := range ranges {
		lo, err := timegrid.ToMinutes(r.Start)
		if err != nil {
			continue
		}
		hi, err := timegrid.ToMinutes(r.End)
		if err != nil {
			continue
		}
		if start >= lo && start < hi {
			return true
		}
	}
	return false
}

// GetWorkshopCurrentStatus reports whether the workshop is open right now,
// what it is working on, and where the next free slot is.
func (s *SchedulerService) GetWorkshopCurrentStatus(ctx context.Context, workshopID string) (*WorkshopStatus, error) {
	workshop, hours, err := s.resolveWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := dayStart(now)
	nowMinutes := now.Hour()*60 + now.Minute()
	dayHours := hours.ForDate(today)

	status := &WorkshopStatus{}
	if !dayHours.Closed {
		open, errOpen := timegrid.ToMinutes(dayHours.Open)
		closing, errClose := timegrid.ToMinutes(dayHours.Close)
		if errOpen == nil && errClose == nil {
			status.IsOpen = nowMinutes >= open && nowMinutes < closing
		}
	}

	report, err := s.dayReport(ctx, workshop, hours, today, s.cfg.SlotDurationHours)
	if err != nil {
		return nil, err
	}
	status.TodaySlots = SlotCounts{
		Available: len(report.AvailableSlots),
		Booked:    len(report.BookedSlots),
		Total:     len(report.AvailableSlots) + len(report.BookedSlots) + len(report.UnavailableSlots),
	}

	booked, err := s.appointments.FindForWorkshopDay(ctx, workshop.ID, today, models.OccupyingStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	for i := range booked {
		appt := &booked[i]
		start, errStart := timegrid.ToMinutes(appt.ScheduledStartTime)
		end, errEnd := timegrid.ToMinutes(appt.ScheduledEndTime)
		if errStart != nil || errEnd != nil {
			continue
		}
		if nowMinutes >= start && nowMinutes < end {
			status.CurrentAppointment = appt
			break
		}
	}

	// Prefer a later slot today; otherwise fall back to a week's lookahead.
	for _, slot := range report.AvailableSlots {
		start, err := timegrid.ToMinutes(slot.StartTime)
		if err != nil || start <= nowMinutes {
			continue
		}
		status.NextAvailableSlot = &models.TimeSlot{
			Date: slot.Date, StartTime: slot.StartTime, EndTime: slot.EndTime, Duration: s.cfg.SlotDurationHours,
		}
		break
	}
	if status.NextAvailableSlot == nil {
		upcoming, err := s.GetNextAvailableSlots(ctx, workshopID, 1, 7, 1)
		if err != nil {
			return nil, err
		}
		if len(upcoming) > 0 {
			status.NextAvailableSlot = &upcoming[0]
		}
	}

	return status, nil
}

// EstimateServiceDuration sums the table hours for the requested service
// types, inflates the total by a 20% buffer, and rounds up to the next half
// hour. The estimate feeds the UI and the multi-day threshold check; the
// caller-supplied duration stays authoritative for conflict detection.
func (s *SchedulerService) EstimateServiceDuration(serviceTypes []string) float64 {
	total := 0.0
	for _, serviceType := range serviceTypes {
		if hours, ok := serviceDurations[serviceType]; ok {
			total += hours
		} else {
			total += defaultServiceHours
		}
	}
	buffered := total * durationBuffer
	return math.Ceil(buffered*2) / 2
}

// CompareWorkshopAvailability ranks workshops by how soon they can take a
// job. Unknown workshop ids are skipped, not failed.
func (s *SchedulerService) CompareWorkshopAvailability(ctx context.Context, workshopIDs []string, requiredDuration float64, preferredDate *time.Time, daysToCheck int) ([]WorkshopComparison, error) {
	if daysToCheck <= 0 {
		daysToCheck = 7
	}
	start := dayStart(s.now())
	if preferredDate != nil {
		start = dayStart(*preferredDate)
	}
	end := start.AddDate(0, 0, daysToCheck-1)

	comparisons := make([]WorkshopComparison, 0, len(workshopIDs))
	for _, id := range workshopIDs {
		workshop, _, err := s.resolveWorkshop(ctx, id)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
				continue
			}
			return nil, err
		}

		reports, err := s.GetWorkshopAvailability(ctx, workshop.ID, start, end, requiredDuration)
		if err != nil {
			return nil, err
		}

		comparison := WorkshopComparison{WorkshopID: workshop.ID, WorkshopName: workshop.Name, WaitDays: daysToCheck}
		for dayOffset, report := range reports {
			comparison.TotalAvailableSlots += len(report.AvailableSlots)
			if comparison.FirstAvailable == nil && len(report.AvailableSlots) > 0 {
				first := report.AvailableSlots[0]
				comparison.FirstAvailable = &models.TimeSlot{
					Date: first.Date, StartTime: first.StartTime, EndTime: first.EndTime, Duration: requiredDuration,
				}
				comparison.WaitDays = dayOffset
			}
		}
		comparisons = append(comparisons, comparison)
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		if comparisons[i].WaitDays != comparisons[j].WaitDays {
			return comparisons[i].WaitDays < comparisons[j].WaitDays
		}
		return comparisons[i].TotalAvailableSlots > comparisons[j].TotalAvailableSlots
	})
	return comparisons, nil
}

func (s *SchedulerService) observeSlotCheck(result string) {
	if s.metrics != nil {
		s.metrics.RecordSlotCheck(result)
	}
}
