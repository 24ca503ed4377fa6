package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bengkelin/booking-api/internal/models"
	appErrors "github.com/bengkelin/booking-api/pkg/errors"
	"github.com/bengkelin/booking-api/pkg/timegrid"
)

type workshopStore interface {
	GetByID(ctx context.Context, id string) (*models.Workshop, error)
	FindByOwnerKey(ctx context.Context, key string) (*models.Workshop, error)
	List(ctx context.Context) ([]models.Workshop, error)
	Create(ctx context.Context, workshop *models.Workshop) error
	UpdateOperatingHours(ctx context.Context, id string, hours models.OperatingHours) error
}

type availabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, workshopID string)
}

// WorkshopService manages workshop records and their operating hours.
type WorkshopService struct {
	repo      workshopStore
	scheduler availabilityInvalidator
}

// NewWorkshopService constructs the service.
func NewWorkshopService(repo workshopStore, scheduler availabilityInvalidator) *WorkshopService {
	return &WorkshopService{repo: repo, scheduler: scheduler}
}

// List returns every registered workshop.
func (s *WorkshopService) List(ctx context.Context) ([]models.Workshop, error) {
	workshops, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshops")
	}
	return workshops, nil
}

// Get loads one workshop by id, falling back to the historical owner keys.
func (s *WorkshopService) Get(ctx context.Context, id string) (*models.Workshop, error) {
	workshop, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return workshop, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	workshop, err = s.repo.FindByOwnerKey(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	return workshop, nil
}

// CreateWorkshopRequest registers a new workshop.
type CreateWorkshopRequest struct {
	OwnerUserID  string                `json:"owner_user_id" validate:"required"`
	ProfileID    *string               `json:"profile_id"`
	Name         string                `json:"name" validate:"required"`
	Hours        models.OperatingHours `json:"operating_hours"`
	ServiceTypes []string              `json:"service_types"`
}

// Create registers a workshop. Missing hours fall back to the default
// schedule at availability time, so they are stored as given.
func (s *WorkshopService) Create(ctx context.Context, req CreateWorkshopRequest) (*models.Workshop, error) {
	if req.OwnerUserID == "" || req.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner_user_id and name are required")
	}
	if errs := validateHours(req.Hours); len(errs) > 0 {
		return nil, appErrors.Validation("invalid operating hours", errs)
	}

	workshop := &models.Workshop{
		OwnerUserID:    req.OwnerUserID,
		ProfileID:      req.ProfileID,
		Name:           req.Name,
		OperatingHours: req.Hours,
		ServiceTypes:   req.ServiceTypes,
	}
	if err := s.repo.Create(ctx, workshop); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop")
	}
	return workshop, nil
}

// UpdateOperatingHours replaces a workshop's weekly schedule and drops its
// cached availability.
func (s *WorkshopService) UpdateOperatingHours(ctx context.Context, id string, hours models.OperatingHours, claims *models.JWTClaims) (*models.Workshop, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	workshop, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin && workshop.OwnerUserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only the workshop owner can change operating hours")
	}
	if errs := validateHours(hours); len(errs) > 0 {
		return nil, appErrors.Validation("invalid operating hours", errs)
	}

	if err := s.repo.UpdateOperatingHours(ctx, workshop.ID, hours); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update operating hours")
	}
	workshop.OperatingHours = hours
	if s.scheduler != nil {
		s.scheduler.InvalidateAvailability(ctx, workshop.ID)
	}
	return workshop, nil
}

// validateHours checks every configured day window; problems are collected,
// not short-circuited.
func validateHours(hours models.OperatingHours) []string {
	var errs []string
	for day, window := range hours {
		if window.Closed {
			continue
		}
		openOK := timegrid.Valid(window.Open)
		closeOK := timegrid.Valid(window.Close)
		if !openOK || !closeOK {
			errs = append(errs, fmt.Sprintf("%s: open and close must be HH:MM times", day))
			continue
		}
		open, _ := timegrid.ToMinutes(window.Open)
		closing, _ := timegrid.ToMinutes(window.Close)
		if open >= closing {
			errs = append(errs, fmt.Sprintf("%s: open time must precede close time", day))
		}
	}
	return errs
}
