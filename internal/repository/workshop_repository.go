package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bengkelin/booking-api/internal/models"
)

const workshopColumns = `id, owner_user_id, profile_id, name, operating_hours, service_types, created_at, updated_at`

// WorkshopRepository persists workshop records.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs a workshop repository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// GetByID fetches a workshop by primary key.
func (r *WorkshopRepository) GetByID(ctx context.Context, id string) (*models.Workshop, error) {
	query := fmt.Sprintf(`SELECT %s FROM workshops WHERE id = $1`, workshopColumns)
	var workshop models.Workshop
	if err := r.db.GetContext(ctx, &workshop, query, id); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// FindByOwnerKey resolves a workshop by its owning-user identity, falling
// back to the profile identity. Historical records use either key, so both
// must be tried before reporting absence.
func (r *WorkshopRepository) FindByOwnerKey(ctx context.Context, key string) (*models.Workshop, error) {
	byOwner := fmt.Sprintf(`SELECT %s FROM workshops WHERE owner_user_id = $1`, workshopColumns)
	var workshop models.Workshop
	err := r.db.GetContext(ctx, &workshop, byOwner, key)
	if err == nil {
		return &workshop, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	byProfile := fmt.Sprintf(`SELECT %s FROM workshops WHERE profile_id = $1`, workshopColumns)
	if err := r.db.GetContext(ctx, &workshop, byProfile, key); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// List returns all workshops ordered by name.
func (r *WorkshopRepository) List(ctx context.Context) ([]models.Workshop, error) {
	query := fmt.Sprintf(`SELECT %s FROM workshops ORDER BY name ASC`, workshopColumns)
	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query); err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	return workshops, nil
}

// Create inserts a workshop.
func (r *WorkshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	if workshop.ID == "" {
		workshop.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workshop.CreatedAt.IsZero() {
		workshop.CreatedAt = now
	}
	workshop.UpdatedAt = now
	query := `INSERT INTO workshops (id, owner_user_id, profile_id, name, operating_hours, service_types, created_at, updated_at)
VALUES (:id, :owner_user_id, :profile_id, :name, :operating_hours, :service_types, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workshop); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}
	return nil
}

// UpdateOperatingHours replaces a workshop's configured hours.
func (r *WorkshopRepository) UpdateOperatingHours(ctx context.Context, id string, hours models.OperatingHours) error {
	query := `UPDATE workshops SET operating_hours = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, hours, time.Now().UTC()); err != nil {
		return fmt.Errorf("update operating hours: %w", err)
	}
	return nil
}
