package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/internal/technicians/domain"
	"repair_backend/platform/apperr"
	"repair_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const technicianNotFoundMsg = "technician not found"

const (
	userIDConstraint = "technicians_user_id_key"
)

// Repository provides database operations for the technician directory.
type Repository struct {
	pool     *pgxpool.Pool
	calendar *calendar.Store
}

// New creates a new technicians repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, calendar: calendar.NewStore(pool)}
}

// selectTechnician reads every column plus the derived availability flag.
// $1 is the first calendar day that counts towards availability.
var selectTechnician = `
	SELECT t.id, t.user_id, t.name, t.email, t.phone, t.specialties, t.rating,
		t.region, t.city, t.commune, ` + calendar.HasOpenSlotSQL("$1") + ` AS is_available,
		t.created_at, t.updated_at
	FROM technicians t`

func scanTechnician(row pgx.Row) (domain.Technician, error) {
	var t domain.Technician
	var specialties []string
	err := row.Scan(
		&t.ID, &t.UserID, &t.Contact.Name, &t.Contact.Email, &t.Contact.Phone, &specialties, &t.Rating,
		&t.Location.Region, &t.Location.City, &t.Location.Commune, &t.IsAvailable,
		&t.CreatedAt, &t.UpdatedAt,
	)
	t.Specialties = domain.SpecialtiesFromStrings(specialties)
	return t, err
}

// GetByID loads a technician with availability derived from today onwards.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, today time.Time) (domain.Technician, error) {
	t, err := scanTechnician(r.pool.QueryRow(ctx, selectTechnician+` WHERE t.id = $2`, today, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Technician{}, apperr.NotFound(technicianNotFoundMsg)
		}
		return domain.Technician{}, fmt.Errorf("failed to get technician: %w", err)
	}
	return t, nil
}

// GetByUserID loads the technician linked to a login account.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID, today time.Time) (domain.Technician, error) {
	t, err := scanTechnician(r.pool.QueryRow(ctx, selectTechnician+` WHERE t.user_id = $2`, today, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Technician{}, apperr.NotFound(technicianNotFoundMsg)
		}
		return domain.Technician{}, fmt.Errorf("failed to get technician by user: %w", err)
	}
	return t, nil
}

// ListAvailable returns every technician with at least one open slot on or
// after today, oldest first. The order is the matcher's tie-break order.
func (r *Repository) ListAvailable(ctx context.Context, today time.Time) ([]domain.Technician, error) {
	rows, err := r.pool.Query(ctx, selectTechnician+`
		WHERE `+calendar.HasOpenSlotSQL("$1")+`
		ORDER BY t.created_at, t.id`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list available technicians: %w", err)
	}
	defer rows.Close()

	technicians := make([]domain.Technician, 0)
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		technicians = append(technicians, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate technicians: %w", err)
	}
	return technicians, nil
}

// Create inserts a technician.
func (r *Repository) Create(ctx context.Context, t domain.Technician) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO technicians (
			id, user_id, name, email, phone, specialties, rating, region, city, commune, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.Contact.Name, t.Contact.Email, t.Contact.Phone, domain.SpecialtyStrings(t.Specialties),
		t.Rating, t.Location.Region, t.Location.City, t.Location.Commune, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err, userIDConstraint) {
			return apperr.Conflict("user is already linked to a technician")
		}
		return fmt.Errorf("failed to create technician: %w", err)
	}
	return nil
}

// OpenSlots marks slots open for a day.
func (r *Repository) OpenSlots(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []calendar.TimeSlot) (*calendar.Record, error) {
	return r.calendar.Open(ctx, technicianID, day, slots)
}

// CloseSlots removes slots from a day.
func (r *Repository) CloseSlots(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []calendar.TimeSlot) (*calendar.Record, error) {
	return r.calendar.Close(ctx, technicianID, day, slots)
}

// ListAvailability returns the calendar records between from and to inclusive.
func (r *Repository) ListAvailability(ctx context.Context, technicianID uuid.UUID, from, to time.Time) ([]calendar.Record, error) {
	return r.calendar.List(ctx, technicianID, from, to)
}
