package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/calendar"
	"repair_backend/internal/outbox"
	"repair_backend/platform/apperr"
	"repair_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	appointmentNotFoundMsg = "appointment not found"
	slotTakenMsg           = "slot taken"
	activeSlotConstraint   = "appointments_active_slot_key"
)

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `id, repair_request_id, technician_id, user_id, scheduled_date, time_slot,
	address, notes, status, cancellation_reason, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var a domain.Appointment
	var slot, status string
	err := row.Scan(
		&a.ID, &a.RepairRequestID, &a.TechnicianID, &a.UserID, &a.ScheduledDate, &slot,
		&a.Address, &a.Notes, &status, &a.CancellationReason, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt,
	)
	a.TimeSlot = calendar.TimeSlot(slot)
	a.Status = domain.Status(status)
	return a, err
}

// GetByID retrieves an appointment by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Appointment{}, apperr.NotFound(appointmentNotFoundMsg)
		}
		return domain.Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// ListFilter narrows a user's appointment listing.
type ListFilter struct {
	UserID uuid.UUID
	Status *domain.Status
	Limit  int
	Offset int
}

// ListByUser returns a page of the user's appointments, latest visit first, and the total count.
func (r *Repository) ListByUser(ctx context.Context, f ListFilter) ([]domain.Appointment, int, error) {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)`,
		f.UserID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY scheduled_date DESC, time_slot DESC, id
		LIMIT $3 OFFSET $4`,
		f.UserID, status, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	items, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByTechnician returns the technician's active appointments between from and to inclusive.
func (r *Repository) ListByTechnician(ctx context.Context, technicianID uuid.UUID, from, to time.Time) ([]domain.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE technician_id = $1 AND scheduled_date BETWEEN $2 AND $3 AND status <> 'cancelled'
		ORDER BY scheduled_date, time_slot`,
		technicianID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list technician appointments: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	defer rows.Close()

	items := make([]domain.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return items, nil
}

// SlotTaken reports whether the slot triple already backs an active
// appointment, or was closed by the technician on an existing calendar day.
func (r *Repository) SlotTaken(ctx context.Context, technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE technician_id = $1 AND scheduled_date = $2 AND time_slot = $3 AND status <> 'cancelled'
		) OR EXISTS (
			SELECT 1 FROM technician_availability
			WHERE technician_id = $1 AND date = $2 AND NOT ($3 = ANY(open_slots))
		)`,
		technicianID, day, string(slot),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check slot availability: %w", err)
	}
	return taken, nil
}

// Book inserts appt, confirms its pending repair request and consumes the
// calendar slot in one transaction. Losing a race for the slot triple
// returns Conflict; a repair request that left pending returns InvalidState.
func (r *Repository) Book(ctx context.Context, appt domain.Appointment, evt outbox.Event) (booked domain.Appointment, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	booked, err = insertAppointment(ctx, tx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE repair_requests SET
			status = 'confirmed', technician_id = $2, appointment_id = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		appt.RepairRequestID, appt.TechnicianID, appt.ID,
	)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to confirm repair request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Appointment{}, apperr.InvalidState("repair request is no longer pending")
	}

	if err = calendar.NewStore(tx).Consume(ctx, appt.TechnicianID, appt.ScheduledDate, appt.TimeSlot); err != nil {
		return domain.Appointment{}, err
	}
	if err = outbox.Insert(ctx, tx, evt); err != nil {
		return domain.Appointment{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booked, nil
}

// Release cancels an active appointment, reverts its confirmed repair
// request to pending and reopens the slot in one transaction. A concurrent
// cancellation or a repair already in progress returns InvalidState.
func (r *Repository) Release(ctx context.Context, id uuid.UUID, reason *string, evt outbox.Event) (cancelled domain.Appointment, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	cancelled, err = cancelAppointment(ctx, tx, id, reason)
	if err != nil {
		return domain.Appointment{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE repair_requests SET
			status = 'pending', technician_id = NULL, appointment_id = NULL, updated_at = now()
		WHERE id = $1 AND appointment_id = $2 AND status = 'confirmed'`,
		cancelled.RepairRequestID, cancelled.ID,
	)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to revert repair request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Appointment{}, apperr.InvalidState("repair request is no longer confirmed")
	}

	if err = calendar.NewStore(tx).Reopen(ctx, cancelled.TechnicianID, cancelled.ScheduledDate, cancelled.TimeSlot); err != nil {
		return domain.Appointment{}, err
	}
	if err = outbox.Insert(ctx, tx, evt); err != nil {
		return domain.Appointment{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return cancelled, nil
}

// Reschedule cancels previousID, books next in its place and repoints the
// confirmed repair request, all in one transaction.
func (r *Repository) Reschedule(ctx context.Context, previousID uuid.UUID, next domain.Appointment, evt outbox.Event) (booked domain.Appointment, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	reason := "rescheduled"
	previous, err := cancelAppointment(ctx, tx, previousID, &reason)
	if err != nil {
		return domain.Appointment{}, err
	}
	store := calendar.NewStore(tx)
	if err = store.Reopen(ctx, previous.TechnicianID, previous.ScheduledDate, previous.TimeSlot); err != nil {
		return domain.Appointment{}, err
	}

	booked, err = insertAppointment(ctx, tx, next)
	if err != nil {
		return domain.Appointment{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE repair_requests SET appointment_id = $3, technician_id = $4, updated_at = now()
		WHERE id = $1 AND appointment_id = $2 AND status = 'confirmed'`,
		next.RepairRequestID, previousID, next.ID, next.TechnicianID,
	)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to repoint repair request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Appointment{}, apperr.InvalidState("repair request is no longer confirmed")
	}

	if err = store.Consume(ctx, next.TechnicianID, next.ScheduledDate, next.TimeSlot); err != nil {
		return domain.Appointment{}, err
	}
	if err = outbox.Insert(ctx, tx, evt); err != nil {
		return domain.Appointment{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return booked, nil
}

func insertAppointment(ctx context.Context, q db.DBTX, appt domain.Appointment) (domain.Appointment, error) {
	booked, err := scanAppointment(q.QueryRow(ctx, `
		INSERT INTO appointments (
			id, repair_request_id, technician_id, user_id, scheduled_date, time_slot,
			address, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+appointmentColumns,
		appt.ID, appt.RepairRequestID, appt.TechnicianID, appt.UserID, appt.ScheduledDate,
		string(appt.TimeSlot), appt.Address, appt.Notes, string(appt.Status), appt.CreatedAt,
	))
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotConstraint) {
			return domain.Appointment{}, apperr.Conflict(slotTakenMsg)
		}
		return domain.Appointment{}, fmt.Errorf("failed to create appointment: %w", err)
	}
	return booked, nil
}

// cancelAppointment flips an active appointment to cancelled. The status
// guard in the WHERE clause makes a second cancellation fail.
func cancelAppointment(ctx context.Context, q db.DBTX, id uuid.UUID, reason *string) (domain.Appointment, error) {
	appt, err := scanAppointment(q.QueryRow(ctx, `
		UPDATE appointments SET
			status = 'cancelled', cancellation_reason = $2, cancelled_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')
		RETURNING `+appointmentColumns,
		id, reason,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Appointment{}, apperr.InvalidState("appointment is no longer active")
		}
		return domain.Appointment{}, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return appt, nil
}

// GetNotificationDetails joins an appointment with its repair request and
// technician for customer messages.
func (r *Repository) GetNotificationDetails(ctx context.Context, id uuid.UUID) (domain.NotificationDetails, error) {
	var d domain.NotificationDetails
	var slot, status string
	a := &d.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.repair_request_id, a.technician_id, a.user_id, a.scheduled_date, a.time_slot,
			a.address, a.notes, a.status, a.cancellation_reason, a.cancelled_at, a.created_at, a.updated_at,
			r.contact_email, r.contact_phone, r.device_type, r.device_brand, r.device_model,
			t.name, t.phone
		FROM appointments a
		JOIN repair_requests r ON r.id = a.repair_request_id
		JOIN technicians t ON t.id = a.technician_id
		WHERE a.id = $1`, id,
	).Scan(
		&a.ID, &a.RepairRequestID, &a.TechnicianID, &a.UserID, &a.ScheduledDate, &slot,
		&a.Address, &a.Notes, &status, &a.CancellationReason, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt,
		&d.CustomerEmail, &d.CustomerPhone, &d.DeviceType, &d.DeviceBrand, &d.DeviceModel,
		&d.TechnicianName, &d.TechnicianPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotificationDetails{}, apperr.NotFound(appointmentNotFoundMsg)
		}
		return domain.NotificationDetails{}, fmt.Errorf("failed to get appointment details: %w", err)
	}
	a.TimeSlot = calendar.TimeSlot(slot)
	a.Status = domain.Status(status)
	return d, nil
}
