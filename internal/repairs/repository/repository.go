package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/internal/repairs/domain"
	"repair_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repairNotFoundMsg = "repair request not found"

// Repository provides database operations for repair requests
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new repairs repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const repairColumns = `id, user_id, device_type, device_brand, device_model, issue_description,
	urgency_level, estimated_cost, actual_cost, status, technician_id, appointment_id,
	contact_email, contact_phone, created_at, updated_at`

func scanRepair(row pgx.Row) (domain.RepairRequest, error) {
	var r domain.RepairRequest
	var urgency, status string
	err := row.Scan(
		&r.ID, &r.UserID, &r.Device.Type, &r.Device.Brand, &r.Device.Model, &r.IssueDescription,
		&urgency, &r.EstimatedCost, &r.ActualCost, &status, &r.TechnicianID, &r.AppointmentID,
		&r.ContactEmail, &r.ContactPhone, &r.CreatedAt, &r.UpdatedAt,
	)
	r.Urgency = domain.Urgency(urgency)
	r.Status = domain.Status(status)
	return r, err
}

// Create inserts a pending repair request together with its outbox event.
func (r *Repository) Create(ctx context.Context, req domain.RepairRequest, evt outbox.Event) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO repair_requests (
			id, user_id, device_type, device_brand, device_model, issue_description,
			urgency_level, estimated_cost, status, contact_email, contact_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		req.ID, req.UserID, req.Device.Type, req.Device.Brand, req.Device.Model, req.IssueDescription,
		string(req.Urgency), req.EstimatedCost, string(req.Status), req.ContactEmail, req.ContactPhone,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create repair request: %w", err)
	}
	if err = outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit repair request: %w", err)
	}
	return nil
}

// GetByID retrieves a repair request by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.RepairRequest, error) {
	req, err := scanRepair(r.pool.QueryRow(ctx, `SELECT `+repairColumns+` FROM repair_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RepairRequest{}, apperr.NotFound(repairNotFoundMsg)
		}
		return domain.RepairRequest{}, fmt.Errorf("failed to get repair request: %w", err)
	}
	return req, nil
}

// ListByUser returns a page of the user's repair requests, newest first, and the total count.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.RepairRequest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM repair_requests WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count repair requests: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+repairColumns+` FROM repair_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list repair requests: %w", err)
	}
	defer rows.Close()

	items := make([]domain.RepairRequest, 0)
	for rows.Next() {
		req, err := scanRepair(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan repair request: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate repair requests: %w", err)
	}
	return items, total, nil
}

// StatusUpdate describes one lifecycle move applied atomically.
type StatusUpdate struct {
	ID   uuid.UUID
	From domain.Status
	To   domain.Status
	// TechnicianID, when set, must be the assigned technician.
	TechnicianID *uuid.UUID
	ActualCost   *int64
	// AppointmentStatus is written to the linked appointment when non-empty.
	AppointmentStatus string
	// Release cancels the linked appointment and clears the assignment.
	// ReopenSlot also puts its slot back on the technician's calendar.
	Release    bool
	ReopenSlot bool
	Reason     *string
	Event      outbox.Event
}

// ReleasedAppointment identifies an appointment cancelled by a status update.
type ReleasedAppointment struct {
	ID            uuid.UUID
	TechnicianID  uuid.UUID
	UserID        uuid.UUID
	ScheduledDate time.Time
	TimeSlot      calendar.TimeSlot
}

// StatusResult is the outcome of ApplyStatus.
type StatusResult struct {
	Repair   domain.RepairRequest
	Released *ReleasedAppointment
	// Cancelled is the event written to the outbox for Released.
	Cancelled *events.AppointmentCancelled
}

// ApplyStatus moves a repair request from u.From to u.To in one transaction.
// The row is locked and compared with u.From first, so a concurrent writer
// that already moved the request makes this call fail with InvalidState.
func (r *Repository) ApplyStatus(ctx context.Context, u StatusUpdate) (result *StatusResult, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var appointmentID, technicianID *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT appointment_id, technician_id FROM repair_requests
		WHERE id = $1 AND status = $2
		FOR UPDATE`, u.ID, string(u.From),
	).Scan(&appointmentID, &technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.InvalidState("repair request status changed, reload and retry")
		}
		return nil, fmt.Errorf("failed to lock repair request: %w", err)
	}
	if u.TechnicianID != nil && (technicianID == nil || *technicianID != *u.TechnicianID) {
		return nil, apperr.Unauthorized("repair request is not assigned to this technician")
	}

	result = &StatusResult{}
	if appointmentID != nil {
		switch {
		case u.Release:
			result.Released, err = releaseAppointment(ctx, tx, *appointmentID, u.Reason, u.ReopenSlot)
			if err != nil {
				return nil, err
			}
		case u.AppointmentStatus != "":
			_, err = tx.Exec(ctx, `
				UPDATE appointments SET status = $2, updated_at = now()
				WHERE id = $1 AND status NOT IN ('cancelled', 'completed')`,
				*appointmentID, u.AppointmentStatus)
			if err != nil {
				return nil, fmt.Errorf("failed to update appointment status: %w", err)
			}
		}
	}

	result.Repair, err = scanRepair(tx.QueryRow(ctx, `
		UPDATE repair_requests SET
			status = $2,
			actual_cost = COALESCE($3, actual_cost),
			technician_id = CASE WHEN $4 THEN NULL ELSE technician_id END,
			appointment_id = CASE WHEN $4 THEN NULL ELSE appointment_id END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+repairColumns,
		u.ID, string(u.To), u.ActualCost, u.Release,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update repair request status: %w", err)
	}

	if err = outbox.Insert(ctx, tx, u.Event); err != nil {
		return nil, err
	}
	if result.Released != nil {
		if result.Cancelled, err = insertCancelledEvent(ctx, tx, u.ID, result.Released, u.Reason); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return result, nil
}

// releaseAppointment cancels an active appointment and, when reopen is set,
// reopens its slot. Returns nil when the appointment is no longer active.
func releaseAppointment(ctx context.Context, tx pgx.Tx, appointmentID uuid.UUID, reason *string, reopen bool) (*ReleasedAppointment, error) {
	released := ReleasedAppointment{ID: appointmentID}
	var slot string
	err := tx.QueryRow(ctx, `
		UPDATE appointments SET
			status = 'cancelled', cancellation_reason = $2, cancelled_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')
		RETURNING technician_id, user_id, scheduled_date, time_slot`,
		appointmentID, reason,
	).Scan(&released.TechnicianID, &released.UserID, &released.ScheduledDate, &slot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to cancel linked appointment: %w", err)
	}
	released.TimeSlot = calendar.TimeSlot(slot)
	if !reopen {
		return &released, nil
	}

	if err := calendar.NewStore(tx).Reopen(ctx, released.TechnicianID, released.ScheduledDate, released.TimeSlot); err != nil {
		return nil, err
	}
	return &released, nil
}

func insertCancelledEvent(ctx context.Context, tx pgx.Tx, repairID uuid.UUID, rel *ReleasedAppointment, reason *string) (*events.AppointmentCancelled, error) {
	evt := events.AppointmentCancelled{
		BaseEvent:       events.NewBaseEvent(),
		AppointmentID:   rel.ID,
		RepairRequestID: repairID,
		TechnicianID:    rel.TechnicianID,
		UserID:          rel.UserID,
		ScheduledDate:   calendar.FormatDate(rel.ScheduledDate),
		TimeSlot:        string(rel.TimeSlot),
	}
	if reason != nil {
		evt.Reason = *reason
	}
	env, err := outbox.FromDomain(outbox.AggregateAppointment, rel.ID.String(), evt)
	if err != nil {
		return nil, err
	}
	if err := outbox.Insert(ctx, tx, env); err != nil {
		return nil, err
	}
	return &evt, nil
}

// CreateEstimate stores an estimate and copies its upper bound to the
// request's estimated cost.
func (r *Repository) CreateEstimate(ctx context.Context, est domain.Estimate) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO repair_estimates (id, repair_request_id, device_type, issue_type, min_cost, max_cost, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		est.ID, est.RepairRequestID, est.DeviceType, est.IssueType, est.MinCost, est.MaxCost, est.Currency, est.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create estimate: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE repair_requests SET estimated_cost = $2, updated_at = now() WHERE id = $1`,
		est.RepairRequestID, est.MaxCost)
	if err != nil {
		return fmt.Errorf("failed to update estimated cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(repairNotFoundMsg)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit estimate: %w", err)
	}
	return nil
}

// ListEstimates returns the estimates of a repair request, newest first.
func (r *Repository) ListEstimates(ctx context.Context, repairID uuid.UUID) ([]domain.Estimate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, repair_request_id, device_type, issue_type, min_cost, max_cost, currency, created_at
		FROM repair_estimates WHERE repair_request_id = $1
		ORDER BY created_at DESC`, repairID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Estimate, 0)
	for rows.Next() {
		var e domain.Estimate
		if err := rows.Scan(&e.ID, &e.RepairRequestID, &e.DeviceType, &e.IssueType, &e.MinCost, &e.MaxCost, &e.Currency, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}
	return items, nil
}

// CreatePhoto records an uploaded photo.
func (r *Repository) CreatePhoto(ctx context.Context, p domain.Photo) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO repair_photos (id, repair_request_id, file_key, file_name, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.RepairRequestID, p.FileKey, p.FileName, p.ContentType, p.SizeBytes, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create repair photo: %w", err)
	}
	return nil
}

// ListPhotos returns the photos of a repair request in upload order.
func (r *Repository) ListPhotos(ctx context.Context, repairID uuid.UUID) ([]domain.Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, repair_request_id, file_key, file_name, content_type, size_bytes, created_at
		FROM repair_photos WHERE repair_request_id = $1
		ORDER BY created_at`, repairID)
	if err != nil {
		return nil, fmt.Errorf("failed to list repair photos: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Photo, 0)
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.RepairRequestID, &p.FileKey, &p.FileName, &p.ContentType, &p.SizeBytes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repair photo: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repair photos: %w", err)
	}
	return items, nil
}

// ActiveAppointmentSlot returns the day and slot of an appointment that is
// still scheduled or confirmed. ok is false for any other appointment.
func (r *Repository) ActiveAppointmentSlot(ctx context.Context, appointmentID uuid.UUID) (day time.Time, slot calendar.TimeSlot, ok bool, err error) {
	var raw string
	err = r.pool.QueryRow(ctx, `
		SELECT scheduled_date, time_slot FROM appointments
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')`, appointmentID,
	).Scan(&day, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, "", false, nil
		}
		return time.Time{}, "", false, fmt.Errorf("failed to get appointment slot: %w", err)
	}
	return day, calendar.TimeSlot(raw), true, nil
}
