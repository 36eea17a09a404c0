package calendar

import (
	"context"
	"fmt"
	"time"

	"repair_backend/platform/apperr"
	"repair_backend/platform/db"

	"github.com/google/uuid"
)

// Record is the set of slots still open for one technician on one day.
type Record struct {
	TechnicianID uuid.UUID
	Date         time.Time
	OpenSlots    []TimeSlot
	UpdatedAt    time.Time
}

// IsOpen reports whether slot is still open in the record.
func (r Record) IsOpen(slot TimeSlot) bool {
	for _, s := range r.OpenSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Store runs the availability statements against a pool or a transaction.
// Every mutation adds or removes single slot elements; records are never
// replaced wholesale.
type Store struct {
	q db.DBTX
}

// NewStore binds the calendar statements to q.
func NewStore(q db.DBTX) *Store {
	return &Store{q: q}
}

// Consume removes slot from the technician's open set for day. An existing
// record must still have slot open, otherwise the slot was taken or closed
// since it was checked and Consume returns Conflict. A missing record is
// created empty, so booking a day never leaves other slots of it open.
func (s *Store) Consume(ctx context.Context, technicianID uuid.UUID, day time.Time, slot TimeSlot) error {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO technician_availability (technician_id, date, open_slots)
		VALUES ($1, $2, '{}')
		ON CONFLICT (technician_id, date) DO UPDATE
		SET open_slots = array_remove(technician_availability.open_slots, $3::text),
			updated_at = now()
		WHERE $3::text = ANY(technician_availability.open_slots)`,
		technicianID, day, string(slot),
	)
	if err != nil {
		return fmt.Errorf("failed to consume availability slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("slot taken")
	}
	return nil
}

// Reopen adds slot back to the technician's open set for day.
func (s *Store) Reopen(ctx context.Context, technicianID uuid.UUID, day time.Time, slot TimeSlot) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO technician_availability (technician_id, date, open_slots)
		VALUES ($1, $2, ARRAY[$3::text])
		ON CONFLICT (technician_id, date) DO UPDATE
		SET open_slots = ARRAY(
				SELECT DISTINCT s FROM unnest(array_append(technician_availability.open_slots, $3::text)) AS s ORDER BY s
			),
			updated_at = now()`,
		technicianID, day, string(slot),
	)
	if err != nil {
		return fmt.Errorf("failed to reopen availability slot: %w", err)
	}
	return nil
}

// Open marks slots as open for day, skipping any slot that still backs an
// active appointment. Returns the resulting record.
func (s *Store) Open(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []TimeSlot) (*Record, error) {
	var open []string
	var updatedAt time.Time
	err := s.q.QueryRow(ctx, `
		WITH requested AS (
			SELECT r AS slot FROM unnest($3::text[]) AS r
			WHERE NOT EXISTS (
				SELECT 1 FROM appointments ap
				WHERE ap.technician_id = $1 AND ap.scheduled_date = $2
				  AND ap.time_slot = r AND ap.status <> 'cancelled'
			)
		)
		INSERT INTO technician_availability (technician_id, date, open_slots)
		VALUES ($1, $2, ARRAY(SELECT slot FROM requested ORDER BY slot))
		ON CONFLICT (technician_id, date) DO UPDATE
		SET open_slots = ARRAY(
				SELECT DISTINCT s FROM unnest(technician_availability.open_slots || EXCLUDED.open_slots) AS s ORDER BY s
			),
			updated_at = now()
		RETURNING open_slots, updated_at`,
		technicianID, day, Strings(slots),
	).Scan(&open, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to open availability slots: %w", err)
	}
	return &Record{TechnicianID: technicianID, Date: day, OpenSlots: FromStrings(open), UpdatedAt: updatedAt}, nil
}

// Close removes slots from the open set for day. Slots that are not open are ignored.
func (s *Store) Close(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []TimeSlot) (*Record, error) {
	var open []string
	var updatedAt time.Time
	err := s.q.QueryRow(ctx, `
		INSERT INTO technician_availability (technician_id, date, open_slots)
		VALUES ($1, $2, '{}')
		ON CONFLICT (technician_id, date) DO UPDATE
		SET open_slots = ARRAY(
				SELECT s FROM unnest(technician_availability.open_slots) AS s
				WHERE s <> ALL($3::text[]) ORDER BY s
			),
			updated_at = now()
		RETURNING open_slots, updated_at`,
		technicianID, day, Strings(slots),
	).Scan(&open, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to close availability slots: %w", err)
	}
	return &Record{TechnicianID: technicianID, Date: day, OpenSlots: FromStrings(open), UpdatedAt: updatedAt}, nil
}

// List returns the records for a technician between from and to inclusive.
func (s *Store) List(ctx context.Context, technicianID uuid.UUID, from, to time.Time) ([]Record, error) {
	rows, err := s.q.Query(ctx, `
		SELECT technician_id, date, open_slots, updated_at
		FROM technician_availability
		WHERE technician_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`,
		technicianID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var open []string
		if err := rows.Scan(&rec.TechnicianID, &rec.Date, &open, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		rec.OpenSlots = FromStrings(open)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate availability: %w", err)
	}
	return records, nil
}

// HasOpenSlotSQL is the predicate deriving a technician's availability: at
// least one open slot on a day on or after the bound date parameter. The
// technician row must be aliased t.
func HasOpenSlotSQL(dateParam string) string {
	return `EXISTS (
		SELECT 1 FROM technician_availability ta
		WHERE ta.technician_id = t.id AND ta.date >= ` + dateParam + `
		  AND cardinality(ta.open_slots) > 0
	)`
}
