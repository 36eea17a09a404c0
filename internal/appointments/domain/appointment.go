// Package domain holds the appointment model and the cancellation policy.
package domain

import (
	"fmt"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the state of a booked visit.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status label.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown appointment status %q", value))
	}
}

// IsActive reports whether the appointment still holds its slot.
func (s Status) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Appointment is one booked technician visit for a repair request.
type Appointment struct {
	ID                 uuid.UUID
	RepairRequestID    uuid.UUID
	TechnicianID       uuid.UUID
	UserID             uuid.UUID
	ScheduledDate      time.Time // calendar day, midnight UTC
	TimeSlot           calendar.TimeSlot
	Address            string
	Notes              *string
	Status             Status
	CancellationReason *string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SlotStart is the instant the visit begins in loc.
func (a Appointment) SlotStart(loc *time.Location) time.Time {
	return a.TimeSlot.StartAt(a.ScheduledDate, loc)
}

// OwnedBy reports whether userID booked the appointment.
func (a Appointment) OwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// NotificationDetails is everything a customer message about an appointment needs.
type NotificationDetails struct {
	Appointment     Appointment
	CustomerEmail   string
	CustomerPhone   string
	TechnicianName  string
	TechnicianPhone string
	DeviceType      string
	DeviceBrand     string
	DeviceModel     string
}
