package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateAppointmentRequest books a technician slot for a repair request
type CreateAppointmentRequest struct {
	RepairRequestID uuid.UUID `json:"repairRequestId" validate:"required"`
	TechnicianID    uuid.UUID `json:"technicianId" validate:"required"`
	ScheduledDate   string    `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	TimeSlot        string    `json:"timeSlot" validate:"required,oneof=08:00-10:00 10:00-12:00 14:00-16:00 16:00-18:00"`
	Address         string    `json:"address" validate:"required,min=3,max=500"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CancelAppointmentRequest is the optional body of a cancellation
type CancelAppointmentRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// RescheduleAppointmentRequest moves an appointment to another day or slot
// with the same technician
type RescheduleAppointmentRequest struct {
	ScheduledDate string `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	TimeSlot      string `json:"timeSlot" validate:"required,oneof=08:00-10:00 10:00-12:00 14:00-16:00 16:00-18:00"`
}

// ListAppointmentsQuery is the query string for listing the caller's appointments
type ListAppointmentsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// TechnicianScheduleQuery is the date window of a technician's agenda
type TechnicianScheduleQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// AppointmentResponse is the response body for an appointment
type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	RepairRequestID    uuid.UUID  `json:"repairRequestId"`
	TechnicianID       uuid.UUID  `json:"technicianId"`
	UserID             uuid.UUID  `json:"userId"`
	ScheduledDate      string     `json:"scheduledDate"`
	TimeSlot           string     `json:"timeSlot"`
	StartsAt           time.Time  `json:"startsAt"`
	EndsAt             time.Time  `json:"endsAt"`
	Address            string     `json:"address"`
	Notes              *string    `json:"notes,omitempty"`
	Status             string     `json:"status"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// AppointmentListResponse is a page of appointments
type AppointmentListResponse struct {
	Items      []AppointmentResponse `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

// TechnicianScheduleResponse lists a technician's active appointments
type TechnicianScheduleResponse struct {
	TechnicianID uuid.UUID             `json:"technicianId"`
	From         string                `json:"from"`
	To           string                `json:"to"`
	Items        []AppointmentResponse `json:"items"`
}
