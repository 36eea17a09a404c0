// Package events defines the repair and appointment domain events. The bus
// itself lives in platform/events and is re-exported here so modules import
// a single package.
package events

import (
	"time"

	"repair_backend/platform/events"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names. They double as Kafka topic names for the outbox.
const (
	NameAppointmentScheduled       = "appointment.scheduled"
	NameAppointmentCancelled       = "appointment.cancelled"
	NameAppointmentRescheduled     = "appointment.rescheduled"
	NameAppointmentReminderDue     = "appointment.reminder_due"
	NameRepairRequestCreated       = "repair_request.created"
	NameRepairRequestStatusChanged = "repair_request.status_changed"
)

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentScheduled is published after a slot was booked and the repair
// request confirmed.
type AppointmentScheduled struct {
	BaseEvent
	AppointmentID   uuid.UUID `json:"appointmentId"`
	RepairRequestID uuid.UUID `json:"repairRequestId"`
	TechnicianID    uuid.UUID `json:"technicianId"`
	UserID          uuid.UUID `json:"userId"`
	ScheduledDate   string    `json:"scheduledDate"`
	TimeSlot        string    `json:"timeSlot"`
	SlotStart       time.Time `json:"slotStart"`
}

func (e AppointmentScheduled) EventName() string { return NameAppointmentScheduled }

// AppointmentCancelled is published after an appointment was cancelled and
// its slot released.
type AppointmentCancelled struct {
	BaseEvent
	AppointmentID   uuid.UUID `json:"appointmentId"`
	RepairRequestID uuid.UUID `json:"repairRequestId"`
	TechnicianID    uuid.UUID `json:"technicianId"`
	UserID          uuid.UUID `json:"userId"`
	ScheduledDate   string    `json:"scheduledDate"`
	TimeSlot        string    `json:"timeSlot"`
	Reason          string    `json:"reason,omitempty"`
}

func (e AppointmentCancelled) EventName() string { return NameAppointmentCancelled }

// AppointmentRescheduled is published when an appointment was replaced by a
// new one on another slot.
type AppointmentRescheduled struct {
	BaseEvent
	PreviousAppointmentID uuid.UUID `json:"previousAppointmentId"`
	AppointmentID         uuid.UUID `json:"appointmentId"`
	RepairRequestID       uuid.UUID `json:"repairRequestId"`
	TechnicianID          uuid.UUID `json:"technicianId"`
	UserID                uuid.UUID `json:"userId"`
	ScheduledDate         string    `json:"scheduledDate"`
	TimeSlot              string    `json:"timeSlot"`
	SlotStart             time.Time `json:"slotStart"`
}

func (e AppointmentRescheduled) EventName() string { return NameAppointmentRescheduled }

// AppointmentReminderDue is raised by the reminder worker when the reminder
// for a still active appointment fires. It never leaves the process.
type AppointmentReminderDue struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
}

func (e AppointmentReminderDue) EventName() string { return NameAppointmentReminderDue }

// =============================================================================
// Repair Request Domain Events
// =============================================================================

// RepairRequestCreated is published when a customer opened a repair request.
type RepairRequestCreated struct {
	BaseEvent
	RepairRequestID uuid.UUID `json:"repairRequestId"`
	UserID          uuid.UUID `json:"userId"`
	DeviceType      string    `json:"deviceType"`
	UrgencyLevel    string    `json:"urgencyLevel"`
}

func (e RepairRequestCreated) EventName() string { return NameRepairRequestCreated }

// RepairRequestStatusChanged is published for lifecycle moves that are not
// already covered by an appointment event (direct cancel, start, complete).
type RepairRequestStatusChanged struct {
	BaseEvent
	RepairRequestID uuid.UUID `json:"repairRequestId"`
	UserID          uuid.UUID `json:"userId"`
	From            string    `json:"from"`
	To              string    `json:"to"`
}

func (e RepairRequestStatusChanged) EventName() string { return NameRepairRequestStatusChanged }
