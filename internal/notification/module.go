// Package notification sends customer emails in response to appointment
// events. Domain modules publish events and never talk to the mail provider.
package notification

import (
	"context"
	"strings"

	apptdomain "repair_backend/internal/appointments/domain"
	"repair_backend/internal/calendar"
	"repair_backend/internal/email"
	"repair_backend/internal/events"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

// DetailsReader loads what a message about an appointment needs.
type DetailsReader interface {
	NotificationDetails(ctx context.Context, appointmentID uuid.UUID) (apptdomain.NotificationDetails, error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	details DetailsReader
	sender  email.Sender
	log     *logger.Logger
}

// New creates a notification module. A nil sender disables delivery.
func New(details DetailsReader, sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{details: details, sender: sender, log: log}
}

// RegisterHandlers subscribes the module to the appointment events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AppointmentScheduled{}.EventName(), m)
	bus.Subscribe(events.AppointmentRescheduled{}.EventName(), m)
	bus.Subscribe(events.AppointmentCancelled{}.EventName(), m)
	bus.Subscribe(events.AppointmentReminderDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle implements events.Handler. Delivery failures are logged and never
// returned, so a broken mail relay cannot fail a booking or a reminder task.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AppointmentScheduled:
		m.deliver(ctx, "confirmation_email", e.AppointmentID, "", m.sender.SendAppointmentConfirmation)
	case events.AppointmentRescheduled:
		m.deliver(ctx, "confirmation_email", e.AppointmentID, "", m.sender.SendAppointmentConfirmation)
	case events.AppointmentCancelled:
		m.deliver(ctx, "cancellation_email", e.AppointmentID, e.Reason, m.sender.SendAppointmentCancellation)
	case events.AppointmentReminderDue:
		m.deliver(ctx, "reminder_email", e.AppointmentID, "", m.sender.SendAppointmentReminder)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
	}
	return nil
}

type sendFunc func(ctx context.Context, toEmail string, msg email.AppointmentMessage) error

func (m *Module) deliver(ctx context.Context, effect string, appointmentID uuid.UUID, reason string, send sendFunc) {
	details, err := m.details.NotificationDetails(ctx, appointmentID)
	if err != nil {
		m.log.SideEffectFailed(effect, appointmentID.String(), err)
		return
	}
	if strings.TrimSpace(details.CustomerEmail) == "" {
		return
	}

	if err := send(ctx, details.CustomerEmail, buildMessage(details, reason)); err != nil {
		m.log.SideEffectFailed(effect, appointmentID.String(), err)
		return
	}
	m.log.Info("notification sent", "effect", effect, "appointmentId", appointmentID)
}

func buildMessage(d apptdomain.NotificationDetails, reason string) email.AppointmentMessage {
	device := strings.TrimSpace(strings.Join(nonEmpty(d.DeviceBrand, d.DeviceModel), " "))
	if device == "" {
		device = d.DeviceType
	}
	return email.AppointmentMessage{
		TechnicianName:  d.TechnicianName,
		TechnicianPhone: d.TechnicianPhone,
		Device:          device,
		ScheduledDate:   calendar.FormatDate(d.Appointment.ScheduledDate),
		TimeSlot:        string(d.Appointment.TimeSlot),
		Address:         d.Appointment.Address,
		Reason:          reason,
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
