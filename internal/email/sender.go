// Package email renders and delivers the customer messages about appointments.
package email

import "context"

// AppointmentMessage holds the fields shown in every appointment email.
type AppointmentMessage struct {
	TechnicianName  string
	TechnicianPhone string
	Device          string
	ScheduledDate   string
	TimeSlot        string
	Address         string
	Reason          string
}

// Sender delivers appointment emails.
type Sender interface {
	SendAppointmentConfirmation(ctx context.Context, toEmail string, msg AppointmentMessage) error
	SendAppointmentReminder(ctx context.Context, toEmail string, msg AppointmentMessage) error
	SendAppointmentCancellation(ctx context.Context, toEmail string, msg AppointmentMessage) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendAppointmentConfirmation(context.Context, string, AppointmentMessage) error {
	return nil
}

func (NoopSender) SendAppointmentReminder(context.Context, string, AppointmentMessage) error {
	return nil
}

func (NoopSender) SendAppointmentCancellation(context.Context, string, AppointmentMessage) error {
	return nil
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
