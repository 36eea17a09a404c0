// Package service implements appointment booking, cancellation and
// rescheduling against the technician availability calendar.
package service

import (
	"context"
	"time"

	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/appointments/repository"
	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize       = 20
	defaultScheduleWindow = 14
	maxScheduleWindow     = 62
)

// Repository is the persistence port of the appointments module.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByUser(ctx context.Context, f repository.ListFilter) ([]domain.Appointment, int, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID, from, to time.Time) ([]domain.Appointment, error)
	SlotTaken(ctx context.Context, technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) (bool, error)
	Book(ctx context.Context, appt domain.Appointment, evt outbox.Event) (domain.Appointment, error)
	Release(ctx context.Context, id uuid.UUID, reason *string, evt outbox.Event) (domain.Appointment, error)
	Reschedule(ctx context.Context, previousID uuid.UUID, next domain.Appointment, evt outbox.Event) (domain.Appointment, error)
	GetNotificationDetails(ctx context.Context, id uuid.UUID) (domain.NotificationDetails, error)
}

// RepairSnapshot is the part of a repair request booking needs.
type RepairSnapshot struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Status string
}

// RepairReader loads repair requests without depending on the repairs module.
type RepairReader interface {
	GetRepairForScheduling(ctx context.Context, id uuid.UUID) (RepairSnapshot, error)
}

// TechnicianSnapshot is the part of a technician booking needs.
type TechnicianSnapshot struct {
	ID          uuid.UUID
	Name        string
	IsAvailable bool
}

// TechnicianReader loads technicians without depending on the technicians module.
type TechnicianReader interface {
	GetTechnicianForScheduling(ctx context.Context, id uuid.UUID) (TechnicianSnapshot, error)
	TechnicianIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// ReminderScheduler enqueues the reminder sent ahead of a visit.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appointmentID uuid.UUID, slotStart time.Time) error
}

// Service provides business logic for appointments
type Service struct {
	repo        Repository
	repairs     RepairReader
	technicians TechnicianReader
	reminders   ReminderScheduler // optional
	bus         events.Bus
	log         *logger.Logger
	policy      domain.CancellationPolicy
	now         func() time.Time
}

// New creates a new appointments service
func New(repo Repository, repairs RepairReader, technicians TechnicianReader, bus events.Bus, log *logger.Logger, policy domain.CancellationPolicy) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if policy.Cutoff <= 0 {
		policy.Cutoff = domain.DefaultCancellationCutoff
	}
	return &Service{
		repo:        repo,
		repairs:     repairs,
		technicians: technicians,
		bus:         bus,
		log:         log,
		policy:      policy,
		now:         time.Now,
	}
}

// SetReminderScheduler enables reminders for booked appointments.
func (s *Service) SetReminderScheduler(reminders ReminderScheduler) {
	s.reminders = reminders
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return calendar.Day(s.now(), s.policy.Location)
}

func (s *Service) scheduleReminder(ctx context.Context, appt domain.Appointment) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.ScheduleReminder(ctx, appt.ID, appt.SlotStart(s.policy.Location)); err != nil {
		s.log.WithContext(ctx).SideEffectFailed("reminder", appt.ID.String(), err)
	}
}
