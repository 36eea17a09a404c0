package service

import (
	"context"
	"io"
	"sync"
	"time"

	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/appointments/repository"
	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/platform/apperr"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepair struct {
	userID        uuid.UUID
	status        string
	technicianID  *uuid.UUID
	appointmentID *uuid.UUID
}

type fakeTechnician struct {
	name   string
	userID uuid.UUID
}

// fakeStore plays the database for the appointments service: repairs,
// technicians, the availability calendar and appointments share one lock,
// and Book enforces slot uniqueness the way the partial unique index does.
type fakeStore struct {
	mu           sync.Mutex
	clock        *fakeClock
	repairs      map[uuid.UUID]*fakeRepair
	technicians  map[uuid.UUID]fakeTechnician
	calendar     map[string]map[calendar.TimeSlot]bool // key technician|date
	appointments map[uuid.UUID]domain.Appointment
	outbox       []outbox.Event
	skipPrecheck bool
}

func newFakeStore(clock *fakeClock) *fakeStore {
	return &fakeStore{
		clock:        clock,
		repairs:      map[uuid.UUID]*fakeRepair{},
		technicians:  map[uuid.UUID]fakeTechnician{},
		calendar:     map[string]map[calendar.TimeSlot]bool{},
		appointments: map[uuid.UUID]domain.Appointment{},
	}
}

func calKey(technicianID uuid.UUID, day time.Time) string {
	return technicianID.String() + "|" + calendar.FormatDate(day)
}

func (s *fakeStore) addRepair(userID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.repairs[id] = &fakeRepair{userID: userID, status: "pending"}
	return id
}

func (s *fakeStore) addTechnician(name string, openDays ...time.Time) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.technicians[id] = fakeTechnician{name: name, userID: uuid.New()}
	for _, day := range openDays {
		slots := map[calendar.TimeSlot]bool{}
		for _, slot := range calendar.AllSlots() {
			slots[slot] = true
		}
		s.calendar[calKey(id, day)] = slots
	}
	return id
}

func (s *fakeStore) isOpen(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calendar[calKey(technicianID, day)][slot]
}

func (s *fakeStore) repair(id uuid.UUID) fakeRepair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.repairs[id]
}

func (s *fakeStore) activeFor(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.appointments {
		if a.TechnicianID == technicianID && a.ScheduledDate.Equal(day) && a.TimeSlot == slot && a.Status != domain.StatusCancelled {
			n++
		}
	}
	return n
}

// RepairReader

func (s *fakeStore) GetRepairForScheduling(_ context.Context, id uuid.UUID) (RepairSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repairs[id]
	if !ok {
		return RepairSnapshot{}, apperr.NotFound("repair request not found")
	}
	return RepairSnapshot{ID: id, UserID: r.userID, Status: r.status}, nil
}

// TechnicianReader

func (s *fakeStore) GetTechnicianForScheduling(_ context.Context, id uuid.UUID) (TechnicianSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.technicians[id]
	if !ok {
		return TechnicianSnapshot{}, apperr.NotFound("technician not found")
	}
	today := calendar.FormatDate(calendar.Day(s.clock.Now(), time.UTC))
	available := false
	for key, slots := range s.calendar {
		prefix := id.String() + "|"
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix || key[len(prefix):] < today {
			continue
		}
		for _, open := range slots {
			if open {
				available = true
			}
		}
	}
	return TechnicianSnapshot{ID: id, Name: t.name, IsAvailable: available}, nil
}

func (s *fakeStore) TechnicianIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.technicians {
		if t.userID == userID {
			return id, nil
		}
	}
	return uuid.UUID{}, apperr.NotFound("technician not found")
}

// Repository

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return domain.Appointment{}, apperr.NotFound("appointment not found")
	}
	return a, nil
}

func (s *fakeStore) ListByUser(_ context.Context, f repository.ListFilter) ([]domain.Appointment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Appointment
	for _, a := range s.appointments {
		if a.UserID == f.UserID && (f.Status == nil || a.Status == *f.Status) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) ListByTechnician(_ context.Context, technicianID uuid.UUID, from, to time.Time) ([]domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Appointment
	for _, a := range s.appointments {
		if a.TechnicianID == technicianID && a.Status.IsActive() && !a.ScheduledDate.Before(from) && !a.ScheduledDate.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) SlotTaken(_ context.Context, technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipPrecheck {
		return false, nil
	}
	if s.slotHeldLocked(technicianID, day, slot) {
		return true, nil
	}
	if rec, ok := s.calendar[calKey(technicianID, day)]; ok && !rec[slot] {
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) slotHeldLocked(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) bool {
	for _, a := range s.appointments {
		if a.TechnicianID == technicianID && a.ScheduledDate.Equal(day) && a.TimeSlot == slot && a.Status.IsActive() {
			return true
		}
	}
	return false
}

// slotClosedLocked mirrors the conditional update in calendar.Store.Consume:
// an existing record must still list the slot as open.
func (s *fakeStore) slotClosedLocked(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) bool {
	rec, ok := s.calendar[calKey(technicianID, day)]
	return ok && !rec[slot]
}

func (s *fakeStore) consumeLocked(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) {
	key := calKey(technicianID, day)
	if s.calendar[key] == nil {
		s.calendar[key] = map[calendar.TimeSlot]bool{}
	}
	s.calendar[key][slot] = false
}

func (s *fakeStore) reopenLocked(technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) {
	key := calKey(technicianID, day)
	if s.calendar[key] == nil {
		s.calendar[key] = map[calendar.TimeSlot]bool{}
	}
	s.calendar[key][slot] = true
}

func (s *fakeStore) insertLocked(appt domain.Appointment) (domain.Appointment, error) {
	if s.slotHeldLocked(appt.TechnicianID, appt.ScheduledDate, appt.TimeSlot) {
		return domain.Appointment{}, apperr.Conflict("slot taken")
	}
	appt.UpdatedAt = appt.CreatedAt
	s.appointments[appt.ID] = appt
	return appt, nil
}

func (s *fakeStore) Book(_ context.Context, appt domain.Appointment, evt outbox.Event) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.repairs[appt.RepairRequestID]
	if r == nil || r.status != "pending" {
		return domain.Appointment{}, apperr.InvalidState("repair request is no longer pending")
	}
	if s.slotClosedLocked(appt.TechnicianID, appt.ScheduledDate, appt.TimeSlot) {
		return domain.Appointment{}, apperr.Conflict("slot taken")
	}
	booked, err := s.insertLocked(appt)
	if err != nil {
		return domain.Appointment{}, err
	}
	techID, apptID := appt.TechnicianID, appt.ID
	r.status, r.technicianID, r.appointmentID = "confirmed", &techID, &apptID
	s.consumeLocked(appt.TechnicianID, appt.ScheduledDate, appt.TimeSlot)
	s.outbox = append(s.outbox, evt)
	return booked, nil
}

func (s *fakeStore) cancelLocked(id uuid.UUID, reason *string) (domain.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || !a.Status.IsActive() {
		return domain.Appointment{}, apperr.InvalidState("appointment is no longer active")
	}
	now := s.clock.Now()
	a.Status, a.CancellationReason, a.CancelledAt = domain.StatusCancelled, reason, &now
	s.appointments[id] = a
	return a, nil
}

func (s *fakeStore) Release(_ context.Context, id uuid.UUID, reason *string, evt outbox.Event) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return domain.Appointment{}, apperr.InvalidState("appointment is no longer active")
	}
	r := s.repairs[a.RepairRequestID]
	if r.status != "confirmed" || r.appointmentID == nil || *r.appointmentID != id {
		return domain.Appointment{}, apperr.InvalidState("repair request is no longer confirmed")
	}
	cancelled, err := s.cancelLocked(id, reason)
	if err != nil {
		return domain.Appointment{}, err
	}
	r.status, r.technicianID, r.appointmentID = "pending", nil, nil
	s.reopenLocked(a.TechnicianID, a.ScheduledDate, a.TimeSlot)
	s.outbox = append(s.outbox, evt)
	return cancelled, nil
}

func (s *fakeStore) Reschedule(_ context.Context, previousID uuid.UUID, next domain.Appointment, evt outbox.Event) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotClosedLocked(next.TechnicianID, next.ScheduledDate, next.TimeSlot) {
		return domain.Appointment{}, apperr.Conflict("slot taken")
	}
	reason := "rescheduled"
	prev, err := s.cancelLocked(previousID, &reason)
	if err != nil {
		return domain.Appointment{}, err
	}
	s.reopenLocked(prev.TechnicianID, prev.ScheduledDate, prev.TimeSlot)
	booked, err := s.insertLocked(next)
	if err != nil {
		return domain.Appointment{}, err
	}
	apptID := next.ID
	s.repairs[next.RepairRequestID].appointmentID = &apptID
	s.consumeLocked(next.TechnicianID, next.ScheduledDate, next.TimeSlot)
	s.outbox = append(s.outbox, evt)
	return booked, nil
}

func (s *fakeStore) GetNotificationDetails(ctx context.Context, id uuid.UUID) (domain.NotificationDetails, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.NotificationDetails{}, err
	}
	return domain.NotificationDetails{Appointment: a}, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.published {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type reminderCall struct {
	appointmentID uuid.UUID
	slotStart     time.Time
}

type recordingReminders struct {
	mu    sync.Mutex
	calls []reminderCall
	err   error
}

func (r *recordingReminders) ScheduleReminder(_ context.Context, appointmentID uuid.UUID, slotStart time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reminderCall{appointmentID, slotStart})
	return r.err
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}
