package service

import (
	"context"
	"time"

	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/appointments/transport"
	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	repairdomain "repair_backend/internal/repairs/domain"
	"repair_backend/platform/apperr"
	"repair_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Schedule books a technician slot for the caller's repair request. The
// checks run in a fixed order so each failure maps to one error kind:
// repair exists, caller owns it, technician exists, technician available,
// slot free, slot in the future. The slot is enforced again atomically when
// the booking is written, so losing a race also returns Conflict.
func (s *Service) Schedule(ctx context.Context, userID uuid.UUID, req transport.CreateAppointmentRequest) (transport.AppointmentResponse, error) {
	day, slot, err := parseSlot(req.ScheduledDate, req.TimeSlot)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	repair, err := s.repairs.GetRepairForScheduling(ctx, req.RepairRequestID)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}
	if repair.UserID != userID {
		return transport.AppointmentResponse{}, apperr.Unauthorized("repair request belongs to another user")
	}

	tech, err := s.checkBookable(ctx, req.TechnicianID, day, slot)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}
	if !repairdomain.CanTransition(repairdomain.Status(repair.Status), repairdomain.StatusConfirmed) {
		return transport.AppointmentResponse{}, apperr.InvalidState("repair request is " + repair.Status + ", only pending requests can be scheduled")
	}

	address := sanitize.Text(req.Address)
	if address == "" {
		return transport.AppointmentResponse{}, apperr.Validation("address is required")
	}

	appt := domain.Appointment{
		ID:              uuid.New(),
		RepairRequestID: repair.ID,
		TechnicianID:    tech.ID,
		UserID:          userID,
		ScheduledDate:   day,
		TimeSlot:        slot,
		Address:         address,
		Notes:           sanitize.TextPtr(req.Notes),
		Status:          domain.StatusScheduled,
		CreatedAt:       s.now().UTC(),
	}
	evt := events.AppointmentScheduled{
		BaseEvent:       events.NewBaseEvent(),
		AppointmentID:   appt.ID,
		RepairRequestID: appt.RepairRequestID,
		TechnicianID:    appt.TechnicianID,
		UserID:          appt.UserID,
		ScheduledDate:   calendar.FormatDate(day),
		TimeSlot:        string(slot),
		SlotStart:       appt.SlotStart(s.policy.Location),
	}
	env, err := outbox.FromDomain(outbox.AggregateAppointment, appt.ID.String(), evt)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	booked, err := s.repo.Book(ctx, appt, env)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	s.log.WithContext(ctx).AppointmentChanged("booked", booked.ID.String(), booked.TechnicianID.String(), evt.ScheduledDate, evt.TimeSlot)
	s.bus.Publish(ctx, evt)
	s.scheduleReminder(ctx, booked)
	return s.ToResponse(booked), nil
}

// Cancel releases the caller's appointment: the appointment is cancelled,
// its repair request goes back to pending and the slot is reopened. Fails
// with InvalidState when the appointment is no longer active or its slot
// starts within the cancellation cutoff.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID, req transport.CancelAppointmentRequest) (transport.AppointmentResponse, error) {
	appt, err := s.loadCancellable(ctx, id, userID)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	reason := sanitize.TextPtr(req.Reason)
	evt := events.AppointmentCancelled{
		BaseEvent:       events.NewBaseEvent(),
		AppointmentID:   appt.ID,
		RepairRequestID: appt.RepairRequestID,
		TechnicianID:    appt.TechnicianID,
		UserID:          appt.UserID,
		ScheduledDate:   calendar.FormatDate(appt.ScheduledDate),
		TimeSlot:        string(appt.TimeSlot),
	}
	if reason != nil {
		evt.Reason = *reason
	}
	env, err := outbox.FromDomain(outbox.AggregateAppointment, appt.ID.String(), evt)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	cancelled, err := s.repo.Release(ctx, appt.ID, reason, env)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	s.log.WithContext(ctx).AppointmentChanged("cancelled", cancelled.ID.String(), cancelled.TechnicianID.String(), evt.ScheduledDate, evt.TimeSlot)
	s.bus.Publish(ctx, evt)
	return s.ToResponse(cancelled), nil
}

// Reschedule moves the caller's appointment to another slot with the same
// technician. The old appointment must pass the cancellation rules and the
// new slot the booking rules; both changes commit together.
func (s *Service) Reschedule(ctx context.Context, id, userID uuid.UUID, req transport.RescheduleAppointmentRequest) (transport.AppointmentResponse, error) {
	day, slot, err := parseSlot(req.ScheduledDate, req.TimeSlot)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	appt, err := s.loadCancellable(ctx, id, userID)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}
	if appt.ScheduledDate.Equal(day) && appt.TimeSlot == slot {
		return transport.AppointmentResponse{}, apperr.Validation("appointment is already booked on that slot")
	}

	if _, err := s.checkBookable(ctx, appt.TechnicianID, day, slot); err != nil {
		return transport.AppointmentResponse{}, err
	}

	next := appt
	next.ID = uuid.New()
	next.ScheduledDate = day
	next.TimeSlot = slot
	next.Status = domain.StatusScheduled
	next.CancellationReason = nil
	next.CancelledAt = nil
	next.CreatedAt = s.now().UTC()

	evt := events.AppointmentRescheduled{
		BaseEvent:             events.NewBaseEvent(),
		PreviousAppointmentID: appt.ID,
		AppointmentID:         next.ID,
		RepairRequestID:       next.RepairRequestID,
		TechnicianID:          next.TechnicianID,
		UserID:                next.UserID,
		ScheduledDate:         calendar.FormatDate(day),
		TimeSlot:              string(slot),
		SlotStart:             next.SlotStart(s.policy.Location),
	}
	env, err := outbox.FromDomain(outbox.AggregateAppointment, next.ID.String(), evt)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	booked, err := s.repo.Reschedule(ctx, appt.ID, next, env)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}

	s.log.WithContext(ctx).AppointmentChanged("rescheduled", booked.ID.String(), booked.TechnicianID.String(), evt.ScheduledDate, evt.TimeSlot)
	s.bus.Publish(ctx, evt)
	s.scheduleReminder(ctx, booked)
	return s.ToResponse(booked), nil
}

// checkBookable runs the technician and slot checks shared by booking and
// rescheduling, in order: technician exists, is available, slot is free,
// slot starts in the future.
func (s *Service) checkBookable(ctx context.Context, technicianID uuid.UUID, day time.Time, slot calendar.TimeSlot) (TechnicianSnapshot, error) {
	tech, err := s.technicians.GetTechnicianForScheduling(ctx, technicianID)
	if err != nil {
		return TechnicianSnapshot{}, err
	}
	if !tech.IsAvailable {
		return TechnicianSnapshot{}, apperr.Conflict("technician not available")
	}

	taken, err := s.repo.SlotTaken(ctx, tech.ID, day, slot)
	if err != nil {
		return TechnicianSnapshot{}, err
	}
	if taken {
		return TechnicianSnapshot{}, apperr.Conflict("slot taken")
	}

	if !slot.StartAt(day, s.policy.Location).After(s.now()) {
		return TechnicianSnapshot{}, apperr.Validation("scheduled date must be in the future")
	}
	return tech, nil
}

// loadCancellable runs the cancellation checks in order: appointment
// exists, caller owns it, it is active, and the cutoff has not passed.
func (s *Service) loadCancellable(ctx context.Context, id, userID uuid.UUID) (domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !appt.OwnedBy(userID) {
		return domain.Appointment{}, apperr.Unauthorized("appointment belongs to another user")
	}
	if err := s.policy.Check(appt, s.now()); err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

func parseSlot(date, timeSlot string) (time.Time, calendar.TimeSlot, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return time.Time{}, "", err
	}
	slot, err := calendar.ParseTimeSlot(timeSlot)
	if err != nil {
		return time.Time{}, "", err
	}
	return day, slot, nil
}
