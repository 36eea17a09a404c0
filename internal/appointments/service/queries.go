package service

import (
	"context"
	"time"

	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/appointments/repository"
	"repair_backend/internal/appointments/transport"
	"repair_backend/internal/calendar"
	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

// GetByID returns an appointment to its customer or its technician.
func (s *Service) GetByID(ctx context.Context, id, userID uuid.UUID) (transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AppointmentResponse{}, err
	}
	if appt.OwnedBy(userID) {
		return s.ToResponse(appt), nil
	}

	technicianID, err := s.technicians.TechnicianIDForUser(ctx, userID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return transport.AppointmentResponse{}, err
	}
	if err == nil && technicianID == appt.TechnicianID {
		return s.ToResponse(appt), nil
	}
	return transport.AppointmentResponse{}, apperr.Unauthorized("appointment belongs to another user")
}

// ListMine returns a page of the caller's appointments.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, q transport.ListAppointmentsQuery) (transport.AppointmentListResponse, error) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	filter := repository.ListFilter{UserID: userID, Limit: pageSize, Offset: (page - 1) * pageSize}
	if q.Status != "" {
		status, err := domain.ParseStatus(q.Status)
		if err != nil {
			return transport.AppointmentListResponse{}, err
		}
		filter.Status = &status
	}

	items, total, err := s.repo.ListByUser(ctx, filter)
	if err != nil {
		return transport.AppointmentListResponse{}, err
	}

	return transport.AppointmentListResponse{
		Items:      s.toResponses(items),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// TechnicianSchedule lists the calling technician's active appointments
// in a date window, two weeks from today by default.
func (s *Service) TechnicianSchedule(ctx context.Context, userID uuid.UUID, q transport.TechnicianScheduleQuery) (transport.TechnicianScheduleResponse, error) {
	technicianID, err := s.technicians.TechnicianIDForUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.TechnicianScheduleResponse{}, apperr.Forbidden("caller is not a technician")
		}
		return transport.TechnicianScheduleResponse{}, err
	}

	from := s.today()
	if q.From != "" {
		if from, err = calendar.ParseDate(q.From); err != nil {
			return transport.TechnicianScheduleResponse{}, err
		}
	}
	to := from.AddDate(0, 0, defaultScheduleWindow-1)
	if q.To != "" {
		if to, err = calendar.ParseDate(q.To); err != nil {
			return transport.TechnicianScheduleResponse{}, err
		}
	}
	if to.Before(from) {
		return transport.TechnicianScheduleResponse{}, apperr.Validation("to must not be before from")
	}
	if to.Sub(from) >= maxScheduleWindow*24*time.Hour {
		return transport.TechnicianScheduleResponse{}, apperr.Validation("schedule window is too large")
	}

	items, err := s.repo.ListByTechnician(ctx, technicianID, from, to)
	if err != nil {
		return transport.TechnicianScheduleResponse{}, err
	}
	return transport.TechnicianScheduleResponse{
		TechnicianID: technicianID,
		From:         calendar.FormatDate(from),
		To:           calendar.FormatDate(to),
		Items:        s.toResponses(items),
	}, nil
}

// IsActive reports whether the appointment still holds its slot. A missing
// appointment is not active.
func (s *Service) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return appt.Status.IsActive(), nil
}

// NotificationDetails loads what a customer message about id needs.
func (s *Service) NotificationDetails(ctx context.Context, id uuid.UUID) (domain.NotificationDetails, error) {
	return s.repo.GetNotificationDetails(ctx, id)
}

// ToResponse maps an appointment to its response body.
func (s *Service) ToResponse(a domain.Appointment) transport.AppointmentResponse {
	return transport.AppointmentResponse{
		ID:                 a.ID,
		RepairRequestID:    a.RepairRequestID,
		TechnicianID:       a.TechnicianID,
		UserID:             a.UserID,
		ScheduledDate:      calendar.FormatDate(a.ScheduledDate),
		TimeSlot:           string(a.TimeSlot),
		StartsAt:           a.SlotStart(s.policy.Location),
		EndsAt:             a.TimeSlot.EndAt(a.ScheduledDate, s.policy.Location),
		Address:            a.Address,
		Notes:              a.Notes,
		Status:             string(a.Status),
		CancellationReason: a.CancellationReason,
		CancelledAt:        a.CancelledAt,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (s *Service) toResponses(items []domain.Appointment) []transport.AppointmentResponse {
	out := make([]transport.AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, s.ToResponse(a))
	}
	return out
}
