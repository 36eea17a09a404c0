package service

import (
	"context"
	"strings"

	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/internal/repairs/domain"
	"repair_backend/internal/repairs/repository"
	"repair_backend/internal/repairs/transport"
	"repair_backend/platform/apperr"
	"repair_backend/platform/phone"
	"repair_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Create opens a pending repair request. When a location is given and the
// device type is a technician specialty, the best technician is suggested.
// A failing suggestion never fails the creation.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, callerEmail string, req transport.CreateRepairRequest) (transport.CreateRepairResponse, error) {
	urgency, err := domain.ParseUrgency(req.UrgencyLevel)
	if err != nil {
		return transport.CreateRepairResponse{}, err
	}
	device := domain.Device{
		Type:  req.DeviceType,
		Brand: sanitize.Text(req.DeviceBrand),
		Model: sanitize.Text(req.DeviceModel),
	}
	repair, err := domain.NewRepairRequest(userID, device, sanitize.Text(req.IssueDescription), urgency, s.now().UTC())
	if err != nil {
		return transport.CreateRepairResponse{}, err
	}

	repair.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	if repair.ContactEmail == "" {
		repair.ContactEmail = strings.ToLower(strings.TrimSpace(callerEmail))
	}
	if raw := strings.TrimSpace(req.ContactPhone); raw != "" {
		normalized, ok := phone.NormalizeE164(raw, s.policy.PhoneRegion)
		if !ok {
			return transport.CreateRepairResponse{}, apperr.Validation("contact phone is not valid")
		}
		repair.ContactPhone = normalized
	}

	evt := events.RepairRequestCreated{
		BaseEvent:       events.NewBaseEvent(),
		RepairRequestID: repair.ID,
		UserID:          repair.UserID,
		DeviceType:      repair.Device.Type,
		UrgencyLevel:    string(repair.Urgency),
	}
	env, err := outbox.FromDomain(outbox.AggregateRepairRequest, repair.ID.String(), evt)
	if err != nil {
		return transport.CreateRepairResponse{}, err
	}
	if err := s.repo.Create(ctx, repair, env); err != nil {
		return transport.CreateRepairResponse{}, err
	}
	s.bus.Publish(ctx, evt)

	resp := transport.CreateRepairResponse{Repair: ToResponse(repair)}
	if req.Location != nil && s.suggester != nil {
		suggestion, err := s.suggester.SuggestTechnician(ctx, repair.Device.Type, req.Location.Region, req.Location.City)
		if err != nil {
			s.log.WithContext(ctx).Warn("technician suggestion failed", "repair_request_id", repair.ID, "error", err)
		} else if suggestion != nil {
			resp.SuggestedTechnician = &transport.SuggestedTechnicianResponse{
				ID:     suggestion.ID,
				Name:   suggestion.Name,
				Rating: suggestion.Rating,
				Score:  suggestion.Score,
			}
		}
	}
	return resp, nil
}

// GetRepairRequest loads a repair request without access checks. Used by
// other modules through adapters.
func (s *Service) GetRepairRequest(ctx context.Context, id uuid.UUID) (domain.RepairRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByID returns a repair request to its owner or its assigned technician.
func (s *Service) GetByID(ctx context.Context, id, userID uuid.UUID) (transport.RepairResponse, error) {
	repair, err := s.loadVisible(ctx, id, userID)
	if err != nil {
		return transport.RepairResponse{}, err
	}
	return ToResponse(repair), nil
}

// ListMine returns a page of the caller's repair requests.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, q transport.ListRepairsQuery) (transport.RepairListResponse, error) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	items, total, err := s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.RepairListResponse{}, err
	}

	resp := transport.RepairListResponse{
		Items:      make([]transport.RepairResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, ToResponse(item))
	}
	return resp, nil
}

// Cancel terminally cancels a repair request on behalf of its owner. An
// active appointment is cancelled with it. Before the visit starts the
// appointment cutoff applies and the slot is reopened; once the repair is
// in progress the visit has happened, so neither applies.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID, req transport.CancelRepairRequest) (transport.RepairResponse, error) {
	repair, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.RepairResponse{}, err
	}
	if !repair.OwnedBy(userID) {
		return transport.RepairResponse{}, apperr.Unauthorized("repair request belongs to another user")
	}
	if err := domain.ValidateTransition(repair.Status, domain.StatusCancelled); err != nil {
		return transport.RepairResponse{}, err
	}
	beforeVisit := repair.Status == domain.StatusConfirmed
	if beforeVisit && repair.AppointmentID != nil {
		if err := s.checkCutoff(ctx, *repair.AppointmentID); err != nil {
			return transport.RepairResponse{}, err
		}
	}

	result, err := s.applyStatus(ctx, repair, domain.StatusCancelled, repository.StatusUpdate{
		Release:    true,
		ReopenSlot: beforeVisit,
		Reason:     sanitize.TextPtr(req.Reason),
	})
	if err != nil {
		return transport.RepairResponse{}, err
	}

	if result.Cancelled != nil {
		s.bus.Publish(ctx, *result.Cancelled)
	}
	return ToResponse(result.Repair), nil
}

// Start moves a confirmed repair to in_progress. Only the assigned
// technician may start it; the appointment becomes confirmed.
func (s *Service) Start(ctx context.Context, id, userID uuid.UUID) (transport.RepairResponse, error) {
	repair, technicianID, err := s.loadAssigned(ctx, id, userID)
	if err != nil {
		return transport.RepairResponse{}, err
	}
	if err := domain.ValidateTransition(repair.Status, domain.StatusInProgress); err != nil {
		return transport.RepairResponse{}, err
	}

	result, err := s.applyStatus(ctx, repair, domain.StatusInProgress, repository.StatusUpdate{
		TechnicianID:      &technicianID,
		AppointmentStatus: "confirmed",
	})
	if err != nil {
		return transport.RepairResponse{}, err
	}
	return ToResponse(result.Repair), nil
}

// Complete finishes an in-progress repair and records the actual cost.
func (s *Service) Complete(ctx context.Context, id, userID uuid.UUID, req transport.CompleteRepairRequest) (transport.RepairResponse, error) {
	repair, technicianID, err := s.loadAssigned(ctx, id, userID)
	if err != nil {
		return transport.RepairResponse{}, err
	}
	if err := domain.ValidateTransition(repair.Status, domain.StatusCompleted); err != nil {
		return transport.RepairResponse{}, err
	}
	if req.ActualCost != nil && *req.ActualCost < 0 {
		return transport.RepairResponse{}, apperr.Validation("actual cost must not be negative")
	}

	result, err := s.applyStatus(ctx, repair, domain.StatusCompleted, repository.StatusUpdate{
		TechnicianID:      &technicianID,
		ActualCost:        req.ActualCost,
		AppointmentStatus: "completed",
	})
	if err != nil {
		return transport.RepairResponse{}, err
	}
	return ToResponse(result.Repair), nil
}

// applyStatus fills the transition fields of u, persists it and publishes
// the status change after commit.
func (s *Service) applyStatus(ctx context.Context, repair domain.RepairRequest, to domain.Status, u repository.StatusUpdate) (*repository.StatusResult, error) {
	evt := events.RepairRequestStatusChanged{
		BaseEvent:       events.NewBaseEvent(),
		RepairRequestID: repair.ID,
		UserID:          repair.UserID,
		From:            string(repair.Status),
		To:              string(to),
	}
	env, err := outbox.FromDomain(outbox.AggregateRepairRequest, repair.ID.String(), evt)
	if err != nil {
		return nil, err
	}

	u.ID = repair.ID
	u.From = repair.Status
	u.To = to
	u.Event = env
	result, err := s.repo.ApplyStatus(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).RepairStatusChanged(repair.ID.String(), evt.From, evt.To)
	s.bus.Publish(ctx, evt)
	return result, nil
}

func (s *Service) checkCutoff(ctx context.Context, appointmentID uuid.UUID) error {
	day, slot, ok, err := s.repo.ActiveAppointmentSlot(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !s.now().Before(slot.StartAt(day, s.policy.Location).Add(-s.policy.CancellationCutoff)) {
		return apperr.InvalidState("too close to appointment")
	}
	return nil
}

func (s *Service) technicianFor(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if s.technicians == nil {
		return uuid.UUID{}, apperr.Forbidden("technician actions are not available")
	}
	technicianID, err := s.technicians.TechnicianIDForUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return uuid.UUID{}, apperr.Forbidden("caller is not a technician")
		}
		return uuid.UUID{}, err
	}
	return technicianID, nil
}

// loadAssigned loads a repair and checks that the caller is its technician.
func (s *Service) loadAssigned(ctx context.Context, id, userID uuid.UUID) (domain.RepairRequest, uuid.UUID, error) {
	technicianID, err := s.technicianFor(ctx, userID)
	if err != nil {
		return domain.RepairRequest{}, uuid.UUID{}, err
	}
	repair, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.RepairRequest{}, uuid.UUID{}, err
	}
	if !repair.AssignedTo(technicianID) {
		return domain.RepairRequest{}, uuid.UUID{}, apperr.Unauthorized("repair request is not assigned to this technician")
	}
	return repair, technicianID, nil
}

// loadVisible loads a repair for its owner or its assigned technician.
func (s *Service) loadVisible(ctx context.Context, id, userID uuid.UUID) (domain.RepairRequest, error) {
	repair, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.RepairRequest{}, err
	}
	if repair.OwnedBy(userID) {
		return repair, nil
	}
	if repair.TechnicianID != nil && s.technicians != nil {
		technicianID, err := s.technicians.TechnicianIDForUser(ctx, userID)
		if err == nil && repair.AssignedTo(technicianID) {
			return repair, nil
		}
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return domain.RepairRequest{}, err
		}
	}
	return domain.RepairRequest{}, apperr.Unauthorized("repair request belongs to another user")
}

// ToResponse maps a repair request to its response body.
func ToResponse(r domain.RepairRequest) transport.RepairResponse {
	return transport.RepairResponse{
		ID:               r.ID,
		UserID:           r.UserID,
		DeviceType:       r.Device.Type,
		DeviceBrand:      r.Device.Brand,
		DeviceModel:      r.Device.Model,
		IssueDescription: r.IssueDescription,
		UrgencyLevel:     string(r.Urgency),
		EstimatedCost:    r.EstimatedCost,
		ActualCost:       r.ActualCost,
		Status:           string(r.Status),
		TechnicianID:     r.TechnicianID,
		AppointmentID:    r.AppointmentID,
		ContactEmail:     r.ContactEmail,
		ContactPhone:     r.ContactPhone,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
