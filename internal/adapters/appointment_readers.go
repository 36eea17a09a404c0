package adapters

import (
	"context"

	apptsvc "repair_backend/internal/appointments/service"
	repairsvc "repair_backend/internal/repairs/service"
	techsvc "repair_backend/internal/technicians/service"

	"github.com/google/uuid"
)

// AppointmentRepairReader exposes repair requests to the appointments module.
type AppointmentRepairReader struct {
	repairs *repairsvc.Service
}

// NewAppointmentRepairReader creates a new adapter over the repairs service.
func NewAppointmentRepairReader(repairs *repairsvc.Service) *AppointmentRepairReader {
	return &AppointmentRepairReader{repairs: repairs}
}

// GetRepairForScheduling loads the owner and status of a repair request.
func (a *AppointmentRepairReader) GetRepairForScheduling(ctx context.Context, id uuid.UUID) (apptsvc.RepairSnapshot, error) {
	r, err := a.repairs.GetRepairRequest(ctx, id)
	if err != nil {
		return apptsvc.RepairSnapshot{}, err
	}
	return apptsvc.RepairSnapshot{ID: r.ID, UserID: r.UserID, Status: string(r.Status)}, nil
}

// AppointmentTechnicianReader exposes the technician directory to the
// appointments module.
type AppointmentTechnicianReader struct {
	technicians *techsvc.Service
	lookup      *TechnicianLookup
}

// NewAppointmentTechnicianReader creates a new adapter over the technicians service.
func NewAppointmentTechnicianReader(technicians *techsvc.Service) *AppointmentTechnicianReader {
	return &AppointmentTechnicianReader{technicians: technicians, lookup: NewTechnicianLookup(technicians)}
}

// GetTechnicianForScheduling loads a technician with its derived availability.
func (a *AppointmentTechnicianReader) GetTechnicianForScheduling(ctx context.Context, id uuid.UUID) (apptsvc.TechnicianSnapshot, error) {
	t, err := a.technicians.GetTechnician(ctx, id)
	if err != nil {
		return apptsvc.TechnicianSnapshot{}, err
	}
	return apptsvc.TechnicianSnapshot{ID: t.ID, Name: t.Contact.Name, IsAvailable: t.IsAvailable}, nil
}

// TechnicianIDForUser returns the technician id linked to userID.
func (a *AppointmentTechnicianReader) TechnicianIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return a.lookup.TechnicianIDForUser(ctx, userID)
}

var (
	_ apptsvc.RepairReader     = (*AppointmentRepairReader)(nil)
	_ apptsvc.TechnicianReader = (*AppointmentTechnicianReader)(nil)
)
