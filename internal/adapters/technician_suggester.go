package adapters

import (
	"context"

	repairsvc "repair_backend/internal/repairs/service"
	techdomain "repair_backend/internal/technicians/domain"
	techsvc "repair_backend/internal/technicians/service"

	"github.com/google/uuid"
)

// TechnicianSuggester adapts the technician matcher for repair request creation.
// It implements the repairs/service.TechnicianSuggester interface.
type TechnicianSuggester struct {
	technicians *techsvc.Service
}

// NewTechnicianSuggester creates a new adapter over the technicians service.
func NewTechnicianSuggester(technicians *techsvc.Service) *TechnicianSuggester {
	return &TechnicianSuggester{technicians: technicians}
}

// SuggestTechnician returns the best match for the device type, or nil when
// the device type is not a specialty or nobody is available.
func (a *TechnicianSuggester) SuggestTechnician(ctx context.Context, deviceType, region, city string) (*repairsvc.SuggestedTechnician, error) {
	specialty, err := techdomain.ParseSpecialty(deviceType)
	if err != nil {
		return nil, nil
	}
	criteria := techdomain.MatchCriteria{
		Specialty: specialty,
		Location:  techdomain.Location{Region: region, City: city},
	}

	best, err := a.technicians.FindBestTechnician(ctx, criteria)
	if err != nil || best == nil {
		return nil, err
	}
	return &repairsvc.SuggestedTechnician{
		ID:     best.ID,
		Name:   best.Contact.Name,
		Rating: best.Rating,
		Score:  techdomain.Score(*best, criteria),
	}, nil
}

// TechnicianLookup resolves login accounts to technician profiles for the
// repairs module.
type TechnicianLookup struct {
	technicians *techsvc.Service
}

// NewTechnicianLookup creates a new adapter over the technicians service.
func NewTechnicianLookup(technicians *techsvc.Service) *TechnicianLookup {
	return &TechnicianLookup{technicians: technicians}
}

// TechnicianIDForUser returns the technician id linked to userID.
func (a *TechnicianLookup) TechnicianIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	t, err := a.technicians.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.UUID{}, err
	}
	return t.ID, nil
}

var (
	_ repairsvc.TechnicianSuggester = (*TechnicianSuggester)(nil)
	_ repairsvc.TechnicianLookup    = (*TechnicianLookup)(nil)
)
