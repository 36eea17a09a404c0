// Package service implements the technician directory use cases: matching,
// provisioning and availability calendar management.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/internal/technicians/domain"
	"repair_backend/internal/technicians/transport"
	"repair_backend/platform/apperr"
	"repair_backend/platform/phone"
	"repair_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultAvailabilityDays = 14
	maxAvailabilityDays     = 62
)

// Repository is the persistence port of the directory.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID, today time.Time) (domain.Technician, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, today time.Time) (domain.Technician, error)
	ListAvailable(ctx context.Context, today time.Time) ([]domain.Technician, error)
	Create(ctx context.Context, t domain.Technician) error
	OpenSlots(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []calendar.TimeSlot) (*calendar.Record, error)
	CloseSlots(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []calendar.TimeSlot) (*calendar.Record, error)
	ListAvailability(ctx context.Context, technicianID uuid.UUID, from, to time.Time) ([]calendar.Record, error)
}

// Service provides technician business logic
type Service struct {
	repo        Repository
	loc         *time.Location
	phoneRegion string
	now         func() time.Time
}

// New creates a new technicians service. Calendar days are resolved in loc.
func New(repo Repository, loc *time.Location, phoneRegion string) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, phoneRegion: phoneRegion, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return calendar.Day(s.now(), s.loc)
}

// FindBestTechnician scores every available technician against criteria and
// returns the best one, or nil when nobody has an open slot.
func (s *Service) FindBestTechnician(ctx context.Context, criteria domain.MatchCriteria) (*domain.Technician, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	candidates, err := s.repo.ListAvailable(ctx, s.today())
	if err != nil {
		return nil, err
	}
	return domain.FindBest(candidates, criteria), nil
}

// Match handles the public match query.
func (s *Service) Match(ctx context.Context, q transport.MatchQuery) (transport.MatchResponse, error) {
	specialty, err := domain.ParseSpecialty(q.Specialty)
	if err != nil {
		return transport.MatchResponse{}, err
	}
	criteria := domain.MatchCriteria{
		Specialty: specialty,
		Location:  domain.Location{Region: q.Region, City: q.City},
	}
	best, err := s.FindBestTechnician(ctx, criteria)
	if err != nil {
		return transport.MatchResponse{}, err
	}
	if best == nil {
		return transport.MatchResponse{}, nil
	}
	resp := ToResponse(*best)
	return transport.MatchResponse{Technician: &resp, Score: domain.Score(*best, criteria)}, nil
}

// GetTechnician loads a technician with its derived availability.
func (s *Service) GetTechnician(ctx context.Context, id uuid.UUID) (domain.Technician, error) {
	return s.repo.GetByID(ctx, id, s.today())
}

// GetByUserID loads the technician linked to a login account.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Technician, error) {
	return s.repo.GetByUserID(ctx, userID, s.today())
}

// GetByID returns the public view of a technician.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.TechnicianResponse, error) {
	t, err := s.GetTechnician(ctx, id)
	if err != nil {
		return transport.TechnicianResponse{}, err
	}
	return ToResponse(t), nil
}

// Create provisions a technician. The phone number is stored in E.164 when
// it can be parsed.
func (s *Service) Create(ctx context.Context, req transport.CreateTechnicianRequest) (transport.TechnicianResponse, error) {
	specialties, err := domain.ParseSpecialties(req.Specialties)
	if err != nil {
		return transport.TechnicianResponse{}, err
	}
	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.TechnicianResponse{}, apperr.Validation("name is required")
	}
	region := strings.TrimSpace(req.Region)
	if region == "" {
		return transport.TechnicianResponse{}, apperr.Validation("region is required")
	}

	phoneNumber := strings.TrimSpace(req.Phone)
	if phoneNumber != "" {
		normalized, ok := phone.NormalizeE164(phoneNumber, s.phoneRegion)
		if !ok {
			return transport.TechnicianResponse{}, apperr.Validation("phone number is not valid")
		}
		phoneNumber = normalized
	}

	now := s.now().UTC()
	t := domain.Technician{
		ID:     uuid.New(),
		UserID: req.UserID,
		Contact: domain.Contact{
			Name:  name,
			Email: strings.ToLower(strings.TrimSpace(req.Email)),
			Phone: phoneNumber,
		},
		Specialties: specialties,
		Rating:      req.Rating,
		Location: domain.Location{
			Region:  region,
			City:    strings.TrimSpace(req.City),
			Commune: strings.TrimSpace(req.Commune),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return transport.TechnicianResponse{}, err
	}
	return ToResponse(t), nil
}

// OpenSlots opens slots on a day that is today or later.
func (s *Service) OpenSlots(ctx context.Context, technicianID uuid.UUID, date string, req transport.SlotsRequest) (transport.AvailabilityDay, error) {
	return s.changeSlots(ctx, technicianID, date, req, s.repo.OpenSlots)
}

// CloseSlots closes slots on a day that is today or later.
func (s *Service) CloseSlots(ctx context.Context, technicianID uuid.UUID, date string, req transport.SlotsRequest) (transport.AvailabilityDay, error) {
	return s.changeSlots(ctx, technicianID, date, req, s.repo.CloseSlots)
}

type slotChange func(ctx context.Context, technicianID uuid.UUID, day time.Time, slots []calendar.TimeSlot) (*calendar.Record, error)

func (s *Service) changeSlots(ctx context.Context, technicianID uuid.UUID, date string, req transport.SlotsRequest, apply slotChange) (transport.AvailabilityDay, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return transport.AvailabilityDay{}, err
	}
	if day.Before(s.today()) {
		return transport.AvailabilityDay{}, apperr.Validation("cannot change availability in the past")
	}
	slots := make([]calendar.TimeSlot, 0, len(req.Slots))
	for _, raw := range req.Slots {
		slot, err := calendar.ParseTimeSlot(raw)
		if err != nil {
			return transport.AvailabilityDay{}, err
		}
		slots = append(slots, slot)
	}
	if _, err := s.GetTechnician(ctx, technicianID); err != nil {
		return transport.AvailabilityDay{}, err
	}

	rec, err := apply(ctx, technicianID, day, slots)
	if err != nil {
		return transport.AvailabilityDay{}, err
	}
	return toDay(*rec), nil
}

// ListAvailability returns the open slots per day. The window defaults to
// two weeks starting today.
func (s *Service) ListAvailability(ctx context.Context, technicianID uuid.UUID, q transport.AvailabilityQuery) (transport.AvailabilityResponse, error) {
	from := s.today()
	if q.From != "" {
		parsed, err := calendar.ParseDate(q.From)
		if err != nil {
			return transport.AvailabilityResponse{}, err
		}
		from = parsed
	}
	to := from.AddDate(0, 0, defaultAvailabilityDays-1)
	if q.To != "" {
		parsed, err := calendar.ParseDate(q.To)
		if err != nil {
			return transport.AvailabilityResponse{}, err
		}
		to = parsed
	}
	if to.Before(from) {
		return transport.AvailabilityResponse{}, apperr.Validation("to must not be before from")
	}
	if to.Sub(from) >= maxAvailabilityDays*24*time.Hour {
		return transport.AvailabilityResponse{}, apperr.Validation(fmt.Sprintf("window is limited to %d days", maxAvailabilityDays))
	}

	if _, err := s.GetTechnician(ctx, technicianID); err != nil {
		return transport.AvailabilityResponse{}, err
	}
	records, err := s.repo.ListAvailability(ctx, technicianID, from, to)
	if err != nil {
		return transport.AvailabilityResponse{}, err
	}

	days := make([]transport.AvailabilityDay, 0, len(records))
	for _, rec := range records {
		days = append(days, toDay(rec))
	}
	return transport.AvailabilityResponse{
		TechnicianID: technicianID,
		From:         calendar.FormatDate(from),
		To:           calendar.FormatDate(to),
		Days:         days,
	}, nil
}

// ToResponse maps a technician to its public view.
func ToResponse(t domain.Technician) transport.TechnicianResponse {
	return transport.TechnicianResponse{
		ID:          t.ID,
		Name:        t.Contact.Name,
		Email:       t.Contact.Email,
		Phone:       t.Contact.Phone,
		Specialties: domain.SpecialtyStrings(t.Specialties),
		Rating:      t.Rating,
		IsAvailable: t.IsAvailable,
		Region:      t.Location.Region,
		City:        t.Location.City,
		Commune:     t.Location.Commune,
	}
}

func toDay(rec calendar.Record) transport.AvailabilityDay {
	return transport.AvailabilityDay{
		Date:      calendar.FormatDate(rec.Date),
		OpenSlots: calendar.Strings(rec.OpenSlots),
	}
}
