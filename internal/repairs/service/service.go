// Package service implements the repair request use cases: creation with a
// technician suggestion, direct cancellation, technician-side progress,
// estimates and device photos.
package service

import (
	"context"
	"time"

	"repair_backend/internal/adapters/storage"
	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/internal/pricing"
	"repair_backend/internal/repairs/domain"
	"repair_backend/internal/repairs/repository"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	photoFolder     = "repairs"
)

// Repository is the persistence port of the repairs module.
type Repository interface {
	Create(ctx context.Context, req domain.RepairRequest, evt outbox.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.RepairRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.RepairRequest, int, error)
	ApplyStatus(ctx context.Context, u repository.StatusUpdate) (*repository.StatusResult, error)
	ActiveAppointmentSlot(ctx context.Context, appointmentID uuid.UUID) (time.Time, calendar.TimeSlot, bool, error)
	CreateEstimate(ctx context.Context, est domain.Estimate) error
	ListEstimates(ctx context.Context, repairID uuid.UUID) ([]domain.Estimate, error)
	CreatePhoto(ctx context.Context, p domain.Photo) error
	ListPhotos(ctx context.Context, repairID uuid.UUID) ([]domain.Photo, error)
}

// SuggestedTechnician is the matcher's pick, decoupled from the technicians module.
type SuggestedTechnician struct {
	ID     uuid.UUID
	Name   string
	Rating float64
	Score  float64
}

// TechnicianSuggester picks the best technician for a device type and place.
// Implemented by an adapter in internal/adapters over the technicians service.
type TechnicianSuggester interface {
	SuggestTechnician(ctx context.Context, deviceType, region, city string) (*SuggestedTechnician, error)
}

// TechnicianLookup resolves the technician profile of a login account.
type TechnicianLookup interface {
	TechnicianIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// CostCalculator looks up a repair cost range.
type CostCalculator interface {
	Calculate(deviceType, issueType string) pricing.Estimate
}

// Policy holds the scheduling rules the repairs module shares with appointments.
type Policy struct {
	Location           *time.Location
	CancellationCutoff time.Duration
	PhoneRegion        string
}

// Service provides business logic for repair requests
type Service struct {
	repo        Repository
	costs       CostCalculator
	bus         events.Bus
	log         *logger.Logger
	policy      Policy
	suggester   TechnicianSuggester // optional
	technicians TechnicianLookup    // optional, required for technician actions
	storage     storage.StorageService
	bucket      string
	now         func() time.Time
}

// New creates a new repairs service
func New(repo Repository, costs CostCalculator, bus events.Bus, log *logger.Logger, policy Policy) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Service{
		repo:   repo,
		costs:  costs,
		bus:    bus,
		log:    log,
		policy: policy,
		now:    time.Now,
	}
}

// SetTechnicianSuggester injects the matcher used on creation.
func (s *Service) SetTechnicianSuggester(suggester TechnicianSuggester) {
	s.suggester = suggester
}

// SetTechnicianLookup injects the user to technician resolution.
func (s *Service) SetTechnicianLookup(lookup TechnicianLookup) {
	s.technicians = lookup
}

// SetPhotoStorage enables device photos stored in bucket.
func (s *Service) SetPhotoStorage(svc storage.StorageService, bucket string) {
	s.storage = svc
	s.bucket = bucket
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
