package service

import (
	"context"
	"io"
	"sync"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/internal/events"
	"repair_backend/internal/outbox"
	"repair_backend/internal/pricing"
	"repair_backend/internal/repairs/domain"
	"repair_backend/internal/repairs/repository"
	"repair_backend/platform/apperr"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
)

type slotRef struct {
	day  time.Time
	slot calendar.TimeSlot
}

type fakeRepo struct {
	repairs   map[uuid.UUID]domain.RepairRequest
	slots     map[uuid.UUID]slotRef
	estimates []domain.Estimate
	photos    []domain.Photo
	updates   []repository.StatusUpdate
	outbox    []outbox.Event
	reopened  []slotRef
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{repairs: map[uuid.UUID]domain.RepairRequest{}, slots: map[uuid.UUID]slotRef{}}
}

func (r *fakeRepo) Create(_ context.Context, req domain.RepairRequest, evt outbox.Event) error {
	r.repairs[req.ID] = req
	r.outbox = append(r.outbox, evt)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.RepairRequest, error) {
	req, ok := r.repairs[id]
	if !ok {
		return domain.RepairRequest{}, apperr.NotFound("repair request not found")
	}
	return req, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.RepairRequest, int, error) {
	var all []domain.RepairRequest
	for _, req := range r.repairs {
		if req.UserID == userID {
			all = append(all, req)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *fakeRepo) ApplyStatus(_ context.Context, u repository.StatusUpdate) (*repository.StatusResult, error) {
	r.updates = append(r.updates, u)
	req, ok := r.repairs[u.ID]
	if !ok || req.Status != u.From {
		return nil, apperr.InvalidState("repair request status changed, reload and retry")
	}
	result := &repository.StatusResult{}
	if u.Release && req.AppointmentID != nil {
		ref := r.slots[*req.AppointmentID]
		result.Released = &repository.ReleasedAppointment{
			ID:            *req.AppointmentID,
			TechnicianID:  *req.TechnicianID,
			UserID:        req.UserID,
			ScheduledDate: ref.day,
			TimeSlot:      ref.slot,
		}
		if u.ReopenSlot {
			r.reopened = append(r.reopened, ref)
		}
		cancelled := events.AppointmentCancelled{
			BaseEvent:       events.NewBaseEvent(),
			AppointmentID:   *req.AppointmentID,
			RepairRequestID: req.ID,
			TechnicianID:    *req.TechnicianID,
			UserID:          req.UserID,
			ScheduledDate:   calendar.FormatDate(ref.day),
			TimeSlot:        string(ref.slot),
		}
		if u.Reason != nil {
			cancelled.Reason = *u.Reason
		}
		env, err := outbox.FromDomain(outbox.AggregateAppointment, cancelled.AppointmentID.String(), cancelled)
		if err != nil {
			return nil, err
		}
		r.outbox = append(r.outbox, env)
		result.Cancelled = &cancelled
		delete(r.slots, *req.AppointmentID)
		req.TechnicianID = nil
		req.AppointmentID = nil
	}
	if u.ActualCost != nil {
		req.ActualCost = u.ActualCost
	}
	req.Status = u.To
	r.repairs[u.ID] = req
	r.outbox = append(r.outbox, u.Event)
	result.Repair = req
	return result, nil
}

func (r *fakeRepo) ActiveAppointmentSlot(_ context.Context, appointmentID uuid.UUID) (time.Time, calendar.TimeSlot, bool, error) {
	ref, ok := r.slots[appointmentID]
	return ref.day, ref.slot, ok, nil
}

func (r *fakeRepo) CreateEstimate(_ context.Context, est domain.Estimate) error {
	r.estimates = append(r.estimates, est)
	req := r.repairs[est.RepairRequestID]
	cost := est.MaxCost
	req.EstimatedCost = &cost
	r.repairs[est.RepairRequestID] = req
	return nil
}

func (r *fakeRepo) ListEstimates(_ context.Context, repairID uuid.UUID) ([]domain.Estimate, error) {
	var out []domain.Estimate
	for _, e := range r.estimates {
		if e.RepairRequestID == repairID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreatePhoto(_ context.Context, p domain.Photo) error {
	r.photos = append(r.photos, p)
	return nil
}

func (r *fakeRepo) ListPhotos(_ context.Context, repairID uuid.UUID) ([]domain.Photo, error) {
	var out []domain.Photo
	for _, p := range r.photos {
		if p.RepairRequestID == repairID {
			out = append(out, p)
		}
	}
	return out, nil
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

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.EventName()
	}
	return out
}

type stubSuggester struct {
	suggestion *SuggestedTechnician
	err        error
	calls      int
}

func (s *stubSuggester) SuggestTechnician(context.Context, string, string, string) (*SuggestedTechnician, error) {
	s.calls++
	return s.suggestion, s.err
}

type stubLookup map[uuid.UUID]uuid.UUID

func (l stubLookup) TechnicianIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := l[userID]
	if !ok {
		return uuid.UUID{}, apperr.NotFound("technician not found")
	}
	return id, nil
}

func testPricing() CostCalculator {
	table, err := pricing.Default()
	if err != nil {
		panic(err)
	}
	return table
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}
