package adapters

import (
	"context"
	"testing"
	"time"

	"repair_backend/internal/calendar"
	techdomain "repair_backend/internal/technicians/domain"
	techsvc "repair_backend/internal/technicians/service"
	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

type directoryStub struct {
	available []techdomain.Technician
}

func (d directoryStub) GetByID(_ context.Context, id uuid.UUID, _ time.Time) (techdomain.Technician, error) {
	for _, t := range d.available {
		if t.ID == id {
			return t, nil
		}
	}
	return techdomain.Technician{}, apperr.NotFound("technician not found")
}

func (d directoryStub) GetByUserID(_ context.Context, userID uuid.UUID, _ time.Time) (techdomain.Technician, error) {
	for _, t := range d.available {
		if t.UserID != nil && *t.UserID == userID {
			return t, nil
		}
	}
	return techdomain.Technician{}, apperr.NotFound("technician not found")
}

func (d directoryStub) ListAvailable(context.Context, time.Time) ([]techdomain.Technician, error) {
	return d.available, nil
}

func (d directoryStub) Create(context.Context, techdomain.Technician) error { return nil }

func (d directoryStub) OpenSlots(context.Context, uuid.UUID, time.Time, []calendar.TimeSlot) (*calendar.Record, error) {
	return nil, nil
}

func (d directoryStub) CloseSlots(context.Context, uuid.UUID, time.Time, []calendar.TimeSlot) (*calendar.Record, error) {
	return nil, nil
}

func (d directoryStub) ListAvailability(context.Context, uuid.UUID, time.Time, time.Time) ([]calendar.Record, error) {
	return nil, nil
}

func directory() (*techsvc.Service, techdomain.Technician) {
	userID := uuid.New()
	t1 := techdomain.Technician{
		ID: uuid.New(), Contact: techdomain.Contact{Name: "T1"},
		Specialties: []techdomain.Specialty{techdomain.SpecialtySmartphone},
		Rating:      4, IsAvailable: true, Location: techdomain.Location{Region: "Centre"},
	}
	t2 := techdomain.Technician{
		ID: uuid.New(), UserID: &userID, Contact: techdomain.Contact{Name: "T2"},
		Specialties: []techdomain.Specialty{techdomain.SpecialtySmartphone, techdomain.SpecialtyLaptop},
		Rating:      5, IsAvailable: true, Location: techdomain.Location{Region: "Centre"},
	}
	return techsvc.New(directoryStub{available: []techdomain.Technician{t1, t2}}, time.UTC, "CM"), t2
}

func TestSuggestTechnicianScoresBestMatch(t *testing.T) {
	svc, t2 := directory()
	got, err := NewTechnicianSuggester(svc).SuggestTechnician(context.Background(), "smartphone", "Centre", "")
	if err != nil {
		t.Fatalf("SuggestTechnician() error = %v", err)
	}
	if got == nil || got.ID != t2.ID || got.Score != 110 || got.Name != "T2" {
		t.Fatalf("unexpected suggestion %+v", got)
	}
}

func TestSuggestTechnicianIgnoresUnknownDevice(t *testing.T) {
	svc, _ := directory()
	got, err := NewTechnicianSuggester(svc).SuggestTechnician(context.Background(), "drone", "Centre", "")
	if err != nil || got != nil {
		t.Fatalf("expected no suggestion, got %+v, %v", got, err)
	}
}

func TestAppointmentTechnicianReader(t *testing.T) {
	svc, t2 := directory()
	reader := NewAppointmentTechnicianReader(svc)

	snap, err := reader.GetTechnicianForScheduling(context.Background(), t2.ID)
	if err != nil || !snap.IsAvailable || snap.Name != "T2" {
		t.Fatalf("unexpected snapshot %+v, %v", snap, err)
	}
	id, err := reader.TechnicianIDForUser(context.Background(), *t2.UserID)
	if err != nil || id != t2.ID {
		t.Fatalf("TechnicianIDForUser() = %v, %v", id, err)
	}
	if _, err := reader.TechnicianIDForUser(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
