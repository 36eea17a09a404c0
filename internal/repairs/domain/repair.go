package domain

import (
	"fmt"
	"strings"
	"time"

	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

// Urgency is how quickly the customer needs the repair.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency validates an urgency label.
func ParseUrgency(value string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(value))); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("urgency level must be low, medium or high, got %q", value))
	}
}

// Device describes the item to repair.
type Device struct {
	Type  string
	Brand string
	Model string
}

// RepairRequest is one customer repair job. TechnicianID and AppointmentID
// are set together by a booking and cleared together by its cancellation.
type RepairRequest struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Device           Device
	IssueDescription string
	Urgency          Urgency
	EstimatedCost    *int64
	ActualCost       *int64
	Status           Status
	TechnicianID     *uuid.UUID
	AppointmentID    *uuid.UUID
	ContactEmail     string
	ContactPhone     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRepairRequest validates the device fields and returns a pending request.
func NewRepairRequest(userID uuid.UUID, device Device, issue string, urgency Urgency, now time.Time) (RepairRequest, error) {
	device = Device{
		Type:  strings.ToLower(strings.TrimSpace(device.Type)),
		Brand: strings.TrimSpace(device.Brand),
		Model: strings.TrimSpace(device.Model),
	}
	switch {
	case device.Type == "":
		return RepairRequest{}, apperr.Validation("device type is required")
	case device.Brand == "":
		return RepairRequest{}, apperr.Validation("device brand is required")
	case device.Model == "":
		return RepairRequest{}, apperr.Validation("device model is required")
	case strings.TrimSpace(issue) == "":
		return RepairRequest{}, apperr.Validation("issue description is required")
	}
	if _, err := ParseUrgency(string(urgency)); err != nil {
		return RepairRequest{}, err
	}

	return RepairRequest{
		ID:               uuid.New(),
		UserID:           userID,
		Device:           device,
		IssueDescription: strings.TrimSpace(issue),
		Urgency:          urgency,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// OwnedBy reports whether userID opened the request.
func (r RepairRequest) OwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// AssignedTo reports whether the request is assigned to technicianID.
func (r RepairRequest) AssignedTo(technicianID uuid.UUID) bool {
	return r.TechnicianID != nil && *r.TechnicianID == technicianID
}

// Estimate is a persisted cost range for a repair request.
type Estimate struct {
	ID              uuid.UUID
	RepairRequestID uuid.UUID
	DeviceType      string
	IssueType       string
	MinCost         int64
	MaxCost         int64
	Currency        string
	CreatedAt       time.Time
}

// Photo is an image of the device uploaded to object storage.
type Photo struct {
	ID              uuid.UUID
	RepairRequestID uuid.UUID
	FileKey         string
	FileName        string
	ContentType     string
	SizeBytes       int64
	CreatedAt       time.Time
}
