package transport

import (
	"time"

	"github.com/google/uuid"
)

// LocationRequest is where the repair takes place, used to suggest a technician
type LocationRequest struct {
	Region string `json:"region" validate:"required,max=120"`
	City   string `json:"city,omitempty" validate:"max=120"`
}

// CreateRepairRequest is the request body for opening a repair request
type CreateRepairRequest struct {
	DeviceType       string           `json:"deviceType" validate:"required,max=60"`
	DeviceBrand      string           `json:"deviceBrand" validate:"required,max=120"`
	DeviceModel      string           `json:"deviceModel" validate:"required,max=120"`
	IssueDescription string           `json:"issueDescription" validate:"required,min=3,max=4000"`
	UrgencyLevel     string           `json:"urgencyLevel" validate:"required,oneof=low medium high"`
	ContactEmail     string           `json:"contactEmail,omitempty" validate:"omitempty,email,max=254"`
	ContactPhone     string           `json:"contactPhone,omitempty" validate:"max=32"`
	Location         *LocationRequest `json:"location,omitempty"`
}

// ListRepairsQuery is the query string for listing the caller's repair requests
type ListRepairsQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// CancelRepairRequest is the optional body of a direct cancellation
type CancelRepairRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CompleteRepairRequest is the body a technician sends when the job is done
type CompleteRepairRequest struct {
	ActualCost *int64 `json:"actualCost,omitempty" validate:"omitempty,min=0"`
}

// EstimateRequest asks for a cost estimate for an issue type
type EstimateRequest struct {
	IssueType string `json:"issueType" validate:"required,max=120"`
}

// EstimateQuery is the query string of the standalone price lookup
type EstimateQuery struct {
	DeviceType string `form:"deviceType" validate:"required,max=60"`
	IssueType  string `form:"issueType" validate:"max=120"`
}

// PhotoUploadRequest describes a photo the client is about to upload
type PhotoUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// RepairResponse is the response body for a repair request
type RepairResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"userId"`
	DeviceType       string     `json:"deviceType"`
	DeviceBrand      string     `json:"deviceBrand"`
	DeviceModel      string     `json:"deviceModel"`
	IssueDescription string     `json:"issueDescription"`
	UrgencyLevel     string     `json:"urgencyLevel"`
	EstimatedCost    *int64     `json:"estimatedCost,omitempty"`
	ActualCost       *int64     `json:"actualCost,omitempty"`
	Status           string     `json:"status"`
	TechnicianID     *uuid.UUID `json:"technicianId,omitempty"`
	AppointmentID    *uuid.UUID `json:"appointmentId,omitempty"`
	ContactEmail     string     `json:"contactEmail,omitempty"`
	ContactPhone     string     `json:"contactPhone,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SuggestedTechnicianResponse is the matcher's pick for a new request
type SuggestedTechnicianResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Rating float64   `json:"rating"`
	Score  float64   `json:"score"`
}

// CreateRepairResponse wraps the created request and an optional suggestion
type CreateRepairResponse struct {
	Repair              RepairResponse               `json:"repair"`
	SuggestedTechnician *SuggestedTechnicianResponse `json:"suggestedTechnician,omitempty"`
}

// RepairListResponse is a page of repair requests
type RepairListResponse struct {
	Items      []RepairResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// EstimateResponse is a cost range. ID and RepairRequestID are only set for
// persisted estimates.
type EstimateResponse struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	RepairRequestID *uuid.UUID `json:"repairRequestId,omitempty"`
	DeviceType      string     `json:"deviceType"`
	IssueType       string     `json:"issueType"`
	MinCost         int64      `json:"minCost"`
	MaxCost         int64      `json:"maxCost"`
	Currency        string     `json:"currency"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// PhotoResponse describes a stored photo
type PhotoResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}

// PhotoUploadResponse carries the presigned PUT URL for a new photo
type PhotoUploadResponse struct {
	Photo     PhotoResponse `json:"photo"`
	UploadURL string        `json:"uploadUrl"`
	ExpiresAt time.Time     `json:"expiresAt"`
}
