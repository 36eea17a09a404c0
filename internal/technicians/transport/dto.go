package transport

import (
	"github.com/google/uuid"
)

// CreateTechnicianRequest is the admin request body for provisioning a technician
type CreateTechnicianRequest struct {
	UserID      *uuid.UUID `json:"userId,omitempty"`
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Email       string     `json:"email" validate:"required,email,max=254"`
	Phone       string     `json:"phone,omitempty" validate:"max=32"`
	Specialties []string   `json:"specialties" validate:"required,min=1,dive,oneof=smartphone tablet laptop desktop tv console appliance"`
	Rating      float64    `json:"rating" validate:"min=0,max=5"`
	Region      string     `json:"region" validate:"required,max=120"`
	City        string     `json:"city,omitempty" validate:"max=120"`
	Commune     string     `json:"commune,omitempty" validate:"max=120"`
}

// MatchQuery is the query string for finding the best technician
type MatchQuery struct {
	Specialty string `form:"specialty" json:"specialty" validate:"required"`
	Region    string `form:"region" json:"region" validate:"required,max=120"`
	City      string `form:"city" json:"city" validate:"max=120"`
}

// AvailabilityQuery bounds the calendar listing. Dates are YYYY-MM-DD.
type AvailabilityQuery struct {
	From string `form:"from" json:"from"`
	To   string `form:"to" json:"to"`
}

// SlotsRequest names the slots to open or close on a day
type SlotsRequest struct {
	Slots []string `json:"slots" validate:"required,min=1,dive,oneof=08:00-10:00 10:00-12:00 14:00-16:00 16:00-18:00"`
}

// TechnicianResponse is the public view of a technician
type TechnicianResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Specialties []string  `json:"specialties"`
	Rating      float64   `json:"rating"`
	IsAvailable bool      `json:"isAvailable"`
	Region      string    `json:"region"`
	City        string    `json:"city,omitempty"`
	Commune     string    `json:"commune,omitempty"`
}

// MatchResponse carries the best technician, or null when nobody is free
type MatchResponse struct {
	Technician *TechnicianResponse `json:"technician"`
	Score      float64             `json:"score,omitempty"`
}

// AvailabilityDay lists the open slots of one day
type AvailabilityDay struct {
	Date      string   `json:"date"`
	OpenSlots []string `json:"openSlots"`
}

// AvailabilityResponse is a technician's calendar over a window
type AvailabilityResponse struct {
	TechnicianID uuid.UUID         `json:"technicianId"`
	From         string            `json:"from"`
	To           string            `json:"to"`
	Days         []AvailabilityDay `json:"days"`
}
