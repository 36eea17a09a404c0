// Package domain holds the technician directory model and the matching rule
// used to pick a technician for a repair.
package domain

import (
	"fmt"
	"strings"
	"time"

	"repair_backend/platform/apperr"

	"github.com/google/uuid"
)

// Specialty is a category of device repair expertise.
type Specialty string

const (
	SpecialtySmartphone Specialty = "smartphone"
	SpecialtyTablet     Specialty = "tablet"
	SpecialtyLaptop     Specialty = "laptop"
	SpecialtyDesktop    Specialty = "desktop"
	SpecialtyTV         Specialty = "tv"
	SpecialtyConsole    Specialty = "console"
	SpecialtyAppliance  Specialty = "appliance"
)

var specialties = map[Specialty]bool{
	SpecialtySmartphone: true,
	SpecialtyTablet:     true,
	SpecialtyLaptop:     true,
	SpecialtyDesktop:    true,
	SpecialtyTV:         true,
	SpecialtyConsole:    true,
	SpecialtyAppliance:  true,
}

// ParseSpecialty normalizes and validates a specialty label.
func ParseSpecialty(value string) (Specialty, error) {
	s := Specialty(strings.ToLower(strings.TrimSpace(value)))
	if !specialties[s] {
		return "", apperr.Validation(fmt.Sprintf("unknown specialty %q", value))
	}
	return s, nil
}

// Valid reports whether s belongs to the fixed specialty set.
func (s Specialty) Valid() bool {
	return specialties[s]
}

// Location is where a technician works or where a repair takes place.
type Location struct {
	Region  string
	City    string
	Commune string
}

// Contact holds how a technician is reached.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Technician is a service provider in the directory. IsAvailable is derived
// from the availability calendar when the technician is loaded.
type Technician struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	Contact     Contact
	Specialties []Specialty
	Rating      float64
	IsAvailable bool
	Location    Location
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasSpecialty reports whether the technician covers s.
func (t Technician) HasSpecialty(s Specialty) bool {
	for _, own := range t.Specialties {
		if own == s {
			return true
		}
	}
	return false
}

// ParseSpecialties validates a non-empty list and drops duplicates.
func ParseSpecialties(values []string) ([]Specialty, error) {
	if len(values) == 0 {
		return nil, apperr.Validation("at least one specialty is required")
	}
	seen := make(map[Specialty]bool, len(values))
	out := make([]Specialty, 0, len(values))
	for _, v := range values {
		s, err := ParseSpecialty(v)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// SpecialtiesFromStrings converts stored labels without validation.
func SpecialtiesFromStrings(values []string) []Specialty {
	out := make([]Specialty, len(values))
	for i, v := range values {
		out[i] = Specialty(v)
	}
	return out
}

// SpecialtyStrings converts specialties to their stored labels.
func SpecialtyStrings(values []Specialty) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
