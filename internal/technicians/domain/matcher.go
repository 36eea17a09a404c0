package domain

import (
	"strings"

	"repair_backend/platform/apperr"
)

// Score weights.
const (
	scoreAvailable = 50
	scoreSpecialty = 30
	scoreLocation  = 20
	ratingWeight   = 2
)

// MatchCriteria is what a repair needs from a technician.
type MatchCriteria struct {
	Specialty Specialty
	Location  Location
}

// Validate checks the specialty and the required region.
func (c MatchCriteria) Validate() error {
	if !c.Specialty.Valid() {
		return apperr.Validation("a known specialty is required")
	}
	if strings.TrimSpace(c.Location.Region) == "" {
		return apperr.Validation("region is required")
	}
	return nil
}

// Score rates t against c. Higher is better.
func Score(t Technician, c MatchCriteria) float64 {
	score := 0.0
	if t.IsAvailable {
		score += scoreAvailable
	}
	if t.HasSpecialty(c.Specialty) {
		score += scoreSpecialty
	}
	if locationMatches(t.Location, c.Location) {
		score += scoreLocation
	}
	return score + t.Rating*ratingWeight
}

// locationMatches requires the same region, and the same city when the
// request names one. Comparison ignores case and surrounding spaces.
func locationMatches(have, want Location) bool {
	if !sameName(have.Region, want.Region) {
		return false
	}
	if strings.TrimSpace(want.City) == "" {
		return true
	}
	return sameName(have.City, want.City)
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindBest returns the highest scoring candidate, or nil for an empty list.
// Ties keep the earliest candidate in the given order.
func FindBest(candidates []Technician, c MatchCriteria) *Technician {
	var best *Technician
	bestScore := 0.0
	for i := range candidates {
		s := Score(candidates[i], c)
		if best == nil || s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}
