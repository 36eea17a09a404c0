package domain

import (
	"time"

	"repair_backend/platform/apperr"
)

// DefaultCancellationCutoff is how long before the slot start a customer may
// still cancel or reschedule.
const DefaultCancellationCutoff = 2 * time.Hour

// CancellationPolicy decides whether an appointment may still be released.
type CancellationPolicy struct {
	Cutoff   time.Duration
	Location *time.Location
}

// Check applies the status rule then the cutoff rule. Cancelling is allowed
// only while now is strictly before slot start minus the cutoff.
func (p CancellationPolicy) Check(a Appointment, now time.Time) error {
	if !a.Status.IsActive() {
		return apperr.InvalidState("appointment is already " + string(a.Status))
	}
	if !now.Before(a.SlotStart(p.location()).Add(-p.cutoff())) {
		return apperr.InvalidState("too close to appointment")
	}
	return nil
}

func (p CancellationPolicy) cutoff() time.Duration {
	if p.Cutoff <= 0 {
		return DefaultCancellationCutoff
	}
	return p.Cutoff
}

func (p CancellationPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
