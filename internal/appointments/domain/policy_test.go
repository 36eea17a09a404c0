package domain

import (
	"testing"
	"time"

	"repair_backend/internal/calendar"
	"repair_backend/platform/apperr"
)

func TestCancellationPolicyCutoff(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	appt := Appointment{
		ScheduledDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		TimeSlot:      calendar.Slot1000,
		Status:        StatusScheduled,
	}
	start := appt.SlotStart(loc)
	policy := CancellationPolicy{Cutoff: 2 * time.Hour, Location: loc}

	cases := []struct {
		name string
		now  time.Time
		ok   bool
	}{
		{"three hours before", start.Add(-3 * time.Hour), true},
		{"one second outside", start.Add(-2*time.Hour - time.Second), true},
		{"exactly at cutoff", start.Add(-2 * time.Hour), false},
		{"one hour before", start.Add(-time.Hour), false},
		{"after start", start.Add(time.Minute), false},
	}
	for _, tc := range cases {
		err := policy.Check(appt, tc.now)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !apperr.Is(err, apperr.KindInvalidState) {
			t.Errorf("%s: expected invalid state, got %v", tc.name, err)
		}
	}
}

func TestCancellationPolicyRejectsInactive(t *testing.T) {
	policy := CancellationPolicy{}
	far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, status := range []Status{StatusCancelled, StatusCompleted} {
		appt := Appointment{ScheduledDate: far, TimeSlot: calendar.Slot1400, Status: status}
		if err := policy.Check(appt, far.AddDate(0, -1, 0)); !apperr.Is(err, apperr.KindInvalidState) {
			t.Errorf("%s: expected invalid state, got %v", status, err)
		}
	}
}

func TestSlotStartUsesSchedulingLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	appt := Appointment{ScheduledDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), TimeSlot: calendar.Slot0800}
	if got := appt.SlotStart(loc).UTC(); got.Hour() != 7 {
		t.Fatalf("slot start in UTC = %v, want 07:00", got)
	}
}
