package calendar

import (
	"testing"
	"time"

	"repair_backend/platform/apperr"
)

func TestParseTimeSlot(t *testing.T) {
	for _, slot := range AllSlots() {
		got, err := ParseTimeSlot(string(slot))
		if err != nil || got != slot {
			t.Errorf("ParseTimeSlot(%q) = %q, %v", slot, got, err)
		}
	}

	if _, err := ParseTimeSlot("12:00-14:00"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for lunch slot, got %v", err)
	}
}

func TestStartAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	start := Slot1400.StartAt(day, loc)
	if start.Hour() != 14 || start.Location() != loc || start.Day() != 14 {
		t.Fatalf("unexpected start %v", start)
	}
	if !Slot1400.EndAt(day, loc).Equal(start.Add(2 * time.Hour)) {
		t.Fatal("slot must last two hours")
	}
}

func TestFromStringsKeepsChronologicalOrder(t *testing.T) {
	got := FromStrings([]string{"16:00-18:00", "bogus", "08:00-10:00", "16:00-18:00"})
	if len(got) != 2 || got[0] != Slot0800 || got[1] != Slot1600 {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestDayUsesLocationCalendar(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	instant := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)

	if got := FormatDate(Day(instant, loc)); got != "2026-05-02" {
		t.Fatalf("Day() = %s, want 2026-05-02", got)
	}
}

func TestParseDate(t *testing.T) {
	day, err := ParseDate("2026-11-03")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if day.Location() != time.UTC || day.Hour() != 0 {
		t.Fatalf("expected midnight UTC, got %v", day)
	}
	if _, err := ParseDate("03/11/2026"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordIsOpen(t *testing.T) {
	rec := Record{OpenSlots: []TimeSlot{Slot0800, Slot1600}}
	if !rec.IsOpen(Slot0800) || rec.IsOpen(Slot1000) {
		t.Fatal("unexpected IsOpen result")
	}
}
