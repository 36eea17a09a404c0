// Package calendar is the technician availability calendar: the fixed daily
// time slots and the per technician, per day record of slots still open.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"repair_backend/platform/apperr"
)

// TimeSlot is one of the fixed two-hour appointment windows of a day.
type TimeSlot string

const (
	Slot0800 TimeSlot = "08:00-10:00"
	Slot1000 TimeSlot = "10:00-12:00"
	Slot1400 TimeSlot = "14:00-16:00"
	Slot1600 TimeSlot = "16:00-18:00"
)

// slotStartHour maps each slot to the hour it begins.
var slotStartHour = map[TimeSlot]int{
	Slot0800: 8,
	Slot1000: 10,
	Slot1400: 14,
	Slot1600: 16,
}

const slotLength = 2 * time.Hour

const dateLayout = "2006-01-02"

// AllSlots returns every slot of a day in chronological order.
func AllSlots() []TimeSlot {
	return []TimeSlot{Slot0800, Slot1000, Slot1400, Slot1600}
}

// ParseTimeSlot validates a slot label.
func ParseTimeSlot(value string) (TimeSlot, error) {
	slot := TimeSlot(strings.TrimSpace(value))
	if _, ok := slotStartHour[slot]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown time slot %q", value))
	}
	return slot, nil
}

// Valid reports whether s is one of the fixed slots.
func (s TimeSlot) Valid() bool {
	_, ok := slotStartHour[s]
	return ok
}

// StartAt returns the instant the slot begins on the given calendar day,
// interpreted in loc.
func (s TimeSlot) StartAt(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, slotStartHour[s], 0, 0, 0, loc)
}

// EndAt returns the instant the slot ends on the given calendar day.
func (s TimeSlot) EndAt(day time.Time, loc *time.Location) time.Time {
	return s.StartAt(day, loc).Add(slotLength)
}

// Strings converts slots to their labels, the form stored in the database.
func Strings(slots []TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = string(s)
	}
	return out
}

// FromStrings converts stored labels back to slots, dropping unknown values
// and keeping chronological order.
func FromStrings(values []string) []TimeSlot {
	present := make(map[TimeSlot]bool, len(values))
	for _, v := range values {
		present[TimeSlot(v)] = true
	}
	out := make([]TimeSlot, 0, len(values))
	for _, s := range AllSlots() {
		if present[s] {
			out = append(out, s)
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD calendar day. The result is midnight UTC,
// the representation used for DATE columns.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return day, nil
}

// Day truncates an instant to its calendar day in loc, returned as midnight UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(day time.Time) string {
	return day.Format(dateLayout)
}
