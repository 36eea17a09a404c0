// Package domain provides the repair request model and its lifecycle rules.
package domain

import (
	"fmt"

	"repair_backend/platform/apperr"
)

// Status is the lifecycle state of a repair request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the allowed next states. Terminal states have none.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusPending, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// ParseStatus validates a stored or requested status label.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if _, ok := transitions[s]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown repair status %q", value))
	}
	return s, nil
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a repair request may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidState error when the move is not allowed.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperr.InvalidState(fmt.Sprintf("repair request cannot move from %s to %s", from, to))
}
