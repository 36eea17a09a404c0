// Package apperr holds the typed errors returned by the domain services.
// The HTTP layer turns the Kind into a status code; any error without a
// Kind is treated as an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	// KindValidation covers malformed or out-of-range arguments.
	KindValidation
	// KindConflict means the slot or technician is already taken.
	KindConflict
	// KindForbidden means the caller lacks the role for the action.
	KindForbidden
	// KindUnauthorized means the caller does not own the resource.
	KindUnauthorized
	// KindInvalidState means the resource's status does not allow the action.
	KindInvalidState
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindNotFound:     "not_found",
	KindValidation:   "invalid_argument",
	KindConflict:     "conflict",
	KindForbidden:    "forbidden",
	KindUnauthorized: "unauthorized",
	KindInvalidState: "invalid_state",
	KindInternal:     "internal",
}

// Ownership failures answer 403: the caller is authenticated, just not
// allowed to touch someone else's data.
var kindStatus = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindValidation:   http.StatusBadRequest,
	KindConflict:     http.StatusConflict,
	KindForbidden:    http.StatusForbidden,
	KindUnauthorized: http.StatusForbidden,
	KindInvalidState: http.StatusUnprocessableEntity,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a domain error carrying a Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
	Details interface{}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the Kind to a response status, 500 for anything unmapped.
func (e *Error) HTTPStatus() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithOp names the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error { return New(KindNotFound, message) }

// Validation is the InvalidArgument error.
func Validation(message string) *Error { return New(KindValidation, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

func InvalidState(message string) *Error { return New(KindInvalidState, message) }

func Internal(message string) *Error { return New(KindInternal, message) }

// GetKind returns the Kind of the first *Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindUnknown
	}
	return e.Kind
}

// Is reports whether err's chain carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
