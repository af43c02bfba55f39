package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Kind classifies a failed engine operation.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidTransition   Kind = "invalid_transition"
	KindCapacityUnavailable Kind = "capacity_unavailable"
	KindUnauthorized        Kind = "unauthorized"
	KindCodeCollision       Kind = "code_collision"
	KindStoreFailure        Kind = "store_failure"
	KindInvalid             Kind = "invalid_request"
)

// Error is the failure result of every engine operation. Only
// CapacityUnavailable carries Suggestions.
type Error struct {
	Kind        Kind
	Message     string
	Suggestions []time.Time
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is nil or not an *Error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// SuggestionsOf returns the alternative times carried by a
// CapacityUnavailable error.
func SuggestionsOf(err error) []time.Time {
	var be *Error
	if errors.As(err, &be) {
		return be.Suggestions
	}
	return nil
}

func notFound(what string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", what, id)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func illegalTransition(from model.Status, a action) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot %s a reservation in state %s", a, from)}
}

func capacityUnavailable(suggestions []time.Time) *Error {
	return &Error{
		Kind:        KindCapacityUnavailable,
		Message:     "no table fits the requested time and party size",
		Suggestions: suggestions,
	}
}
