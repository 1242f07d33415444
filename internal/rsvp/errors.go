package rsvp

import (
	"errors"
	"fmt"
)

// Kind classifies an RSVP failure for callers that need to map it to a
// transport status.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidSubmission   Kind = "invalid_submission"
	KindIncompleteGuestList Kind = "incomplete_guest_list"
	KindStoreUnavailable    Kind = "store_unavailable"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "invitation not found"}
	ErrInvalidSubmission   = &Error{Kind: KindInvalidSubmission, Message: "invalid submission"}
	ErrIncompleteGuestList = &Error{Kind: KindIncompleteGuestList, Message: "incomplete guest list"}
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
)

// Error is the error type returned by the directory, the response store and
// the service.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidSubmission(format string, args ...any) error {
	return &Error{Kind: KindInvalidSubmission, Message: fmt.Sprintf(format, args...)}
}

func incompleteGuestList(format string, args ...any) error {
	return &Error{Kind: KindIncompleteGuestList, Message: fmt.Sprintf(format, args...)}
}

func storeUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: op, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an RSVP error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
