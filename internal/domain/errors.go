package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the transport layer can map them to
// HTTP status codes without inspecting messages.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidInput
	KindConflict
	KindUnauthorized
	KindForbidden
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindPersistence:
		return "persistence_failure"
	default:
		return "internal"
	}
}

// Error is a tagged domain error.
type Error struct {
	Kind    ErrorKind
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

// NewError creates a domain error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) error {
	return NewError(KindNotFound, message)
}

func InvalidInput(message string) error {
	return NewError(KindInvalidInput, message)
}

func Conflict(message string) error {
	return NewError(KindConflict, message)
}

func Unauthorized(message string) error {
	return NewError(KindUnauthorized, message)
}

func Forbidden(message string) error {
	return NewError(KindForbidden, message)
}

// Persistence wraps a storage failure. A nil err yields nil.
func Persistence(message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf returns the kind of the first domain error in err's chain,
// or KindInternal if there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
