package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by a service matches exactly one of these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflicting update")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("upstream unavailable")
)

// Error is a typed service failure carrying a machine-readable code
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(code, message string) error {
	return &Error{Kind: ErrValidation, Code: code, Message: message}
}

func notFoundError(code, message string) error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

func forbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Code: "FORBIDDEN", Message: message}
}

func conflictError(message string) error {
	return &Error{Kind: ErrConflict, Code: "VERSION_CONFLICT", Message: message}
}

func transitionError(from, to string) error {
	return &Error{
		Kind:    ErrInvalidTransition,
		Code:    "INVALID_STATUS_TRANSITION",
		Message: fmt.Sprintf("cannot change status from %q to %q", from, to),
	}
}

// dbError wraps a datastore failure. Record-not-found becomes a NotFound error.
func dbError(err error, op string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: ErrNotFound, Code: "NOT_FOUND", Message: op + ": record not found", Err: err}
	}
	return &Error{Kind: ErrUnavailable, Code: "DATABASE_ERROR", Message: "failed to " + op, Err: err}
}
