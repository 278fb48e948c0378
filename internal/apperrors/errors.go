// Package apperrors defines the error taxonomy shared by services and
// handlers. Services wrap failures in one of these kinds; the HTTP
// layer translates kinds to status codes.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Error pairs a user-facing message with an error kind so callers can
// branch on errors.Is without parsing message text.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newError(ErrUnauthorized, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func InvalidTransition(format string, args ...interface{}) error {
	return newError(ErrInvalidTransition, format, args...)
}

// InsufficientStockError reports a stock shortfall for one order line.
type InsufficientStockError struct {
	Product   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
		e.Product, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
