package errs

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the rental engine. Callers match them with
// errors.Is; the wrapped message names the concrete cause.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrConflict    = errors.New("conflict")
	// ErrBusy is transient: a per-book lock could not be taken within the
	// configured wait. Retrying later may succeed.
	ErrBusy = errors.New("resource busy")
)

// Validation reports a request that breaks an input rule.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports a missing book, reader or rental.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Unavailable reports a book with no copy left to rent.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Conflict reports an operation the current state forbids.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Busy reports a lock that could not be taken in time.
func Busy(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBusy, fmt.Sprintf(format, args...))
}

// Code maps an error to the stable code reported over HTTP.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrBusy):
		return "BUSY"
	default:
		return "INTERNAL_ERROR"
	}
}
