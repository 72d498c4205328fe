// Package apperr defines the error kinds shared by the stores, the token
// service and the web layer.
//
// Domain packages declare their own sentinel errors wrapping one of the kinds
// below, so callers can match either the precise error or its kind:
//
//	var ErrSettingExists = fmt.Errorf("%w: setting already exists", apperr.ErrConflict)
//
//	errors.Is(err, setting.ErrSettingExists) // precise
//	errors.Is(err, apperr.ErrConflict)       // kind
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConflict is a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound references a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means no valid identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is malformed input, rejected before any store access.
	ErrValidation = errors.New("validation error")
	// ErrInternal is a store or audit failure. The enclosing transaction is rolled back.
	ErrInternal = errors.New("internal error")
)

// Validation wraps a formatted message with ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Internal wraps cause with ErrInternal and a short description of the failed step.
func Internal(step string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, step, cause)
}

// HTTPStatus maps an error to the status code of its kind.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message safe to show to a client.
// Internal errors never leak their cause.
func Detail(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return http.StatusText(http.StatusInternalServerError)
	}

	return err.Error()
}
