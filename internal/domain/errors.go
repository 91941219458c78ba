// Package domain contains the core business entities for Campstack.
package domain

import (
	"errors"
	"strings"
)

// Error kinds form the closed taxonomy every failure in the system maps onto.
// Entity-level errors wrap one of these kinds so callers can classify with
// errors.Is without knowing the concrete entity.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a uniqueness or ownership-count rule was violated.
	ErrConflict = errors.New("resource conflict")

	// ErrForbidden indicates the authenticated identity may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAuthenticated indicates no credentials were presented.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidToken indicates the presented token failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrValidation indicates one or more request fields failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrBadRequest indicates a malformed request (e.g. missing upload file).
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited indicates the client exceeded the request budget.
	ErrRateLimited = errors.New("too many requests")

	// ErrInternal indicates an unexpected infrastructure failure.
	ErrInternal = errors.New("internal server error")
)

// Entity-level errors. Each wraps a taxonomy kind.
var (
	ErrBootcampNotFound     = kind(ErrNotFound, "bootcamp not found")
	ErrCourseNotFound       = kind(ErrNotFound, "course not found")
	ErrReviewNotFound       = kind(ErrNotFound, "review not found")
	ErrUserNotFound         = kind(ErrNotFound, "user not found")
	ErrResetTokenInvalid    = kind(ErrBadRequest, "invalid or expired reset token")
	ErrBootcampAlreadyOwned = kind(ErrConflict, "user has already published a bootcamp")
	ErrDuplicateReview      = kind(ErrConflict, "user has already reviewed this bootcamp")
	ErrDuplicateEmail       = kind(ErrConflict, "email address is already registered")
	ErrDuplicateField       = kind(ErrConflict, "duplicate field value")
	ErrUserInUse            = kind(ErrConflict, "user still owns bootcamps or reviews")
	ErrInvalidCredentials   = kind(ErrNotAuthenticated, "invalid credentials")
	ErrMissingUploadFile    = kind(ErrBadRequest, "no file was uploaded")
	ErrUploadNotImage       = kind(ErrBadRequest, "uploaded file must be an image")
	ErrUploadTooLarge       = kind(ErrBadRequest, "uploaded file exceeds the size limit")
	ErrOwnershipRequired    = kind(ErrForbidden, "not authorized to modify this resource")
	ErrRoleNotAllowed       = kind(ErrForbidden, "role is not authorized for this route")
	ErrGeocodeFailed        = kind(ErrBadRequest, "could not resolve location for zipcode")
)

// kindError attaches a taxonomy kind to an entity-specific message.
type kindError struct {
	base error
	msg  string
}

func kind(base error, msg string) error {
	return &kindError{base: base, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

// Unwrap lets errors.Is match the taxonomy kind.
func (e *kindError) Unwrap() error { return e.base }

// ValidationError carries one message per failed field. It unwraps to
// ErrValidation so the error normalizer can classify it in one place.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
