package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
)

var validate = validator.New()

// handleError is the single translator from a failed operation to an error
// envelope. Everything the services and repositories can return funnels
// through here; unclassified errors become an opaque 500 with the detail
// logged, never echoed.
func handleError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Messages)
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		writeError(w, http.StatusBadRequest, validationMessages(fieldErrs))
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		logger.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}

// validationMessages translates struct-tag failures into the same message
// register the services use.
func validationMessages(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("Please add a %s", e.Field()))
		case "email":
			messages = append(messages, "Please add a valid email")
		case "url":
			messages = append(messages, "Please use a valid URL with HTTP or HTTPS")
		case "max":
			messages = append(messages, fmt.Sprintf("%s can not be longer than %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return messages
}

// decodeJSON decodes a request body into dst and runs its struct-tag
// validation. A malformed body is a validation failure, not a 500.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("Request body is required")
		}
		return domain.NewValidationError("Request body is not valid JSON")
	}
	return validate.Struct(dst)
}
