package api

import (
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/recurrence"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, recurrence.ErrSelectionNotAllowed):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, recurrence.ErrNotRecurringTemplate),
		errors.Is(err, recurrence.ErrCadenceMismatch),
		errors.Is(err, service.ErrEmptyImport),
		errors.Is(err, service.ErrMissingHeader):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, recurrence.ErrSelectionNotAllowed):
		return "This template does not allow member selection"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrTemplateNotFound):
		return "Template not found"

	case errors.Is(err, store.ErrSelectionNotFound):
		return "Selection not found"

	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"

	case errors.Is(err, store.ErrImportBatchNotFound):
		return "Import batch not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, service.ErrAlreadyCompleted):
		return "Task is already completed"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, recurrence.ErrNotRecurringTemplate):
		return "Task is not a recurring template"

	case errors.Is(err, recurrence.ErrCadenceMismatch):
		return "Selection cadence does not match the template"

	case errors.Is(err, service.ErrEmptyImport):
		return "Import file contains no data rows"

	case errors.Is(err, service.ErrMissingHeader):
		return "Import file is missing the title column"

	default:
		return "An unexpected error occurred"
	}
}

// HandleServiceError writes an error response derived from the error type,
// with domain validation errors reported verbatim as bad requests.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if isDomainValidationError(err) {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// isDomainValidationError reports whether the error is one of the domain
// package's field validation sentinels, which carry no sensitive detail and
// read well as user-facing messages.
func isDomainValidationError(err error) bool {
	validationErrs := []error{
		domain.ErrEmptyTaskTitle,
		domain.ErrInvalidTaskStatus,
		domain.ErrInvalidTaskPriority,
		domain.ErrInvalidDifficulty,
		domain.ErrInvalidTaskType,
		domain.ErrInvalidRecurrence,
		domain.ErrNegativePoints,
		domain.ErrInvalidProgress,
		domain.ErrTemplateNotRecurring,
		domain.ErrInvalidEmail,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
		domain.ErrInvalidRole,
		domain.ErrInvalidSelectionType,
		domain.ErrInvalidWeekday,
	}
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
