package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/recurrence"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"selection not allowed", recurrence.ErrSelectionNotAllowed, http.StatusForbidden},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"template not found", store.ErrTemplateNotFound, http.StatusNotFound},
		{"wrapped not found", store.ErrSelectionNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"already completed", service.ErrAlreadyCompleted, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"not a template", recurrence.ErrNotRecurringTemplate, http.StatusBadRequest},
		{"cadence mismatch", recurrence.ErrCadenceMismatch, http.StatusBadRequest},
		{"empty import", service.ErrEmptyImport, http.StatusBadRequest},
		{"missing header", service.ErrMissingHeader, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
	assert.Equal(t, "Email already exists", GetSafeErrorMessage(store.ErrEmailExists))
	assert.Equal(t, "Invalid credentials", GetSafeErrorMessage(auth.ErrInvalidCredentials))

	// Internal detail never leaks for unknown errors.
	leaky := errors.New("pq: connection to host db-internal-01 failed")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestIsDomainValidationError(t *testing.T) {
	t.Parallel()

	assert.True(t, isDomainValidationError(domain.ErrEmptyTaskTitle))
	assert.True(t, isDomainValidationError(domain.ErrInvalidWeekday))
	assert.False(t, isDomainValidationError(store.ErrTaskNotFound))
	assert.False(t, isDomainValidationError(errors.New("boom")))
}
