package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service/policy"
)

// currentUser extracts the authenticated user placed in the context by the
// authentication middleware, writing a 401 response when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := shared.CurrentUser(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not found in request context")
		return nil, false
	}
	return user, true
}

// requireAction checks the authenticated user against the policy for the
// given action, writing a 403 response when denied.
func requireAction(w http.ResponseWriter, r *http.Request, action policy.Action) (*domain.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !policy.Can(user, action) {
		shared.RespondWithError(w, r, http.StatusForbidden, "You are not allowed to perform this action")
		return nil, false
	}
	return user, true
}

// getPathUUID extracts and parses a UUID path parameter, writing a 400
// response on failure.
func getPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Missing %s parameter", paramName))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Invalid %s format", paramName))
		return uuid.Nil, false
	}

	return id, true
}
