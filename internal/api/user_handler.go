package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/policy"
	"github.com/taskhive/taskhive/internal/store"
)

// UserHandler handles user profile and administration API requests.
type UserHandler struct {
	users      *service.UserService
	activities store.ActivityStore
	validator  *validator.Validate
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(users *service.UserService, activities store.ActivityStore) *UserHandler {
	return &UserHandler{
		users:      users,
		activities: activities,
		validator:  validator.New(),
	}
}

// Me handles GET /users/me requests.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// MyActivity handles GET /users/me/activity requests.
func (h *UserHandler) MyActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.activities.FindByUser(r.Context(), user.ID, 50)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, activitiesToResponse(entries))
}

// SetRole handles PATCH /users/{id}/role requests.
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionManageUsers); !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.users.SetRole(r.Context(), id, domain.Role(req.Role))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// Deactivate handles DELETE /users/{id} requests. Accounts are deactivated,
// never deleted, so their task history survives.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionManageUsers); !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.Deactivate(r.Context(), id); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
