package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/policy"
	"github.com/taskhive/taskhive/internal/store"
)

// TaskHandler handles task CRUD and status API requests.
type TaskHandler struct {
	tasks      *service.TaskService
	categories store.CategoryStore
	tags       store.TagStore
	validator  *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(
	tasks *service.TaskService,
	categories store.CategoryStore,
	tags store.TagStore,
) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		categories: categories,
		tags:       tags,
		validator:  validator.New(),
	}
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionCreateTask)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := domain.NewTask(user.ID, req.Title, req.Description)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if err := h.applyCreateRequest(r, task, &req); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if err := task.Validate(); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if err := h.tasks.Create(r.Context(), task); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /tasks requests. Filters are passed as query
// parameters: status, priority, assigned_to, category_id, limit, offset.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// UpdateTask handles PATCH /tasks/{id} requests. Members may edit their own
// tasks; editing someone else's task needs the edit-any capability.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if !canTouchTask(user, task) {
		shared.RespondWithError(w, r, http.StatusForbidden, "You cannot edit this task")
		return
	}

	if err := applyUpdateRequest(task, &req); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if err := task.Validate(); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	task.UpdatedAt = time.Now().UTC()
	if err := h.tasks.Update(r.Context(), task); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionDeleteTask); !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PATCH /tasks/{id}/status requests. Completion awards the
// task's points to its assignee.
func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	if !canTouchTask(user, task) {
		shared.RespondWithError(w, r, http.StatusForbidden, "You cannot move this task")
		return
	}

	updated, err := h.tasks.SetStatus(r.Context(), id, domain.Status(req.Status), user.ID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(updated))
}

// canTouchTask reports whether the user may modify the task: its creator and
// assignee always can, anyone else needs the edit-any capability.
func canTouchTask(user *domain.User, task *domain.Task) bool {
	if task.CreatedBy == user.ID {
		return true
	}
	if task.AssignedTo != nil && *task.AssignedTo == user.ID {
		return true
	}
	return policy.Can(user, policy.ActionEditAnyTask)
}

// applyCreateRequest copies the optional create fields onto the task,
// resolving category and tag names.
func (h *TaskHandler) applyCreateRequest(r *http.Request, task *domain.Task, req *CreateTaskRequest) error {
	if req.Type != "" {
		task.Type = domain.TaskType(req.Type)
	}
	if req.Priority != "" {
		task.Priority = domain.Priority(req.Priority)
	}
	if req.Difficulty != "" {
		task.Difficulty = domain.Difficulty(req.Difficulty)
	}
	task.AcceptanceCriteria = req.AcceptanceCriteria
	task.AssignedToAll = req.AssignedToAll

	if req.EstimatedHours != nil {
		task.EstimatedHours = *req.EstimatedHours
	}
	if req.PointsValue != nil {
		task.PointsValue = *req.PointsValue
	}

	if req.AssignedTo != nil {
		assignee, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return domain.ErrEmptyUserID
		}
		task.AssignedTo = &assignee
	}

	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return store.ErrInvalidEntity
		}
		task.DueDate = &due
	}

	if req.Category != "" {
		category, err := h.categories.GetOrCreateByName(r.Context(), req.Category)
		if err != nil {
			return err
		}
		task.CategoryID = &category.ID
	}

	for _, name := range req.Tags {
		tag, err := h.tags.GetOrCreateByName(r.Context(), name)
		if err != nil {
			return err
		}
		task.TagIDs = append(task.TagIDs, tag.ID)
	}

	return nil
}

// applyUpdateRequest copies non-nil update fields onto the task.
func applyUpdateRequest(task *domain.Task, req *UpdateTaskRequest) error {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = domain.Priority(*req.Priority)
	}
	if req.Difficulty != nil {
		task.Difficulty = domain.Difficulty(*req.Difficulty)
	}
	if req.AcceptanceCriteria != nil {
		task.AcceptanceCriteria = *req.AcceptanceCriteria
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = *req.EstimatedHours
	}
	if req.PointsValue != nil {
		task.PointsValue = *req.PointsValue
	}
	if req.ProgressPercentage != nil {
		task.ProgressPercentage = *req.ProgressPercentage
	}

	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			task.AssignedTo = nil
		} else {
			assignee, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				return domain.ErrEmptyUserID
			}
			task.AssignedTo = &assignee
		}
	}

	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			due, err := time.Parse("2006-01-02", *req.DueDate)
			if err != nil {
				return store.ErrInvalidEntity
			}
			task.DueDate = &due
		}
	}

	return nil
}

// filterFromQuery builds a TaskFilter from the request's query parameters.
func filterFromQuery(r *http.Request) (store.TaskFilter, error) {
	query := r.URL.Query()
	filter := store.TaskFilter{
		Status:   domain.Status(query.Get("status")),
		Priority: domain.Priority(query.Get("priority")),
	}

	if raw := query.Get("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, store.ErrInvalidEntity
		}
		filter.AssignedTo = id
	}

	if raw := query.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, store.ErrInvalidEntity
		}
		filter.CategoryID = id
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, store.ErrInvalidEntity
		}
		filter.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, store.ErrInvalidEntity
		}
		filter.Offset = offset
	}

	return filter, nil
}
