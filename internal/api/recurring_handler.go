package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/recurrence"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/policy"
	"github.com/taskhive/taskhive/internal/store"
)

// RecurringHandler handles recurring template, selection, and generation
// API requests.
type RecurringHandler struct {
	tasks      *service.TaskService
	selections *recurrence.SelectionService
	generator  *recurrence.Generator
	tags       store.TagStore
	activity   *service.ActivityLogger
	validator  *validator.Validate
}

// NewRecurringHandler creates a new RecurringHandler with the given
// dependencies.
func NewRecurringHandler(
	tasks *service.TaskService,
	selections *recurrence.SelectionService,
	generator *recurrence.Generator,
	tags store.TagStore,
	activity *service.ActivityLogger,
) *RecurringHandler {
	return &RecurringHandler{
		tasks:      tasks,
		selections: selections,
		generator:  generator,
		tags:       tags,
		activity:   activity,
		validator:  validator.New(),
	}
}

// CreateTemplate handles POST /templates requests.
func (h *RecurringHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionManageTemplates)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	days, err := parseWeekdayCodes(req.RecurrenceDays)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	template, err := domain.NewTemplate(user.ID, req.Title, req.Description,
		domain.RecurrenceType(req.RecurrenceType), days)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	template.AllowMemberSelection = req.AllowMemberSelection
	template.AssignedToAll = req.AssignedToAll
	if req.MaxAssignees != nil {
		template.MaxAssignees = *req.MaxAssignees
	}
	if req.PointsValue != nil {
		template.PointsValue = *req.PointsValue
	}
	if req.EstimatedHours != nil {
		template.EstimatedHours = *req.EstimatedHours
	}

	if req.AssignedTo != nil {
		assignee, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid assigned_to format")
			return
		}
		template.AssignedTo = &assignee
	}

	for _, name := range req.Tags {
		tag, err := h.tags.GetOrCreateByName(r.Context(), name)
		if err != nil {
			HandleServiceError(w, r, err)
			return
		}
		template.TagIDs = append(template.TagIDs, tag.ID)
	}

	if err := h.tasks.Create(r.Context(), template); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(template))
}

// ListTemplates handles GET /templates requests.
func (h *RecurringHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	templates, err := h.tasks.List(r.Context(), store.TaskFilter{Templates: true})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(templates))
}

// SetSelection handles PUT /templates/{id}/selection requests, opting the
// authenticated user in to a template.
func (h *RecurringHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionSelectRecurring)
	if !ok {
		return
	}

	templateID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SetSelectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	days, err := parseWeekdayCodes(req.SelectedDays)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	selection, err := h.selections.SetSelection(r.Context(), user.ID, templateID,
		domain.SelectionType(req.SelectionType), days)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, selectionToResponse(selection))
}

// ClearSelection handles DELETE /templates/{id}/selection requests. The
// cadence to clear is passed as the selection_type query parameter.
func (h *RecurringHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionSelectRecurring)
	if !ok {
		return
	}

	templateID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	cadence := domain.SelectionType(r.URL.Query().Get("selection_type"))
	if cadence != domain.SelectionDaily && cadence != domain.SelectionWeekly {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"selection_type must be daily or weekly")
		return
	}

	if err := h.selections.ClearSelection(r.Context(), user.ID, templateID, cadence); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSelections handles GET /selections requests, returning the
// authenticated user's selections.
func (h *RecurringHandler) ListSelections(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	selections, err := h.selections.ListForUser(r.Context(), user.ID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	out := make([]SelectionResponse, 0, len(selections))
	for _, sel := range selections {
		out = append(out, selectionToResponse(sel))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Generate handles POST /generate requests, manually running instance
// generation for a date or a date range.
func (h *RecurringHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionTriggerGeneration)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	from := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}

	created, err := h.generator.GenerateRange(r.Context(), from, req.DaysAhead)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	h.activity.Record(r.Context(), user.ID, domain.ActivityTasksGenerated,
		fmt.Sprintf("Generated %d recurring task instances", len(created)))

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateResponse{
		Created: len(created),
		From:    domain.DateOnly(from).Format("2006-01-02"),
		To:      domain.DateOnly(from).AddDate(0, 0, req.DaysAhead).Format("2006-01-02"),
	})
}

// parseWeekdayCodes builds a weekday set from a list of codes.
func parseWeekdayCodes(codes []string) (domain.WeekdaySet, error) {
	set := domain.NewWeekdaySet()
	for _, code := range codes {
		parsed, err := domain.ParseWeekdaySet(code)
		if err != nil {
			return nil, err
		}
		for day := range parsed {
			set[day] = struct{}{}
		}
	}
	return set, nil
}
