package api

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse represents the response data for a user profile.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	TotalPoints int       `json:"total_points"`
	Level       int       `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

// SetRoleRequest defines the payload for changing a user's role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin team_lead member mentor guest"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title              string   `json:"title"               validate:"required,min=1,max=200"`
	Description        string   `json:"description"         validate:"max=5000"`
	Category           string   `json:"category"            validate:"max=100"`
	Type               string   `json:"task_type"`
	Priority           string   `json:"priority"`
	Difficulty         string   `json:"difficulty"`
	AssignedTo         *string  `json:"assigned_to"`
	AssignedToAll      bool     `json:"assigned_to_all"`
	EstimatedHours     *float64 `json:"estimated_hours"     validate:"omitempty,gte=0"`
	PointsValue        *int     `json:"points_value"        validate:"omitempty,gte=0"`
	DueDate            *string  `json:"due_date"`
	AcceptanceCriteria string   `json:"acceptance_criteria" validate:"max=5000"`
	Tags               []string `json:"tags"                validate:"max=20"`
}

// UpdateTaskRequest defines the payload for updating a task. Nil fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title              *string  `json:"title"               validate:"omitempty,min=1,max=200"`
	Description        *string  `json:"description"         validate:"omitempty,max=5000"`
	Priority           *string  `json:"priority"`
	Difficulty         *string  `json:"difficulty"`
	AssignedTo         *string  `json:"assigned_to"`
	EstimatedHours     *float64 `json:"estimated_hours"     validate:"omitempty,gte=0"`
	PointsValue        *int     `json:"points_value"        validate:"omitempty,gte=0"`
	DueDate            *string  `json:"due_date"`
	AcceptanceCriteria *string  `json:"acceptance_criteria" validate:"omitempty,max=5000"`
	ProgressPercentage *int     `json:"progress_percentage" validate:"omitempty,gte=0,lte=100"`
}

// SetStatusRequest defines the payload for moving a task to a new status.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Type               string     `json:"task_type"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	Difficulty         string     `json:"difficulty"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	AssignedTo         *uuid.UUID `json:"assigned_to,omitempty"`
	AssignedToAll      bool       `json:"assigned_to_all"`
	EstimatedHours     float64    `json:"estimated_hours"`
	ActualHours        float64    `json:"actual_hours"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	PointsValue        int        `json:"points_value"`
	IsTemplate         bool       `json:"is_template"`
	RecurrenceType     string     `json:"recurrence_type"`
	RecurrenceDays     []string   `json:"recurrence_days,omitempty"`
	TemplateTask       *uuid.UUID `json:"template_task,omitempty"`
	InstanceDate       *string    `json:"instance_date,omitempty"`
	TagIDs             []uuid.UUID `json:"tag_ids,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateTemplateRequest defines the payload for creating a recurring template.
type CreateTemplateRequest struct {
	Title                string   `json:"title"                  validate:"required,min=1,max=200"`
	Description          string   `json:"description"            validate:"max=5000"`
	RecurrenceType       string   `json:"recurrence_type"        validate:"required,oneof=daily weekly both"`
	RecurrenceDays       []string `json:"recurrence_days"`
	AllowMemberSelection bool     `json:"allow_member_selection"`
	MaxAssignees         *int     `json:"max_assignees"          validate:"omitempty,gte=1"`
	AssignedTo           *string  `json:"assigned_to"`
	AssignedToAll        bool     `json:"assigned_to_all"`
	PointsValue          *int     `json:"points_value"           validate:"omitempty,gte=0"`
	EstimatedHours       *float64 `json:"estimated_hours"        validate:"omitempty,gte=0"`
	Tags                 []string `json:"tags"                   validate:"max=20"`
}

// SetSelectionRequest defines the payload for opting in to a recurring
// template.
type SetSelectionRequest struct {
	SelectionType string   `json:"selection_type" validate:"required,oneof=daily weekly"`
	SelectedDays  []string `json:"selected_days"`
}

// SelectionResponse represents the response data for a recurring selection.
type SelectionResponse struct {
	ID            uuid.UUID `json:"id"`
	TemplateID    uuid.UUID `json:"template_id"`
	SelectionType string    `json:"selection_type"`
	SelectedDays  []string  `json:"selected_days,omitempty"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GenerateRequest defines the payload for manually triggering instance
// generation.
type GenerateRequest struct {
	Date      string `json:"date"       validate:"omitempty,datetime=2006-01-02"`
	DaysAhead int    `json:"days_ahead" validate:"gte=0,lte=31"`
}

// GenerateResponse reports how many instances a generation run produced.
type GenerateResponse struct {
	Created int    `json:"created"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// ImportBatchResponse represents the response data for a bulk import batch.
type ImportBatchResponse struct {
	ID           uuid.UUID         `json:"id"`
	Filename     string            `json:"filename"`
	Status       string            `json:"status"`
	TotalRows    int               `json:"total_rows"`
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	FailedCount  int               `json:"failed_count"`
	Errors       []domain.RowError `json:"errors,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// ActivityResponse represents one entry in the activity feed.
type ActivityResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Type         string     `json:"activity_type"`
	Description  string     `json:"description"`
	PointsEarned int        `json:"points_earned,omitempty"`
	RelatedID    *uuid.UUID `json:"related_object_id,omitempty"`
	RelatedType  string     `json:"related_object_type,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// userToResponse converts a domain.User to a UserResponse.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		TotalPoints: user.TotalPoints,
		Level:       user.Level,
		CreatedAt:   user.CreatedAt,
	}
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		CategoryID:         task.CategoryID,
		Type:               string(task.Type),
		Status:             string(task.Status),
		Priority:           string(task.Priority),
		Difficulty:         string(task.Difficulty),
		CreatedBy:          task.CreatedBy,
		AssignedTo:         task.AssignedTo,
		AssignedToAll:      task.AssignedToAll,
		EstimatedHours:     task.EstimatedHours,
		ActualHours:        task.ActualHours,
		DueDate:            task.DueDate,
		CompletionDate:     task.CompletionDate,
		ProgressPercentage: task.ProgressPercentage,
		PointsValue:        task.PointsValue,
		IsTemplate:         task.IsTemplate,
		RecurrenceType:     string(task.RecurrenceType),
		RecurrenceDays:     weekdaySetToCodes(task.RecurrenceDays),
		TemplateTask:       task.TemplateTask,
		TagIDs:             task.TagIDs,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
	if task.InstanceDate != nil {
		date := task.InstanceDate.Format("2006-01-02")
		resp.InstanceDate = &date
	}
	return resp
}

// tasksToResponse converts a slice of tasks.
func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}

// selectionToResponse converts a domain.RecurringSelection.
func selectionToResponse(sel *domain.RecurringSelection) SelectionResponse {
	return SelectionResponse{
		ID:            sel.ID,
		TemplateID:    sel.TemplateID,
		SelectionType: string(sel.Type),
		SelectedDays:  weekdaySetToCodes(sel.SelectedDays),
		IsActive:      sel.IsActive,
		UpdatedAt:     sel.UpdatedAt,
	}
}

// batchToResponse converts a domain.ImportBatch.
func batchToResponse(batch *domain.ImportBatch) ImportBatchResponse {
	return ImportBatchResponse{
		ID:           batch.ID,
		Filename:     batch.Filename,
		Status:       string(batch.Status),
		TotalRows:    batch.TotalRows,
		CreatedCount: batch.CreatedCount,
		SkippedCount: batch.SkippedCount,
		FailedCount:  batch.FailedCount,
		Errors:       batch.Errors,
		CreatedAt:    batch.CreatedAt,
		CompletedAt:  batch.CompletedAt,
	}
}

// activityToResponse converts a domain.Activity.
func activityToResponse(act *domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:           act.ID,
		UserID:       act.UserID,
		Type:         string(act.Type),
		Description:  act.Description,
		PointsEarned: act.PointsEarned,
		RelatedID:    act.RelatedID,
		RelatedType:  act.RelatedType,
		Timestamp:    act.Timestamp,
	}
}

// activitiesToResponse converts a slice of activities.
func activitiesToResponse(entries []*domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, activityToResponse(entry))
	}
	return out
}

// weekdaySetToCodes renders a weekday set as its canonical Monday-first code
// list, nil when empty.
func weekdaySetToCodes(set domain.WeekdaySet) []string {
	if set.IsEmpty() {
		return nil
	}
	return strings.Split(set.String(), ",")
}
