package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the workflow state of a task.
type Status string

// Possible task status values.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusTesting    Status = "testing"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
	StatusOnHold     Status = "on_hold"
)

// Priority represents how urgent a task is.
type Priority string

// Possible task priorities.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Difficulty represents how hard a task is expected to be.
type Difficulty string

// Possible task difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// TaskType classifies the kind of work a task represents.
type TaskType string

// Possible task types.
const (
	TypeFeature       TaskType = "feature"
	TypeBug           TaskType = "bug"
	TypeResearch      TaskType = "research"
	TypeDocumentation TaskType = "documentation"
	TypeTesting       TaskType = "testing"
	TypeLearning      TaskType = "learning"
	TypeMaintenance   TaskType = "maintenance"
	TypeMeeting       TaskType = "meeting"
	TypeOther         TaskType = "other"
)

// RecurrenceType states on which cadence a template produces instances.
type RecurrenceType string

// Possible recurrence types. RecurrenceNone marks a non-recurring task.
const (
	RecurrenceNone   RecurrenceType = "none"
	RecurrenceDaily  RecurrenceType = "daily"
	RecurrenceWeekly RecurrenceType = "weekly"
	RecurrenceBoth   RecurrenceType = "both"
)

// Common validation errors for Task.
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle       = errors.New("task title cannot be empty")
	ErrEmptyTaskCreator     = errors.New("task creator cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidTaskPriority  = errors.New("invalid task priority")
	ErrInvalidDifficulty    = errors.New("invalid task difficulty")
	ErrInvalidTaskType      = errors.New("invalid task type")
	ErrInvalidRecurrence    = errors.New("invalid recurrence type")
	ErrNegativePoints       = errors.New("points value cannot be negative")
	ErrInvalidProgress      = errors.New("progress percentage must be between 0 and 100")
	ErrTemplateNotRecurring = errors.New("template task must be recurring")
	ErrTemplateHasDate      = errors.New("template task cannot carry an instance date")
	ErrInstanceIsTemplate   = errors.New("instance task cannot itself be a template")
	ErrInstanceMissingDate  = errors.New("instance task must carry an instance date")
	ErrNotTemplate          = errors.New("task is not a recurring template")
	ErrInstanceNoAssignee   = errors.New("instance task must have an assignee")
)

// Task is the central work item. The same record doubles as a recurring
// template (IsTemplate) and as a dated instance materialized from a template
// (TemplateTask non-nil).
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`

	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Type       TaskType   `json:"task_type"`
	Status     Status     `json:"status"`
	Priority   Priority   `json:"priority"`
	Difficulty Difficulty `json:"difficulty"`

	CreatedBy     uuid.UUID  `json:"created_by"`
	AssignedTo    *uuid.UUID `json:"assigned_to,omitempty"`
	AssignedToAll bool       `json:"assigned_to_all"`

	EstimatedHours     float64    `json:"estimated_hours"`
	ActualHours        float64    `json:"actual_hours"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`

	AcceptanceCriteria string `json:"acceptance_criteria"`
	PointsValue        int    `json:"points_value"`

	// Recurrence: template-side settings.
	IsRecurring          bool           `json:"is_recurring"`
	IsTemplate           bool           `json:"is_template"`
	RecurrenceType       RecurrenceType `json:"recurrence_type"`
	RecurrenceDays       WeekdaySet     `json:"-"`
	AllowMemberSelection bool           `json:"allow_member_selection"`
	MaxAssignees         int            `json:"max_assignees"`

	// Recurrence: instance-side fields.
	TemplateTask *uuid.UUID `json:"template_task,omitempty"`
	InstanceDate *time.Time `json:"instance_date,omitempty"`

	// Associations copied from templates onto instances.
	TagIDs []uuid.UUID `json:"tag_ids,omitempty"`

	ImportBatch string `json:"import_batch,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a plain (non-recurring) task in todo state with the
// defaults the original system uses: medium priority, medium difficulty,
// feature type, one estimated hour, ten points.
// Returns an error if validation fails.
func NewTask(createdBy uuid.UUID, title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:             uuid.New(),
		Title:          title,
		Description:    description,
		Type:           TypeFeature,
		Status:         StatusTodo,
		Priority:       PriorityMedium,
		Difficulty:     DifficultyMedium,
		CreatedBy:      createdBy,
		EstimatedHours: 1.0,
		PointsValue:    10,
		RecurrenceType: RecurrenceNone,
		MaxAssignees:   1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// NewTemplate creates a recurring task template. The template never appears
// on anyone's board directly; the generator materializes dated instances
// from it.
// Returns an error if validation fails.
func NewTemplate(
	createdBy uuid.UUID,
	title, description string,
	recurrence RecurrenceType,
	days WeekdaySet,
) (*Task, error) {
	task, err := NewTask(createdBy, title, description)
	if err != nil {
		return nil, err
	}

	task.IsTemplate = true
	task.IsRecurring = true
	task.Type = TypeLearning
	task.RecurrenceType = recurrence
	task.RecurrenceDays = days

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the Task's fields and the template/instance invariants.
// Returns an error if any check fails.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if t.CreatedBy == uuid.Nil {
		return ErrEmptyTaskCreator
	}
	if !validStatus(t.Status) {
		return ErrInvalidTaskStatus
	}
	if !validPriority(t.Priority) {
		return ErrInvalidTaskPriority
	}
	if !validDifficulty(t.Difficulty) {
		return ErrInvalidDifficulty
	}
	if !validTaskType(t.Type) {
		return ErrInvalidTaskType
	}
	if !validRecurrenceType(t.RecurrenceType) {
		return ErrInvalidRecurrence
	}
	if t.PointsValue < 0 {
		return ErrNegativePoints
	}
	if t.ProgressPercentage < 0 || t.ProgressPercentage > 100 {
		return ErrInvalidProgress
	}

	if t.IsTemplate {
		if !t.IsRecurring || t.RecurrenceType == RecurrenceNone {
			return ErrTemplateNotRecurring
		}
		if t.InstanceDate != nil {
			return ErrTemplateHasDate
		}
	}

	if t.TemplateTask != nil {
		// An instance is never itself a template.
		if t.IsTemplate {
			return ErrInstanceIsTemplate
		}
		if t.InstanceDate == nil {
			return ErrInstanceMissingDate
		}
	}

	return nil
}

// NewInstance materializes a dated instance of this template for one
// assignee. The instance copies the template's descriptive fields and tag
// associations, clears the recurrence flags, and receives a due date at
// 23:59 of the target date.
// Returns ErrNotTemplate if the receiver is not a recurring template.
func (t *Task) NewInstance(targetDate time.Time, assignee uuid.UUID) (*Task, error) {
	if !t.IsTemplate || !t.IsRecurring {
		return nil, ErrNotTemplate
	}
	if assignee == uuid.Nil {
		return nil, ErrInstanceNoAssignee
	}

	day := DateOnly(targetDate)
	due := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, day.Location())
	now := time.Now().UTC()

	instance := &Task{
		ID:                 uuid.New(),
		Title:              fmt.Sprintf("%s - %s", t.Title, day.Format("2006-01-02")),
		Description:        t.Description,
		CategoryID:         t.CategoryID,
		Type:               t.Type,
		Status:             StatusTodo,
		Priority:           t.Priority,
		Difficulty:         t.Difficulty,
		CreatedBy:          t.CreatedBy,
		AssignedTo:         &assignee,
		EstimatedHours:     t.EstimatedHours,
		PointsValue:        t.PointsValue,
		AcceptanceCriteria: t.AcceptanceCriteria,
		RecurrenceType:     RecurrenceNone,
		MaxAssignees:       1,
		TemplateTask:       &t.ID,
		InstanceDate:       &day,
		DueDate:            &due,
		TagIDs:             append([]uuid.UUID(nil), t.TagIDs...),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := instance.Validate(); err != nil {
		return nil, err
	}

	return instance, nil
}

// SetStatus moves the task to a new status, maintaining the derived
// timestamps: completion stamps CompletionDate and forces progress to 100,
// leaving todo stamps StartDate, and leaving completed clears CompletionDate.
// Returns an error if the status is unknown.
func (t *Task) SetStatus(status Status) error {
	if !validStatus(status) {
		return ErrInvalidTaskStatus
	}

	now := time.Now().UTC()

	if status == StatusCompleted {
		if t.CompletionDate == nil {
			t.CompletionDate = &now
		}
		t.ProgressPercentage = 100
	} else {
		t.CompletionDate = nil
	}

	if status != StatusTodo && t.StartDate == nil {
		t.StartDate = &now
	}

	t.Status = status
	t.UpdatedAt = now
	return nil
}

// IsOverdue reports whether the task has passed its due date without being
// completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

// DateOnly truncates t to midnight UTC, the representation used for
// instance dates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusTesting,
		StatusCompleted, StatusBlocked, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

func validDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

func validTaskType(t TaskType) bool {
	switch t {
	case TypeFeature, TypeBug, TypeResearch, TypeDocumentation, TypeTesting,
		TypeLearning, TypeMaintenance, TypeMeeting, TypeOther:
		return true
	}
	return false
}

func validRecurrenceType(r RecurrenceType) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceBoth:
		return true
	}
	return false
}

// FiresDaily reports whether the template produces instances on the daily
// cadence.
func (t *Task) FiresDaily() bool {
	return t.RecurrenceType == RecurrenceDaily || t.RecurrenceType == RecurrenceBoth
}

// FiresWeekly reports whether the template produces instances on the weekly
// cadence.
func (t *Task) FiresWeekly() bool {
	return t.RecurrenceType == RecurrenceWeekly || t.RecurrenceType == RecurrenceBoth
}
