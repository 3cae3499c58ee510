package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SelectionType is the cadence a user opted in to for a template.
type SelectionType string

// Possible selection types.
const (
	SelectionDaily  SelectionType = "daily"
	SelectionWeekly SelectionType = "weekly"
)

// Common validation errors for RecurringSelection.
var (
	ErrEmptySelectionID       = errors.New("selection ID cannot be empty")
	ErrEmptySelectionUser     = errors.New("selection user ID cannot be empty")
	ErrEmptySelectionTemplate = errors.New("selection template ID cannot be empty")
	ErrInvalidSelectionType   = errors.New("invalid selection type")
)

// RecurringSelection records a user's opt-in to a recurring template for one
// cadence. The (UserID, TemplateID, Type) triple is unique; opting out flips
// IsActive rather than deleting the row so that history is preserved.
type RecurringSelection struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	TemplateID   uuid.UUID     `json:"template_id"`
	Type         SelectionType `json:"selection_type"`
	SelectedDays WeekdaySet    `json:"-"` // Meaningful only for weekly selections.
	IsActive     bool          `json:"is_active"`
	SelectedAt   time.Time     `json:"selected_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewRecurringSelection creates an active selection for the given user,
// template and cadence. Daily selections ignore days; the set is stored
// empty for them.
// Returns an error if validation fails.
func NewRecurringSelection(
	userID, templateID uuid.UUID,
	selType SelectionType,
	days WeekdaySet,
) (*RecurringSelection, error) {
	if selType == SelectionDaily {
		days = nil
	}

	now := time.Now().UTC()
	sel := &RecurringSelection{
		ID:           uuid.New(),
		UserID:       userID,
		TemplateID:   templateID,
		Type:         selType,
		SelectedDays: days,
		IsActive:     true,
		SelectedAt:   now,
		UpdatedAt:    now,
	}

	if err := sel.Validate(); err != nil {
		return nil, err
	}

	return sel, nil
}

// Validate checks if the RecurringSelection has valid data.
// Returns an error if any field fails validation.
func (s *RecurringSelection) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySelectionID
	}
	if s.UserID == uuid.Nil {
		return ErrEmptySelectionUser
	}
	if s.TemplateID == uuid.Nil {
		return ErrEmptySelectionTemplate
	}
	if s.Type != SelectionDaily && s.Type != SelectionWeekly {
		return ErrInvalidSelectionType
	}
	return nil
}

// WantsDay reports whether this selection should receive an instance on the
// given weekday. Daily selections always do; weekly selections only on days
// the user picked.
func (s *RecurringSelection) WantsDay(day Weekday) bool {
	if s.Type == SelectionDaily {
		return true
	}
	return s.SelectedDays.Contains(day)
}

// Deactivate soft-disables the selection. The row survives so a later
// re-opt-in resumes the same selection.
func (s *RecurringSelection) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
}

// Activate re-enables a previously cleared selection.
func (s *RecurringSelection) Activate() {
	s.IsActive = true
	s.UpdatedAt = time.Now().UTC()
}
