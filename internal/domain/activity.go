package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies an entry in the activity log.
type ActivityType string

// Possible activity types.
const (
	ActivityTaskCreated      ActivityType = "task_created"
	ActivityTaskCompleted    ActivityType = "task_completed"
	ActivityPointsEarned     ActivityType = "points_earned"
	ActivityTasksGenerated   ActivityType = "tasks_generated"
	ActivitySelectionChanged ActivityType = "selection_changed"
	ActivityTasksImported    ActivityType = "tasks_imported"
	ActivityOther            ActivityType = "other"
)

// Validation errors for Activity.
var (
	ErrEmptyActivityID   = errors.New("activity ID cannot be empty")
	ErrEmptyActivityUser = errors.New("activity user ID cannot be empty")
	ErrEmptyActivityType = errors.New("activity type cannot be empty")
)

// Activity is a human-readable record of something a user did or that
// happened on their behalf. The log is append-only and best-effort: writers
// never fail their caller when an activity cannot be recorded.
type Activity struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	Type          ActivityType `json:"activity_type"`
	Description   string       `json:"description"`
	PointsEarned  int          `json:"points_earned"`
	RelatedID     *uuid.UUID   `json:"related_object_id,omitempty"`
	RelatedType   string       `json:"related_object_type,omitempty"`
	AdditionalLog string       `json:"additional_info,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

// NewActivity creates an activity log entry for the given user.
func NewActivity(userID uuid.UUID, activityType ActivityType, description string) (*Activity, error) {
	act := &Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        activityType,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}

	if err := act.Validate(); err != nil {
		return nil, err
	}

	return act, nil
}

// Validate checks if the Activity has valid data.
func (a *Activity) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyActivityID
	}
	if a.UserID == uuid.Nil {
		return ErrEmptyActivityUser
	}
	if a.Type == "" {
		return ErrEmptyActivityType
	}
	return nil
}
