package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// TaskFilter narrows List queries. Zero-valued fields are ignored.
type TaskFilter struct {
	Status     domain.Status
	Priority   domain.Priority
	AssignedTo uuid.UUID
	CategoryID uuid.UUID
	// Templates switches the listing between regular tasks and recurring
	// templates.
	Templates bool
	Limit     int
	Offset    int
}

// TaskStore defines the interface for task data persistence. Templates and
// instances live in the same table; the recurrence columns distinguish them.
type TaskStore interface {
	// Create saves a new task (or template) with its tag associations.
	// Returns ErrInvalidEntity if a referenced user or category is missing.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task with its tag IDs populated.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update modifies an existing task and replaces its tag associations.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Instances generated from a deleted template are
	// removed alongside through the schema's cascade rules.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns tasks matching the filter, most recently created first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// ExistsByTitle reports whether a non-template task with the given
	// title already exists.
	ExistsByTitle(ctx context.Context, title string) (bool, error)

	// FindRecurringTemplates returns all recurring templates whose
	// recurrence type is one of the given kinds.
	FindRecurringTemplates(ctx context.Context, kinds ...domain.RecurrenceType) ([]*domain.Task, error)

	// CreateInstance inserts a generated instance, relying on the storage
	// uniqueness constraint over (template, instance date, assignee) to
	// make generation idempotent. It reports created=false, with no error,
	// when an instance for that triple already exists.
	CreateInstance(ctx context.Context, instance *domain.Task) (created bool, err error)

	// CountInstances reports how many instances have been generated from
	// the given template.
	CountInstances(ctx context.Context, templateID uuid.UUID) (int, error)

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
