package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// CategoryStore defines the interface for category persistence.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrDuplicate if the name is already taken.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// GetOrCreateByName returns the category with the given name, creating
	// it first if necessary. Bulk import relies on this to resolve category
	// names from rows without a prior lookup pass.
	GetOrCreateByName(ctx context.Context, name string) (*domain.Category, error)

	// List returns all categories ordered by name.
	List(ctx context.Context) ([]*domain.Category, error)

	// WithTx returns a CategoryStore bound to the given transaction.
	WithTx(tx *sql.Tx) CategoryStore
}

// TagStore defines the interface for tag persistence.
type TagStore interface {
	// GetOrCreateByName returns the tag with the given name, creating it
	// first if necessary.
	GetOrCreateByName(ctx context.Context, name string) (*domain.Tag, error)

	// List returns all tags ordered by name.
	List(ctx context.Context) ([]*domain.Tag, error)

	// WithTx returns a TagStore bound to the given transaction.
	WithTx(tx *sql.Tx) TagStore
}
