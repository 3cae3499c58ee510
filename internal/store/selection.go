package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// SelectionStore defines the interface for recurring selection persistence.
type SelectionStore interface {
	// Upsert creates the selection or, when a row already exists for the
	// same (user, template, type) triple, updates its selected days and
	// active flag in place. The stored row's identity is preserved across
	// repeated upserts.
	Upsert(ctx context.Context, selection *domain.RecurringSelection) error

	// FindActiveByTemplate returns all active selections registered against
	// the given template for the given selection type.
	FindActiveByTemplate(ctx context.Context, templateID uuid.UUID, selType domain.SelectionType) ([]*domain.RecurringSelection, error)

	// FindByUser returns all of a user's selections, active or not.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RecurringSelection, error)

	// Get retrieves the selection for a (user, template, type) triple.
	// Returns ErrSelectionNotFound if none exists.
	Get(ctx context.Context, userID, templateID uuid.UUID, selType domain.SelectionType) (*domain.RecurringSelection, error)

	// WithTx returns a SelectionStore bound to the given transaction.
	WithTx(tx *sql.Tx) SelectionStore
}
