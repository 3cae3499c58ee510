package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// ActivityStore defines the interface for the append-only activity log.
type ActivityStore interface {
	// Create appends an activity entry.
	Create(ctx context.Context, activity *domain.Activity) error

	// FindByUser returns a user's most recent activity entries, newest
	// first, up to limit.
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error)

	// FindRecent returns the most recent activity entries across all users,
	// newest first, up to limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.Activity, error)

	// WithTx returns an ActivityStore bound to the given transaction.
	WithTx(tx *sql.Tx) ActivityStore
}
