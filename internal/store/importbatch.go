package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// ImportBatchStore defines the interface for bulk import batch persistence.
type ImportBatchStore interface {
	// Create saves a new batch record.
	Create(ctx context.Context, batch *domain.ImportBatch) error

	// Update modifies an existing batch, typically to record its final
	// counters and status.
	// Returns ErrImportBatchNotFound if the batch does not exist.
	Update(ctx context.Context, batch *domain.ImportBatch) error

	// GetByID retrieves a batch with its row errors.
	// Returns ErrImportBatchNotFound if the batch does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportBatch, error)

	// ListByUser returns a user's batches, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ImportBatch, error)

	// WithTx returns an ImportBatchStore bound to the given transaction.
	WithTx(tx *sql.Tx) ImportBatchStore
}
