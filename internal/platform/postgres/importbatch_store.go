package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// PostgresImportBatchStore implements the store.ImportBatchStore interface
// using a PostgreSQL database as the storage backend. Row errors are stored
// as a JSONB column alongside the batch counters.
type PostgresImportBatchStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresImportBatchStore creates a new PostgreSQL implementation of the ImportBatchStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresImportBatchStore(db store.DBTX, logger *slog.Logger) *PostgresImportBatchStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImportBatchStore{
		db:     db,
		logger: logger.With(slog.String("component", "import_batch_store")),
	}
}

// Ensure PostgresImportBatchStore implements store.ImportBatchStore interface
var _ store.ImportBatchStore = (*PostgresImportBatchStore)(nil)

// Create implements store.ImportBatchStore.Create
func (s *PostgresImportBatchStore) Create(ctx context.Context, batch *domain.ImportBatch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := batch.Validate(); err != nil {
		log.Warn("batch validation failed during create",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return err
	}

	rowErrors, err := json.Marshal(batch.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal batch errors: %w", err)
	}

	query := `
		INSERT INTO import_batches (id, filename, uploaded_by, status,
			total_rows, created_count, skipped_count, failed_count,
			row_errors, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		batch.ID,
		batch.Filename,
		batch.UploadedBy,
		batch.Status,
		batch.TotalRows,
		batch.CreatedCount,
		batch.SkippedCount,
		batch.FailedCount,
		rowErrors,
		batch.CreatedAt,
		batch.CompletedAt,
	)
	if err != nil {
		log.Error("failed to create import batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return MapError(err)
	}

	log.Info("import batch created",
		slog.String("batch_id", batch.ID.String()),
		slog.String("filename", batch.Filename))
	return nil
}

// Update implements store.ImportBatchStore.Update
// Returns store.ErrImportBatchNotFound if the batch does not exist.
func (s *PostgresImportBatchStore) Update(ctx context.Context, batch *domain.ImportBatch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := batch.Validate(); err != nil {
		log.Warn("batch validation failed during update",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return err
	}

	rowErrors, err := json.Marshal(batch.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal batch errors: %w", err)
	}

	query := `
		UPDATE import_batches
		SET status = $1, total_rows = $2, created_count = $3,
			skipped_count = $4, failed_count = $5, row_errors = $6,
			completed_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		batch.Status,
		batch.TotalRows,
		batch.CreatedCount,
		batch.SkippedCount,
		batch.FailedCount,
		rowErrors,
		batch.CompletedAt,
		batch.ID,
	)
	if err != nil {
		log.Error("failed to update import batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("import batch not found for update",
			slog.String("batch_id", batch.ID.String()))
		return store.ErrImportBatchNotFound
	}

	return nil
}

// GetByID implements store.ImportBatchStore.GetByID
// Returns store.ErrImportBatchNotFound if the batch does not exist.
func (s *PostgresImportBatchStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportBatch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, filename, uploaded_by, status, total_rows, created_count,
			skipped_count, failed_count, row_errors, created_at, completed_at
		FROM import_batches
		WHERE id = $1
	`

	batch, err := scanImportBatch(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("import batch not found", slog.String("batch_id", id.String()))
			return nil, store.ErrImportBatchNotFound
		}
		log.Error("failed to get import batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", id.String()))
		return nil, MapError(err)
	}

	return batch, nil
}

// ListByUser implements store.ImportBatchStore.ListByUser
func (s *PostgresImportBatchStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ImportBatch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, filename, uploaded_by, status, total_rows, created_count,
			skipped_count, failed_count, row_errors, created_at, completed_at
		FROM import_batches
		WHERE uploaded_by = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list import batches",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	batches := []*domain.ImportBatch{}
	for rows.Next() {
		batch, err := scanImportBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

// WithTx implements store.ImportBatchStore.WithTx
func (s *PostgresImportBatchStore) WithTx(tx *sql.Tx) store.ImportBatchStore {
	return &PostgresImportBatchStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanImportBatch(row rowScanner) (*domain.ImportBatch, error) {
	var batch domain.ImportBatch
	var status string
	var rowErrors []byte

	err := row.Scan(
		&batch.ID,
		&batch.Filename,
		&batch.UploadedBy,
		&status,
		&batch.TotalRows,
		&batch.CreatedCount,
		&batch.SkippedCount,
		&batch.FailedCount,
		&rowErrors,
		&batch.CreatedAt,
		&batch.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	batch.Status = domain.BatchStatus(status)

	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &batch.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch errors: %w", err)
		}
	}

	return &batch, nil
}
