package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle state of a bulk import batch.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusPartial    BatchStatus = "partial"
	BatchStatusFailed     BatchStatus = "failed"
)

// Validation errors for import batches.
var (
	ErrEmptyBatchID       = errors.New("batch ID cannot be empty")
	ErrEmptyBatchFilename = errors.New("batch filename cannot be empty")
	ErrInvalidBatchStatus = errors.New("invalid batch status")
	ErrNegativeBatchCount = errors.New("batch row counts cannot be negative")
)

// RowError records a single failed row within an import batch.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportBatch tracks one CSV bulk import: how many rows were seen, how many
// became tasks, and what went wrong with the rest. Every task created by the
// batch carries its ID so the import can be audited or rolled back by hand.
type ImportBatch struct {
	ID           uuid.UUID   `json:"id"`
	Filename     string      `json:"filename"`
	UploadedBy   uuid.UUID   `json:"uploaded_by"`
	Status       BatchStatus `json:"status"`
	TotalRows    int         `json:"total_rows"`
	CreatedCount int         `json:"created_count"`
	SkippedCount int         `json:"skipped_count"`
	FailedCount  int         `json:"failed_count"`
	Errors       []RowError  `json:"errors,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// NewImportBatch creates a pending batch for the given file and uploader.
func NewImportBatch(uploadedBy uuid.UUID, filename string) (*ImportBatch, error) {
	batch := &ImportBatch{
		ID:         uuid.New(),
		Filename:   filename,
		UploadedBy: uploadedBy,
		Status:     BatchStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	return batch, nil
}

// Validate checks if the batch data meets domain constraints.
func (b *ImportBatch) Validate() error {
	if b.ID == uuid.Nil {
		return ErrEmptyBatchID
	}

	if b.Filename == "" {
		return ErrEmptyBatchFilename
	}

	switch b.Status {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted, BatchStatusPartial, BatchStatusFailed:
	default:
		return ErrInvalidBatchStatus
	}

	if b.TotalRows < 0 || b.CreatedCount < 0 || b.SkippedCount < 0 || b.FailedCount < 0 {
		return ErrNegativeBatchCount
	}

	return nil
}

// RecordError marks one row as failed.
func (b *ImportBatch) RecordError(row int, message string) {
	b.FailedCount++
	b.Errors = append(b.Errors, RowError{Row: row, Message: message})
}

// Finish stamps the batch with its terminal status based on the row counters:
// completed when every row became a task or was deliberately skipped, failed
// when no row succeeded, partial otherwise.
func (b *ImportBatch) Finish(now time.Time) {
	switch {
	case b.FailedCount == 0:
		b.Status = BatchStatusCompleted
	case b.CreatedCount == 0:
		b.Status = BatchStatusFailed
	default:
		b.Status = BatchStatusPartial
	}

	done := now.UTC()
	b.CompletedAt = &done
}
