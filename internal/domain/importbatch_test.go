package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewImportBatch(t *testing.T) {
	t.Parallel()

	uploader := uuid.New()

	batch, err := NewImportBatch(uploader, "tasks.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if batch.Status != BatchStatusPending {
		t.Errorf("Expected pending status, got %q", batch.Status)
	}
	if batch.UploadedBy != uploader {
		t.Error("Expected uploader to be recorded")
	}
	if batch.CompletedAt != nil {
		t.Error("Expected no completion time on a new batch")
	}

	_, err = NewImportBatch(uploader, "")
	if !errors.Is(err, ErrEmptyBatchFilename) {
		t.Errorf("Expected ErrEmptyBatchFilename, got %v", err)
	}
}

func TestImportBatchValidate(t *testing.T) {
	t.Parallel()

	batch, err := NewImportBatch(uuid.New(), "tasks.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch.Status = BatchStatus("exploded")
	if err := batch.Validate(); !errors.Is(err, ErrInvalidBatchStatus) {
		t.Errorf("Expected ErrInvalidBatchStatus, got %v", err)
	}

	batch.Status = BatchStatusProcessing
	batch.CreatedCount = -1
	if err := batch.Validate(); !errors.Is(err, ErrNegativeBatchCount) {
		t.Errorf("Expected ErrNegativeBatchCount, got %v", err)
	}
}

func TestImportBatchRecordError(t *testing.T) {
	t.Parallel()

	batch, err := NewImportBatch(uuid.New(), "tasks.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch.RecordError(3, "title is required")
	batch.RecordError(7, "invalid due_date")

	if batch.FailedCount != 2 {
		t.Errorf("Expected 2 failures, got %d", batch.FailedCount)
	}
	if len(batch.Errors) != 2 {
		t.Fatalf("Expected 2 row errors, got %d", len(batch.Errors))
	}
	if batch.Errors[0].Row != 3 || batch.Errors[1].Row != 7 {
		t.Errorf("Expected row numbers preserved, got %+v", batch.Errors)
	}
}

func TestImportBatchFinish(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		created int
		skipped int
		failed  int
		want    BatchStatus
	}{
		{"all created", 5, 0, 0, BatchStatusCompleted},
		{"created and skipped", 3, 2, 0, BatchStatusCompleted},
		{"only skipped", 0, 4, 0, BatchStatusCompleted},
		{"some failed", 3, 0, 2, BatchStatusPartial},
		{"all failed", 0, 0, 5, BatchStatusFailed},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			batch, err := NewImportBatch(uuid.New(), "tasks.csv")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			batch.TotalRows = tc.created + tc.skipped + tc.failed
			batch.CreatedCount = tc.created
			batch.SkippedCount = tc.skipped
			batch.FailedCount = tc.failed

			now := time.Now()
			batch.Finish(now)

			if batch.Status != tc.want {
				t.Errorf("Expected status %q, got %q", tc.want, batch.Status)
			}
			if batch.CompletedAt == nil {
				t.Error("Expected completion time to be set")
			}
		})
	}
}
