package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// importColumns are the recognized CSV header names. Only title is required;
// every other column falls back to the task defaults.
var importColumns = []string{
	"title", "description", "category", "task_type", "priority",
	"difficulty", "estimated_hours", "points_value", "due_date", "tags",
	"acceptance_criteria",
}

// Importer ingests CSV files of tasks. Each upload becomes an ImportBatch
// whose counters and per-row errors describe the outcome. Rows whose title
// matches an existing task are skipped rather than duplicated.
type Importer struct {
	tasks      store.TaskStore
	categories store.CategoryStore
	tags       store.TagStore
	batches    store.ImportBatchStore
	activity   *ActivityLogger
	logger     *slog.Logger
}

// NewImporter creates an Importer.
// If logger is nil, a default logger will be used.
func NewImporter(
	tasks store.TaskStore,
	categories store.CategoryStore,
	tags store.TagStore,
	batches store.ImportBatchStore,
	activity *ActivityLogger,
	logger *slog.Logger,
) *Importer {
	if tasks == nil || categories == nil || tags == nil || batches == nil {
		panic("stores cannot be nil")
	}
	if activity == nil {
		panic("activity cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Importer{
		tasks:      tasks,
		categories: categories,
		tags:       tags,
		batches:    batches,
		activity:   activity,
		logger:     logger.With(slog.String("component", "importer")),
	}
}

// Import reads CSV data and creates one task per valid row. It returns the
// finished batch record; row-level failures are collected on the batch, not
// returned as an error. The error return covers only file-level problems
// (unreadable CSV, missing title column, empty file).
//
// With skipDuplicates set, rows whose title matches an existing task or an
// earlier row in the same file are counted as skipped instead of created.
func (imp *Importer) Import(
	ctx context.Context,
	uploadedBy uuid.UUID,
	filename string,
	data io.Reader,
	skipDuplicates bool,
) (*domain.ImportBatch, error) {
	log := logger.FromContextOrDefault(ctx, imp.logger)

	batch, err := domain.NewImportBatch(uploadedBy, filename)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyImport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := indexColumns(header)
	if _, ok := columns["title"]; !ok {
		return nil, ErrMissingHeader
	}

	batch.Status = domain.BatchStatusProcessing
	if err := imp.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	seenTitles := map[string]bool{}

	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			batch.TotalRows++
			batch.RecordError(rowNum, fmt.Sprintf("unreadable row: %v", err))
			continue
		}

		batch.TotalRows++

		row := readRow(columns, record)
		title := strings.TrimSpace(row["title"])
		if title == "" {
			batch.RecordError(rowNum, "title is required")
			continue
		}

		// Duplicate titles, within the file or against existing tasks, are
		// skipped rather than treated as failures.
		if skipDuplicates {
			if seenTitles[title] {
				batch.SkippedCount++
				continue
			}
			exists, err := imp.tasks.ExistsByTitle(ctx, title)
			if err != nil {
				batch.RecordError(rowNum, fmt.Sprintf("duplicate check failed: %v", err))
				continue
			}
			if exists {
				batch.SkippedCount++
				continue
			}
		}

		task, err := imp.buildTask(ctx, uploadedBy, batch.ID, row)
		if err != nil {
			batch.RecordError(rowNum, err.Error())
			continue
		}

		if err := imp.tasks.Create(ctx, task); err != nil {
			batch.RecordError(rowNum, fmt.Sprintf("failed to save: %v", err))
			continue
		}

		seenTitles[title] = true
		batch.CreatedCount++
	}

	if batch.TotalRows == 0 {
		return nil, ErrEmptyImport
	}

	batch.Finish(time.Now())
	if err := imp.batches.Update(ctx, batch); err != nil {
		log.Error("failed to finalize import batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return nil, err
	}

	imp.activity.Record(ctx, uploadedBy, domain.ActivityTasksImported,
		fmt.Sprintf("Imported %d tasks from %s", batch.CreatedCount, filename),
		WithRelated(batch.ID, "import_batch"))

	log.Info("import finished",
		slog.String("batch_id", batch.ID.String()),
		slog.String("status", string(batch.Status)),
		slog.Int("total", batch.TotalRows),
		slog.Int("created", batch.CreatedCount),
		slog.Int("skipped", batch.SkippedCount),
		slog.Int("failed", batch.FailedCount))
	return batch, nil
}

// GetBatch retrieves an import batch with its row errors.
func (imp *Importer) GetBatch(ctx context.Context, id uuid.UUID) (*domain.ImportBatch, error) {
	return imp.batches.GetByID(ctx, id)
}

// ListBatches returns a user's import batches, newest first.
func (imp *Importer) ListBatches(ctx context.Context, userID uuid.UUID) ([]*domain.ImportBatch, error) {
	return imp.batches.ListByUser(ctx, userID)
}

func (imp *Importer) buildTask(
	ctx context.Context,
	createdBy, batchID uuid.UUID,
	row map[string]string,
) (*domain.Task, error) {
	task, err := domain.NewTask(createdBy, strings.TrimSpace(row["title"]),
		strings.TrimSpace(row["description"]))
	if err != nil {
		return nil, err
	}
	task.ImportBatch = batchID.String()
	// Imported tasks have no assignee column; they land in the shared pool.
	task.AssignedToAll = true

	if v := strings.TrimSpace(row["task_type"]); v != "" {
		task.Type = domain.TaskType(strings.ToLower(v))
	}
	if v := strings.TrimSpace(row["priority"]); v != "" {
		task.Priority = domain.Priority(strings.ToLower(v))
	}
	if v := strings.TrimSpace(row["difficulty"]); v != "" {
		task.Difficulty = domain.Difficulty(strings.ToLower(v))
	}
	if v := strings.TrimSpace(row["acceptance_criteria"]); v != "" {
		task.AcceptanceCriteria = v
	}

	if v := strings.TrimSpace(row["estimated_hours"]); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours < 0 {
			return nil, fmt.Errorf("invalid estimated_hours %q", v)
		}
		task.EstimatedHours = hours
	}

	if v := strings.TrimSpace(row["points_value"]); v != "" {
		points, err := strconv.Atoi(v)
		if err != nil || points < 0 {
			return nil, fmt.Errorf("invalid points_value %q", v)
		}
		task.PointsValue = points
	}

	if v := strings.TrimSpace(row["due_date"]); v != "" {
		due, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q, expected YYYY-MM-DD", v)
		}
		task.DueDate = &due
	}

	if v := strings.TrimSpace(row["category"]); v != "" {
		category, err := imp.categories.GetOrCreateByName(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %v", v, err)
		}
		task.CategoryID = &category.ID
	}

	if v := strings.TrimSpace(row["tags"]); v != "" {
		for _, name := range strings.Split(v, ";") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			tag, err := imp.tags.GetOrCreateByName(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve tag %q: %v", name, err)
			}
			task.TagIDs = append(task.TagIDs, tag.ID)
		}
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

func indexColumns(header []string) map[string]int {
	known := map[string]bool{}
	for _, c := range importColumns {
		known[c] = true
	}

	columns := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if known[name] {
			columns[name] = i
		}
	}
	return columns
}

func readRow(columns map[string]int, record []string) map[string]string {
	row := map[string]string{}
	for name, idx := range columns {
		if idx < len(record) {
			row[name] = record[idx]
		}
	}
	return row
}
