package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// taskColumns is the canonical column list scanned by scanTask. Queries must
// select these columns in this order.
const taskColumns = `id, title, description, category_id, task_type, status,
	priority, difficulty, created_by, assigned_to, assigned_to_all,
	estimated_hours, actual_hours, due_date, start_date, completion_date,
	progress_percentage, acceptance_criteria, points_value, is_recurring,
	is_template, recurrence_type, recurrence_days, allow_member_selection,
	max_assignees, template_task, instance_date, import_batch,
	created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend. Templates and their
// generated instances share the tasks table.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task or template with its tag associations.
// Returns store.ErrInvalidEntity if a referenced user or category is missing.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if err := s.insertTask(ctx, task); err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: referenced user or category not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := s.replaceTags(ctx, task.ID, task.TagIDs); err != nil {
		log.Error("failed to save task tags",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.Bool("is_template", task.IsTemplate))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// It persists the task's fields and replaces its tag associations.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, category_id = $3, task_type = $4,
			status = $5, priority = $6, difficulty = $7, assigned_to = $8,
			assigned_to_all = $9, estimated_hours = $10, actual_hours = $11,
			due_date = $12, start_date = $13, completion_date = $14,
			progress_percentage = $15, acceptance_criteria = $16,
			points_value = $17, is_recurring = $18, is_template = $19,
			recurrence_type = $20, recurrence_days = $21,
			allow_member_selection = $22, max_assignees = $23,
			updated_at = $24
		WHERE id = $25
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.CategoryID,
		task.Type,
		task.Status,
		task.Priority,
		task.Difficulty,
		task.AssignedTo,
		task.AssignedToAll,
		task.EstimatedHours,
		task.ActualHours,
		task.DueDate,
		task.StartDate,
		task.CompletionDate,
		task.ProgressPercentage,
		task.AcceptanceCriteria,
		task.PointsValue,
		task.IsRecurring,
		task.IsTemplate,
		task.RecurrenceType,
		task.RecurrenceDays.String(),
		task.AllowMemberSelection,
		task.MaxAssignees,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	if err := s.replaceTags(ctx, task.ID, task.TagIDs); err != nil {
		log.Error("failed to save task tags",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Debug("task updated successfully",
		slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
// Instances generated from a deleted template are removed by the schema's
// cascade rules.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
// It returns tasks matching the filter, newest first.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE is_template = $1`
	args := []interface{}{filter.Templates}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.AssignedTo != uuid.Nil {
		args = append(args, filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.CategoryID != uuid.Nil {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, err
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// ExistsByTitle implements store.TaskStore.ExistsByTitle
// It reports whether a non-template task with the given title exists.
func (s *PostgresTaskStore) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE title = $1 AND is_template = FALSE)`,
		title,
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check task title", slog.String("error", err.Error()))
		return false, err
	}

	return exists, nil
}

// FindRecurringTemplates implements store.TaskStore.FindRecurringTemplates
// It returns all recurring templates whose recurrence type is one of the
// given kinds.
func (s *PostgresTaskStore) FindRecurringTemplates(
	ctx context.Context,
	kinds ...domain.RecurrenceType,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(kinds) == 0 {
		return []*domain.Task{}, nil
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE is_template = TRUE AND is_recurring = TRUE AND recurrence_type IN (`
	args := make([]interface{}, 0, len(kinds))
	for i, kind := range kinds {
		if i > 0 {
			query += ", "
		}
		args = append(args, kind)
		query += fmt.Sprintf("$%d", len(args))
	}
	query += `) ORDER BY created_at`

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		log.Error("failed to find recurring templates",
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, err
	}

	log.Debug("found recurring templates", slog.Int("count", len(tasks)))
	return tasks, nil
}

// CreateInstance implements store.TaskStore.CreateInstance
// It inserts a generated instance, relying on the partial unique index over
// (template_task, instance_date, assigned_to) to make generation idempotent.
// A conflicting insert is silently skipped and reported as created=false.
func (s *PostgresTaskStore) CreateInstance(ctx context.Context, instance *domain.Task) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := instance.Validate(); err != nil {
		log.Warn("instance validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", instance.ID.String()))
		return false, err
	}
	if instance.TemplateTask == nil || instance.InstanceDate == nil || instance.AssignedTo == nil {
		return false, domain.ErrInstanceMissingDate
	}

	created, err := s.insertInstance(ctx, instance)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during instance creation",
				slog.String("error", err.Error()),
				slog.String("template_id", instance.TemplateTask.String()))
			return false, fmt.Errorf("%w: referenced template, user or category not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to create task instance",
			slog.String("error", err.Error()),
			slog.String("template_id", instance.TemplateTask.String()))
		return false, MapError(err)
	}

	if !created {
		log.Debug("instance already exists, skipping",
			slog.String("template_id", instance.TemplateTask.String()),
			slog.String("instance_date", instance.InstanceDate.Format("2006-01-02")),
			slog.String("assigned_to", instance.AssignedTo.String()))
		return false, nil
	}

	if err := s.replaceTags(ctx, instance.ID, instance.TagIDs); err != nil {
		log.Error("failed to save instance tags",
			slog.String("error", err.Error()),
			slog.String("task_id", instance.ID.String()))
		return false, MapError(err)
	}

	log.Info("task instance created",
		slog.String("task_id", instance.ID.String()),
		slog.String("template_id", instance.TemplateTask.String()),
		slog.String("instance_date", instance.InstanceDate.Format("2006-01-02")))
	return true, nil
}

// CountInstances implements store.TaskStore.CountInstances
func (s *PostgresTaskStore) CountInstances(ctx context.Context, templateID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE template_task = $1`, templateID,
	).Scan(&count)
	if err != nil {
		log.Error("failed to count instances",
			slog.String("error", err.Error()),
			slog.String("template_id", templateID.String()))
		return 0, MapError(err)
	}

	return count, nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new TaskStore instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresTaskStore) insertTask(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30)
	`
	_, err := s.db.ExecContext(ctx, query, taskArgs(task)...)
	return err
}

// insertInstance performs the idempotent upsert for generated instances. The
// conflict target must name the partial unique index predicate for postgres
// to use it as the arbiter.
func (s *PostgresTaskStore) insertInstance(ctx context.Context, task *domain.Task) (bool, error) {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30)
		ON CONFLICT (template_task, instance_date, assigned_to)
			WHERE template_task IS NOT NULL
			DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, taskArgs(task)...)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func taskArgs(task *domain.Task) []interface{} {
	return []interface{}{
		task.ID,
		task.Title,
		task.Description,
		task.CategoryID,
		task.Type,
		task.Status,
		task.Priority,
		task.Difficulty,
		task.CreatedBy,
		task.AssignedTo,
		task.AssignedToAll,
		task.EstimatedHours,
		task.ActualHours,
		task.DueDate,
		task.StartDate,
		task.CompletionDate,
		task.ProgressPercentage,
		task.AcceptanceCriteria,
		task.PointsValue,
		task.IsRecurring,
		task.IsTemplate,
		task.RecurrenceType,
		task.RecurrenceDays.String(),
		task.AllowMemberSelection,
		task.MaxAssignees,
		task.TemplateTask,
		task.InstanceDate,
		task.ImportBatch,
		task.CreatedAt,
		task.UpdatedAt,
	}
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// replaceTags rewrites a task's tag associations to match tagIDs.
func (s *PostgresTaskStore) replaceTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`,
			taskID, tagID); err != nil {
			return err
		}
	}

	return nil
}

// loadTags populates TagIDs for each task in a single query.
func (s *PostgresTaskStore) loadTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
		ids = append(ids, task.ID.String())
	}

	query := `SELECT task_id, tag_id FROM task_tags WHERE task_id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var taskID, tagID uuid.UUID
		if err := rows.Scan(&taskID, &tagID); err != nil {
			return err
		}
		if task, ok := byID[taskID]; ok {
			task.TagIDs = append(task.TagIDs, tagID)
		}
	}

	return rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		taskType, status, priority, difficulty, recurrenceType string
		recurrenceDays                                         string
		importBatch                                            sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.CategoryID,
		&taskType,
		&status,
		&priority,
		&difficulty,
		&task.CreatedBy,
		&task.AssignedTo,
		&task.AssignedToAll,
		&task.EstimatedHours,
		&task.ActualHours,
		&task.DueDate,
		&task.StartDate,
		&task.CompletionDate,
		&task.ProgressPercentage,
		&task.AcceptanceCriteria,
		&task.PointsValue,
		&task.IsRecurring,
		&task.IsTemplate,
		&recurrenceType,
		&recurrenceDays,
		&task.AllowMemberSelection,
		&task.MaxAssignees,
		&task.TemplateTask,
		&task.InstanceDate,
		&importBatch,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Type = domain.TaskType(taskType)
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.Difficulty = domain.Difficulty(difficulty)
	task.RecurrenceType = domain.RecurrenceType(recurrenceType)
	task.ImportBatch = importBatch.String

	days, err := domain.ParseWeekdaySet(recurrenceDays)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence days in storage: %w", err)
	}
	task.RecurrenceDays = days

	return &task, nil
}
