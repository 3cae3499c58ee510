package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// TaskService implements task workflows: CRUD, status moves, and the
// completion path that awards points and bumps the assignee's level.
type TaskService struct {
	db       *sql.DB
	tasks    store.TaskStore
	users    store.UserStore
	activity *ActivityLogger
	logger   *slog.Logger

	// runTx executes a function transactionally. Tests replace it to run
	// the function without a real database transaction.
	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewTaskService creates a TaskService.
// If logger is nil, a default logger will be used.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	users store.UserStore,
	activity *ActivityLogger,
	logger *slog.Logger,
) *TaskService {
	if db == nil {
		panic("db cannot be nil")
	}
	if tasks == nil {
		panic("tasks cannot be nil")
	}
	if users == nil {
		panic("users cannot be nil")
	}
	if activity == nil {
		panic("activity cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		db:       db,
		tasks:    tasks,
		users:    users,
		activity: activity,
		logger:   logger.With(slog.String("component", "task_service")),
		runTx:    store.RunInTransaction,
	}
}

// Create persists a new task and records the creation in the activity log.
func (s *TaskService) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.tasks.Create(ctx, task); err != nil {
		return err
	}

	s.activity.Record(ctx, task.CreatedBy, domain.ActivityTaskCreated,
		fmt.Sprintf("Created task %q", task.Title),
		WithRelated(task.ID, "task"))

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Bool("is_template", task.IsTemplate))
	return nil
}

// Get retrieves a task by ID.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	return s.tasks.List(ctx, filter)
}

// Update persists changes to a task.
func (s *TaskService) Update(ctx context.Context, task *domain.Task) error {
	return s.tasks.Update(ctx, task)
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tasks.Delete(ctx, id)
}

// SetStatus moves a task to the given status. Moving to completed routes
// through Complete so points are awarded exactly once.
func (s *TaskService) SetStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status domain.Status,
	actorID uuid.UUID,
) (*domain.Task, error) {
	if status == domain.StatusCompleted {
		return s.Complete(ctx, taskID, actorID)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := task.SetStatus(status); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Complete marks the task completed, awards its points to the assignee, and
// logs both events. The status change and the points award commit together.
// Returns ErrAlreadyCompleted when the task is already done.
func (s *TaskService) Complete(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var completed *domain.Task
	var pointsAwardedTo *uuid.UUID

	err := s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)
		users := s.users.WithTx(tx)

		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		if task.Status == domain.StatusCompleted {
			return ErrAlreadyCompleted
		}

		if err := task.SetStatus(domain.StatusCompleted); err != nil {
			return err
		}

		if err := tasks.Update(ctx, task); err != nil {
			return err
		}

		// Points go to the assignee; an unassigned task awards nobody.
		if task.AssignedTo != nil && task.PointsValue > 0 {
			user, err := users.GetByID(ctx, *task.AssignedTo)
			if err != nil {
				return err
			}
			user.AddPoints(task.PointsValue)
			if err := users.Update(ctx, user); err != nil {
				return err
			}
			pointsAwardedTo = task.AssignedTo
		}

		completed = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actorID, domain.ActivityTaskCompleted,
		fmt.Sprintf("Completed task %q", completed.Title),
		WithRelated(completed.ID, "task"))

	if pointsAwardedTo != nil {
		s.activity.Record(ctx, *pointsAwardedTo, domain.ActivityPointsEarned,
			fmt.Sprintf("Earned %d points for %q", completed.PointsValue, completed.Title),
			WithPoints(completed.PointsValue),
			WithRelated(completed.ID, "task"))
	}

	log.Info("task completed",
		slog.String("task_id", completed.ID.String()),
		slog.Int("points", completed.PointsValue))
	return completed, nil
}
