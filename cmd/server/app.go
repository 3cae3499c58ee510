package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/platform/postgres"
	"github.com/taskhive/taskhive/internal/recurrence"
	"github.com/taskhive/taskhive/internal/scheduler"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore      store.UserStore
	taskStore      store.TaskStore
	selectionStore store.SelectionStore
	categoryStore  store.CategoryStore
	tagStore       store.TagStore
	activityStore  store.ActivityStore
	batchStore     store.ImportBatchStore
	statsStore     store.StatsStore

	jwtService auth.JWTService

	activityLogger   *service.ActivityLogger
	userService      *service.UserService
	taskService      *service.TaskService
	importer         *service.Importer
	selectionService *recurrence.SelectionService
	generator        *recurrence.Generator
	scheduler        *scheduler.Scheduler
}

// newApplication connects to the database and wires stores, services, and
// the generation scheduler.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	selectionStore := postgres.NewPostgresSelectionStore(db, logger)
	categoryStore := postgres.NewPostgresCategoryStore(db, logger)
	tagStore := postgres.NewPostgresTagStore(db, logger)
	activityStore := postgres.NewPostgresActivityStore(db, logger)
	batchStore := postgres.NewPostgresImportBatchStore(db, logger)
	statsStore := postgres.NewPostgresStatsStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	activityLogger := service.NewActivityLogger(activityStore, logger)

	userService := service.NewUserService(
		userStore,
		auth.NewBcryptHasher(0),
		auth.NewBcryptVerifier(),
		jwtService,
		logger,
	)
	taskService := service.NewTaskService(db, taskStore, userStore, activityLogger, logger)
	importer := service.NewImporter(taskStore, categoryStore, tagStore, batchStore, activityLogger, logger)

	selectionService := recurrence.NewSelectionService(taskStore, selectionStore, activityLogger, logger)
	generator := recurrence.NewGenerator(taskStore, selectionStore, userStore, logger)

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		selectionStore:   selectionStore,
		categoryStore:    categoryStore,
		tagStore:         tagStore,
		activityStore:    activityStore,
		batchStore:       batchStore,
		statsStore:       statsStore,
		jwtService:       jwtService,
		activityLogger:   activityLogger,
		userService:      userService,
		taskService:      taskService,
		importer:         importer,
		selectionService: selectionService,
		generator:        generator,
		scheduler:        scheduler.New(generator, logger),
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.config.Scheduler.Enabled {
		app.scheduler.Stop()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
