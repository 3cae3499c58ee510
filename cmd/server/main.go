// Package main implements the entry point for the TaskHive API server,
// which manages team tasks, recurring task generation, and gamified
// completion tracking.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/platform/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	ctx := context.Background()

	if err := runMigrations(app.db, app.logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *migrateOnly {
		app.logger.Info("migrations finished, exiting")
		return
	}

	if app.config.Scheduler.Enabled {
		if err := app.scheduler.Register(app.config.Scheduler); err != nil {
			log.Fatalf("Failed to register generation schedule: %v", err)
		}
		app.scheduler.Start()
	} else {
		app.logger.Info("scheduler disabled by configuration")
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging, connects to the
// database, and wires the application's services.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"scheduler_enabled", cfg.Scheduler.Enabled)

	return newApplication(cfg, appLogger)
}
