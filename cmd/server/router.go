package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive/internal/api"
	apiMiddleware "github.com/taskhive/taskhive/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService)
	userHandler := api.NewUserHandler(app.userService, app.activityStore)
	taskHandler := api.NewTaskHandler(app.taskService, app.categoryStore, app.tagStore)
	recurringHandler := api.NewRecurringHandler(
		app.taskService,
		app.selectionService,
		app.generator,
		app.tagStore,
		app.activityLogger,
	)
	importHandler := api.NewImportHandler(app.importer)
	analyticsHandler := api.NewAnalyticsHandler(app.statsStore, app.activityStore)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Profile and administration
			r.Get("/users/me", userHandler.Me)
			r.Get("/users/me/activity", userHandler.MyActivity)
			r.Patch("/users/{id}/role", userHandler.SetRole)
			r.Delete("/users/{id}", userHandler.Deactivate)

			// Tasks
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Patch("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
			r.Patch("/tasks/{id}/status", taskHandler.SetStatus)

			// Recurring templates, selections, and generation
			r.Post("/templates", recurringHandler.CreateTemplate)
			r.Get("/templates", recurringHandler.ListTemplates)
			r.Put("/templates/{id}/selection", recurringHandler.SetSelection)
			r.Delete("/templates/{id}/selection", recurringHandler.ClearSelection)
			r.Get("/selections", recurringHandler.ListSelections)
			r.Post("/generate", recurringHandler.Generate)

			// Bulk import
			r.Post("/imports", importHandler.Upload)
			r.Get("/imports", importHandler.ListBatches)
			r.Get("/imports/{id}", importHandler.GetBatch)

			// Analytics and activity feed
			r.Get("/analytics/summary", analyticsHandler.Summary)
			r.Get("/analytics/completions", analyticsHandler.Completions)
			r.Get("/analytics/leaderboard", analyticsHandler.Leaderboard)
			r.Get("/activity", analyticsHandler.RecentActivity)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
