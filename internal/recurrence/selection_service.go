package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/store"
)

// Selection service errors.
var (
	// ErrNotRecurringTemplate is returned when a selection targets a task
	// that is not a recurring template.
	ErrNotRecurringTemplate = errors.New("task is not a recurring template")

	// ErrCadenceMismatch is returned when a selection's cadence is not one
	// the template fires on.
	ErrCadenceMismatch = errors.New("template does not recur on the requested cadence")

	// ErrSelectionNotAllowed is returned when the template does not allow
	// members to opt in.
	ErrSelectionNotAllowed = errors.New("template does not allow member selection")
)

// SelectionService manages user opt-ins against recurring templates.
type SelectionService struct {
	tasks      store.TaskStore
	selections store.SelectionStore
	activity   *service.ActivityLogger
	logger     *slog.Logger
}

// NewSelectionService creates a SelectionService over the given stores.
// If logger is nil, a default logger will be used.
func NewSelectionService(
	tasks store.TaskStore,
	selections store.SelectionStore,
	activity *service.ActivityLogger,
	logger *slog.Logger,
) *SelectionService {
	if tasks == nil || selections == nil {
		panic("stores cannot be nil")
	}
	if activity == nil {
		panic("activity cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SelectionService{
		tasks:      tasks,
		selections: selections,
		activity:   activity,
		logger:     logger.With(slog.String("component", "selection_service")),
	}
}

// SetSelection records or updates a user's opt-in for a template and
// cadence. Re-selecting updates the day picks in place; there is never more
// than one selection row per (user, template, cadence). Weekly day picks are
// stored as given, daily selections carry none.
func (s *SelectionService) SetSelection(
	ctx context.Context,
	userID, templateID uuid.UUID,
	cadence domain.SelectionType,
	days domain.WeekdaySet,
) (*domain.RecurringSelection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	template, err := s.checkTemplate(ctx, templateID, cadence)
	if err != nil {
		return nil, err
	}

	selection, err := domain.NewRecurringSelection(userID, templateID, cadence, days)
	if err != nil {
		return nil, err
	}

	if err := s.selections.Upsert(ctx, selection); err != nil {
		log.Error("failed to save selection",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("template_id", templateID.String()))
		return nil, err
	}

	s.activity.Record(ctx, userID, domain.ActivitySelectionChanged,
		fmt.Sprintf("Opted in to %q (%s)", template.Title, cadence),
		service.WithRelated(templateID, "task"))

	log.Info("selection saved",
		slog.String("user_id", userID.String()),
		slog.String("template_id", templateID.String()),
		slog.String("cadence", string(cadence)))
	return selection, nil
}

// ClearSelection deactivates a user's opt-in without deleting the row, so
// re-opting later keeps the selection's history.
func (s *SelectionService) ClearSelection(
	ctx context.Context,
	userID, templateID uuid.UUID,
	cadence domain.SelectionType,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	selection, err := s.selections.Get(ctx, userID, templateID, cadence)
	if err != nil {
		return err
	}

	selection.Deactivate()

	if err := s.selections.Upsert(ctx, selection); err != nil {
		log.Error("failed to clear selection",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("template_id", templateID.String()))
		return err
	}

	description := fmt.Sprintf("Opted out of recurring template (%s)", cadence)
	if template, err := s.tasks.GetByID(ctx, templateID); err == nil {
		description = fmt.Sprintf("Opted out of %q (%s)", template.Title, cadence)
	}
	s.activity.Record(ctx, userID, domain.ActivitySelectionChanged,
		description, service.WithRelated(templateID, "task"))

	log.Info("selection cleared",
		slog.String("user_id", userID.String()),
		slog.String("template_id", templateID.String()),
		slog.String("cadence", string(cadence)))
	return nil
}

// ListForUser returns all of a user's selections.
func (s *SelectionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.RecurringSelection, error) {
	return s.selections.FindByUser(ctx, userID)
}

// checkTemplate verifies the target task is a recurring template that allows
// member selection and fires on the requested cadence.
func (s *SelectionService) checkTemplate(
	ctx context.Context,
	templateID uuid.UUID,
	cadence domain.SelectionType,
) (*domain.Task, error) {
	template, err := s.tasks.GetByID(ctx, templateID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %v", store.ErrTemplateNotFound, err)
		}
		return nil, err
	}

	if !template.IsTemplate || !template.IsRecurring {
		return nil, ErrNotRecurringTemplate
	}

	if !template.AllowMemberSelection {
		return nil, ErrSelectionNotAllowed
	}

	switch cadence {
	case domain.SelectionDaily:
		if !template.FiresDaily() {
			return nil, ErrCadenceMismatch
		}
	case domain.SelectionWeekly:
		if !template.FiresWeekly() {
			return nil, ErrCadenceMismatch
		}
	}

	return template, nil
}
