package recurrence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// Generator materializes task instances from recurring templates. It is safe
// to run repeatedly for the same date: duplicates are suppressed by the task
// store's instance identity constraint.
type Generator struct {
	tasks      store.TaskStore
	selections store.SelectionStore
	users      store.UserStore
	logger     *slog.Logger
}

// NewGenerator creates a Generator over the given stores.
// If logger is nil, a default logger will be used.
func NewGenerator(
	tasks store.TaskStore,
	selections store.SelectionStore,
	users store.UserStore,
	logger *slog.Logger,
) *Generator {
	if tasks == nil || selections == nil || users == nil {
		panic("stores cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		tasks:      tasks,
		selections: selections,
		users:      users,
		logger:     logger.With(slog.String("component", "recurrence_generator")),
	}
}

// GenerateDaily creates the day's instances for every template on the daily
// cadence. It returns the instances newly created by this call; instances
// that already existed are not included.
//
// One failing template or assignee does not abort the pass; the failure is
// logged and generation continues.
func (g *Generator) GenerateDaily(ctx context.Context, targetDate time.Time) ([]*domain.Task, error) {
	return g.generate(ctx, targetDate, domain.SelectionDaily)
}

// GenerateWeekly creates the day's instances for every template on the
// weekly cadence whose recurrence days include the target date's weekday.
// A weekly template with no recurrence days never fires. Users who opted in
// with their own day picks only receive an instance when the target weekday
// is in both the template's days and their own.
func (g *Generator) GenerateWeekly(ctx context.Context, targetDate time.Time) ([]*domain.Task, error) {
	return g.generate(ctx, targetDate, domain.SelectionWeekly)
}

// GenerateRange runs daily and weekly generation for each date from `from`
// through `from + daysAhead`, inclusive. It returns everything newly created
// across the range.
func (g *Generator) GenerateRange(ctx context.Context, from time.Time, daysAhead int) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if daysAhead < 0 {
		return nil, fmt.Errorf("daysAhead cannot be negative: %d", daysAhead)
	}

	created := []*domain.Task{}
	for offset := 0; offset <= daysAhead; offset++ {
		day := domain.DateOnly(from.AddDate(0, 0, offset))

		daily, err := g.GenerateDaily(ctx, day)
		if err != nil {
			return created, fmt.Errorf("daily generation failed for %s: %w",
				day.Format("2006-01-02"), err)
		}
		created = append(created, daily...)

		weekly, err := g.GenerateWeekly(ctx, day)
		if err != nil {
			return created, fmt.Errorf("weekly generation failed for %s: %w",
				day.Format("2006-01-02"), err)
		}
		created = append(created, weekly...)
	}

	log.Info("generation range complete",
		slog.String("from", from.Format("2006-01-02")),
		slog.Int("days_ahead", daysAhead),
		slog.Int("created", len(created)))
	return created, nil
}

func (g *Generator) generate(
	ctx context.Context,
	targetDate time.Time,
	cadence domain.SelectionType,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	day := domain.DateOnly(targetDate)
	weekday := domain.WeekdayOf(day)

	templates, err := g.findTemplates(ctx, cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring templates: %w", err)
	}

	log.Debug("starting generation pass",
		slog.String("cadence", string(cadence)),
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("templates", len(templates)))

	created := []*domain.Task{}
	for _, template := range templates {
		// Weekly templates only fire on their configured days. An empty day
		// set means the template never fires.
		if cadence == domain.SelectionWeekly && !template.RecurrenceDays.Contains(weekday) {
			continue
		}

		assignees, err := g.resolveAssignees(ctx, template, cadence, weekday)
		if err != nil {
			log.Error("failed to resolve assignees, skipping template",
				slog.String("error", err.Error()),
				slog.String("template_id", template.ID.String()))
			continue
		}

		if len(assignees) == 0 {
			// No selections and no assignment: the template is a draft.
			log.Debug("template has no assignees, skipping",
				slog.String("template_id", template.ID.String()))
			continue
		}

		for _, assignee := range assignees {
			instance, err := template.NewInstance(day, assignee)
			if err != nil {
				log.Error("failed to build instance, skipping",
					slog.String("error", err.Error()),
					slog.String("template_id", template.ID.String()),
					slog.String("assignee", assignee.String()))
				continue
			}

			wasCreated, err := g.tasks.CreateInstance(ctx, instance)
			if err != nil {
				log.Error("failed to persist instance, skipping",
					slog.String("error", err.Error()),
					slog.String("template_id", template.ID.String()),
					slog.String("assignee", assignee.String()))
				continue
			}
			if wasCreated {
				created = append(created, instance)
			}
		}
	}

	log.Info("generation pass complete",
		slog.String("cadence", string(cadence)),
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("created", len(created)))
	return created, nil
}

func (g *Generator) findTemplates(ctx context.Context, cadence domain.SelectionType) ([]*domain.Task, error) {
	if cadence == domain.SelectionDaily {
		return g.tasks.FindRecurringTemplates(ctx, domain.RecurrenceDaily, domain.RecurrenceBoth)
	}
	return g.tasks.FindRecurringTemplates(ctx, domain.RecurrenceWeekly, domain.RecurrenceBoth)
}

// resolveAssignees determines who receives an instance of the template on
// this pass. A template that allows member selection goes exclusively to
// active opt-ins; with none, nobody receives an instance. Otherwise the
// template's direct assignee receives it, or every active user when the
// template is assigned to all.
func (g *Generator) resolveAssignees(
	ctx context.Context,
	template *domain.Task,
	cadence domain.SelectionType,
	weekday domain.Weekday,
) ([]uuid.UUID, error) {
	if template.AllowMemberSelection {
		selections, err := g.selections.FindActiveByTemplate(ctx, template.ID, cadence)
		if err != nil {
			return nil, err
		}

		assignees := make([]uuid.UUID, 0, len(selections))
		for _, selection := range selections {
			if !selection.WantsDay(weekday) {
				continue
			}
			assignees = append(assignees, selection.UserID)
		}
		return assignees, nil
	}

	if template.AssignedTo != nil {
		return []uuid.UUID{*template.AssignedTo}, nil
	}

	if template.AssignedToAll {
		users, err := g.users.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		assignees := make([]uuid.UUID, 0, len(users))
		for _, user := range users {
			assignees = append(assignees, user.ID)
		}
		return assignees, nil
	}

	return nil, nil
}
