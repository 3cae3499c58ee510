package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// ActivityLogger appends entries to the activity log. Logging is
// fire-and-forget: a failed append is reported to the application log and
// never fails the operation that produced it.
type ActivityLogger struct {
	activities store.ActivityStore
	logger     *slog.Logger
}

// NewActivityLogger creates an ActivityLogger over the given store.
// If logger is nil, a default logger will be used.
func NewActivityLogger(activities store.ActivityStore, logger *slog.Logger) *ActivityLogger {
	if activities == nil {
		panic("activities cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ActivityLogger{
		activities: activities,
		logger:     logger.With(slog.String("component", "activity_logger")),
	}
}

// Record appends an activity entry for the user. Errors are swallowed after
// logging.
func (l *ActivityLogger) Record(
	ctx context.Context,
	userID uuid.UUID,
	activityType domain.ActivityType,
	description string,
	opts ...ActivityOption,
) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	activity, err := domain.NewActivity(userID, activityType, description)
	if err != nil {
		log.Warn("failed to build activity entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return
	}

	for _, opt := range opts {
		opt(activity)
	}

	if err := l.activities.Create(ctx, activity); err != nil {
		log.Warn("failed to record activity",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("activity_type", string(activityType)))
	}
}

// ActivityOption customizes an activity entry before it is stored.
type ActivityOption func(*domain.Activity)

// WithPoints records points earned alongside the activity.
func WithPoints(points int) ActivityOption {
	return func(a *domain.Activity) {
		a.PointsEarned = points
	}
}

// WithRelated links the activity to the entity it describes.
func WithRelated(id uuid.UUID, relatedType string) ActivityOption {
	return func(a *domain.Activity) {
		a.RelatedID = &id
		a.RelatedType = relatedType
	}
}

// WithDetail attaches free-form extra information.
func WithDetail(detail string) ActivityOption {
	return func(a *domain.Activity) {
		a.AdditionalLog = detail
	}
}
