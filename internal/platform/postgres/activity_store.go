package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// PostgresActivityStore implements the store.ActivityStore interface
// using a PostgreSQL database as the storage backend.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates a new PostgreSQL implementation of the ActivityStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

// Ensure PostgresActivityStore implements store.ActivityStore interface
var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// Create implements store.ActivityStore.Create
func (s *PostgresActivityStore) Create(ctx context.Context, activity *domain.Activity) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := activity.Validate(); err != nil {
		log.Warn("activity validation failed during create",
			slog.String("error", err.Error()),
			slog.String("activity_id", activity.ID.String()))
		return err
	}

	query := `
		INSERT INTO activities (id, user_id, activity_type, description,
			points_earned, related_id, related_type, additional_log, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		activity.ID,
		activity.UserID,
		activity.Type,
		activity.Description,
		activity.PointsEarned,
		activity.RelatedID,
		activity.RelatedType,
		activity.AdditionalLog,
		activity.Timestamp,
	)
	if err != nil {
		log.Error("failed to create activity",
			slog.String("error", err.Error()),
			slog.String("activity_id", activity.ID.String()))
		return MapError(err)
	}

	return nil
}

// FindByUser implements store.ActivityStore.FindByUser
func (s *PostgresActivityStore) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	query := `
		SELECT id, user_id, activity_type, description, points_earned,
			related_id, related_type, additional_log, timestamp
		FROM activities
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	return s.queryActivities(ctx, query, userID, normalizeLimit(limit))
}

// FindRecent implements store.ActivityStore.FindRecent
func (s *PostgresActivityStore) FindRecent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	query := `
		SELECT id, user_id, activity_type, description, points_earned,
			related_id, related_type, additional_log, timestamp
		FROM activities
		ORDER BY timestamp DESC
		LIMIT $1
	`
	return s.queryActivities(ctx, query, normalizeLimit(limit))
}

// WithTx implements store.ActivityStore.WithTx
func (s *PostgresActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return &PostgresActivityStore{
		db:     tx,
		logger: s.logger,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func (s *PostgresActivityStore) queryActivities(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*domain.Activity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query activities", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	activities := []*domain.Activity{}
	for rows.Next() {
		var activity domain.Activity
		var activityType string

		err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activityType,
			&activity.Description,
			&activity.PointsEarned,
			&activity.RelatedID,
			&activity.RelatedType,
			&activity.AdditionalLog,
			&activity.Timestamp,
		)
		if err != nil {
			log.Error("failed to scan activity row",
				slog.String("error", err.Error()))
			return nil, err
		}

		activity.Type = domain.ActivityType(activityType)
		activities = append(activities, &activity)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return activities, nil
}
