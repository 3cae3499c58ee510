package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface
// using a PostgreSQL database as the storage backend. It only runs aggregate
// read queries and therefore has no transactional variant.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// CountByStatus implements store.StatsStore.CountByStatus
// Templates are excluded; only actionable tasks are counted.
func (s *PostgresStatsStore) CountByStatus(ctx context.Context) ([]store.StatusCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE is_template = FALSE
		GROUP BY status
		ORDER BY status
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := []store.StatusCount{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts = append(counts, store.StatusCount{
			Status: domain.Status(status),
			Count:  count,
		})
	}

	return counts, rows.Err()
}

// CountByPriority implements store.StatsStore.CountByPriority
func (s *PostgresStatsStore) CountByPriority(ctx context.Context) ([]store.PriorityCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE is_template = FALSE
		GROUP BY priority
		ORDER BY priority
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to count tasks by priority", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := []store.PriorityCount{}
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts = append(counts, store.PriorityCount{
			Priority: domain.Priority(priority),
			Count:    count,
		})
	}

	return counts, rows.Err()
}

// CompletionsSince implements store.StatsStore.CompletionsSince
func (s *PostgresStatsStore) CompletionsSince(ctx context.Context, since time.Time) ([]store.UserCompletion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT u.id, u.display_name, COUNT(t.id), COALESCE(SUM(t.points_value), 0)
		FROM users u
		JOIN tasks t ON t.assigned_to = u.id
		WHERE t.status = 'completed' AND t.completion_date >= $1
		GROUP BY u.id, u.display_name
		ORDER BY COUNT(t.id) DESC
	`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		log.Error("failed to query completions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	completions := []store.UserCompletion{}
	for rows.Next() {
		var completion store.UserCompletion
		err := rows.Scan(
			&completion.UserID,
			&completion.DisplayName,
			&completion.CompletedCount,
			&completion.PointsEarned,
		)
		if err != nil {
			return nil, err
		}
		completions = append(completions, completion)
	}

	return completions, rows.Err()
}

// Leaderboard implements store.StatsStore.Leaderboard
func (s *PostgresStatsStore) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, display_name, total_points, level
		FROM users
		WHERE is_active = TRUE
		ORDER BY total_points DESC, display_name
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to query leaderboard", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []store.LeaderboardEntry{}
	for rows.Next() {
		var entry store.LeaderboardEntry
		err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.TotalPoints, &entry.Level)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountOverdue implements store.StatsStore.CountOverdue
func (s *PostgresStatsStore) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE is_template = FALSE
			AND status NOT IN ('completed', 'cancelled')
			AND due_date IS NOT NULL
			AND due_date < $1
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		log.Error("failed to count overdue tasks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}
