package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// StatusCount pairs a task status with how many tasks hold it.
type StatusCount struct {
	Status domain.Status `json:"status"`
	Count  int           `json:"count"`
}

// PriorityCount pairs a priority with how many tasks hold it.
type PriorityCount struct {
	Priority domain.Priority `json:"priority"`
	Count    int             `json:"count"`
}

// UserCompletion summarizes one user's completed work in a period.
type UserCompletion struct {
	UserID         uuid.UUID `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	CompletedCount int       `json:"completed_count"`
	PointsEarned   int       `json:"points_earned"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	TotalPoints int       `json:"total_points"`
	Level       int       `json:"level"`
}

// StatsStore defines read-only aggregate queries used by analytics. It has no
// WithTx variant; summaries never run inside a write transaction.
type StatsStore interface {
	// CountByStatus returns task counts grouped by status.
	CountByStatus(ctx context.Context) ([]StatusCount, error)

	// CountByPriority returns task counts grouped by priority.
	CountByPriority(ctx context.Context) ([]PriorityCount, error)

	// CompletionsSince returns per-user completion counts and points for
	// tasks completed at or after the given time.
	CompletionsSince(ctx context.Context, since time.Time) ([]UserCompletion, error)

	// Leaderboard returns the top users by total points.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// CountOverdue returns how many open tasks are past their due date.
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}
