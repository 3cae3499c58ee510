package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
)

func TestActivityLoggerRecord(t *testing.T) {
	t.Parallel()

	activities := &fakeActivityStore{}
	logger := NewActivityLogger(activities, nil)

	userID := uuid.New()
	taskID := uuid.New()

	logger.Record(context.Background(), userID, domain.ActivityPointsEarned,
		"Earned 30 points",
		WithPoints(30),
		WithRelated(taskID, "task"),
		WithDetail("bonus round"))

	entries, err := activities.FindByUser(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, domain.ActivityPointsEarned, entry.Type)
	assert.Equal(t, 30, entry.PointsEarned)
	require.NotNil(t, entry.RelatedID)
	assert.Equal(t, taskID, *entry.RelatedID)
	assert.Equal(t, "task", entry.RelatedType)
	assert.Equal(t, "bonus round", entry.AdditionalLog)
}

func TestActivityLoggerSwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	activities := &fakeActivityStore{failing: true}
	logger := NewActivityLogger(activities, nil)

	// Must not panic or surface the failure.
	logger.Record(context.Background(), uuid.New(), domain.ActivityTaskCreated, "Created something")

	entries, err := activities.FindRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActivityLoggerInvalidEntry(t *testing.T) {
	t.Parallel()

	activities := &fakeActivityStore{}
	logger := NewActivityLogger(activities, nil)

	// A nil user ID never reaches the store.
	logger.Record(context.Background(), uuid.Nil, domain.ActivityTaskCreated, "Orphan entry")

	entries, err := activities.FindRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
