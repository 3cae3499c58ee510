package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/store"
)

type taskServiceFixture struct {
	svc      *TaskService
	tasks    *fakeTaskStore
	users    *fakeUserStore
	activity *fakeActivityStore
}

func newTaskServiceFixture(users ...*domain.User) *taskServiceFixture {
	tasks := newFakeTaskStore()
	userStore := newFakeUserStore(users...)
	activity := &fakeActivityStore{}

	svc := NewTaskService(new(sql.DB), tasks, userStore, NewActivityLogger(activity, nil), nil)
	svc.runTx = func(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
		return fn(ctx, nil)
	}

	return &taskServiceFixture{svc: svc, tasks: tasks, users: userStore, activity: activity}
}

func newTestMember(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("member@example.com", "Member", "a-long-password")
	require.NoError(t, err)
	return user
}

func TestTaskServiceCreate(t *testing.T) {
	t.Parallel()

	creator := newTestMember(t)
	fix := newTaskServiceFixture(creator)

	task, err := domain.NewTask(creator.ID, "Write release notes", "")
	require.NoError(t, err)
	require.NoError(t, fix.svc.Create(context.Background(), task))

	stored, err := fix.svc.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write release notes", stored.Title)

	created := fix.activity.byType(domain.ActivityTaskCreated)
	require.Len(t, created, 1)
	assert.Equal(t, creator.ID, created[0].UserID)
}

func TestTaskServiceSetStatus(t *testing.T) {
	t.Parallel()

	actor := newTestMember(t)
	fix := newTaskServiceFixture(actor)

	task, err := domain.NewTask(actor.ID, "Investigate flaky test", "")
	require.NoError(t, err)
	require.NoError(t, fix.svc.Create(context.Background(), task))

	moved, err := fix.svc.SetStatus(context.Background(), task.ID, domain.StatusInProgress, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, moved.Status)
	assert.NotNil(t, moved.StartDate)
	assert.Nil(t, moved.CompletionDate)

	_, err = fix.svc.SetStatus(context.Background(), uuid.New(), domain.StatusBlocked, actor.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskServiceCompleteAwardsPoints(t *testing.T) {
	t.Parallel()

	assignee := newTestMember(t)
	fix := newTaskServiceFixture(assignee)

	task, err := domain.NewTask(assignee.ID, "Ship the feature", "")
	require.NoError(t, err)
	task.AssignedTo = &assignee.ID
	task.PointsValue = 250
	require.NoError(t, fix.svc.Create(context.Background(), task))

	completed, err := fix.svc.Complete(context.Background(), task.ID, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	assert.Equal(t, 100, completed.ProgressPercentage)
	assert.NotNil(t, completed.CompletionDate)

	user, err := fix.users.GetByID(context.Background(), assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, user.TotalPoints)
	assert.Equal(t, 1, user.Level)

	require.Len(t, fix.activity.byType(domain.ActivityTaskCompleted), 1)
	earned := fix.activity.byType(domain.ActivityPointsEarned)
	require.Len(t, earned, 1)
	assert.Equal(t, 250, earned[0].PointsEarned)
}

func TestTaskServiceCompleteLevelsUp(t *testing.T) {
	t.Parallel()

	assignee := newTestMember(t)
	assignee.TotalPoints = 950
	fix := newTaskServiceFixture(assignee)

	task, err := domain.NewTask(assignee.ID, "Cross the threshold", "")
	require.NoError(t, err)
	task.AssignedTo = &assignee.ID
	task.PointsValue = 100
	require.NoError(t, fix.svc.Create(context.Background(), task))

	_, err = fix.svc.Complete(context.Background(), task.ID, assignee.ID)
	require.NoError(t, err)

	user, err := fix.users.GetByID(context.Background(), assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1050, user.TotalPoints)
	assert.Equal(t, 2, user.Level)
}

func TestTaskServiceCompleteTwice(t *testing.T) {
	t.Parallel()

	assignee := newTestMember(t)
	fix := newTaskServiceFixture(assignee)

	task, err := domain.NewTask(assignee.ID, "Only once", "")
	require.NoError(t, err)
	task.AssignedTo = &assignee.ID
	require.NoError(t, fix.svc.Create(context.Background(), task))

	_, err = fix.svc.Complete(context.Background(), task.ID, assignee.ID)
	require.NoError(t, err)

	_, err = fix.svc.Complete(context.Background(), task.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The double completion must not award points a second time.
	user, err := fix.users.GetByID(context.Background(), assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, task.PointsValue, user.TotalPoints)
}

func TestTaskServiceCompleteUnassigned(t *testing.T) {
	t.Parallel()

	actor := newTestMember(t)
	fix := newTaskServiceFixture(actor)

	task, err := domain.NewTask(actor.ID, "Nobody's task", "")
	require.NoError(t, err)
	require.NoError(t, fix.svc.Create(context.Background(), task))

	completed, err := fix.svc.Complete(context.Background(), task.ID, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	// No assignee means no points activity, only the completion entry.
	assert.Empty(t, fix.activity.byType(domain.ActivityPointsEarned))
	assert.Len(t, fix.activity.byType(domain.ActivityTaskCompleted), 1)
}

func TestTaskServiceSetStatusCompletedRoutesThroughComplete(t *testing.T) {
	t.Parallel()

	assignee := newTestMember(t)
	fix := newTaskServiceFixture(assignee)

	task, err := domain.NewTask(assignee.ID, "Route me", "")
	require.NoError(t, err)
	task.AssignedTo = &assignee.ID
	task.PointsValue = 40
	require.NoError(t, fix.svc.Create(context.Background(), task))

	_, err = fix.svc.SetStatus(context.Background(), task.ID, domain.StatusCompleted, assignee.ID)
	require.NoError(t, err)

	user, err := fix.users.GetByID(context.Background(), assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, user.TotalPoints)
}

func TestTaskServiceDelete(t *testing.T) {
	t.Parallel()

	actor := newTestMember(t)
	fix := newTaskServiceFixture(actor)

	task, err := domain.NewTask(actor.ID, "Short-lived", "")
	require.NoError(t, err)
	require.NoError(t, fix.svc.Create(context.Background(), task))

	require.NoError(t, fix.svc.Delete(context.Background(), task.ID))

	_, err = fix.svc.Get(context.Background(), task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
