package recurrence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/store"
)

// fakeTaskStore keeps templates and generated instances in memory, enforcing
// the same instance identity constraint the real schema has.
type fakeTaskStore struct {
	templates []*domain.Task
	instances map[string]*domain.Task
	failOn    map[uuid.UUID]bool // templates whose instances fail to persist
}

func newFakeTaskStore(templates ...*domain.Task) *fakeTaskStore {
	return &fakeTaskStore{
		templates: templates,
		instances: map[string]*domain.Task{},
		failOn:    map[uuid.UUID]bool{},
	}
}

func instanceKey(templateID uuid.UUID, date time.Time, assignee uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", templateID, date.Format("2006-01-02"), assignee)
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.templates = append(f.templates, task)
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	for _, t := range f.instances {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error { return nil }

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	return nil, nil
}

func (f *fakeTaskStore) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	for _, t := range f.templates {
		if !t.IsTemplate && t.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTaskStore) FindRecurringTemplates(
	ctx context.Context,
	kinds ...domain.RecurrenceType,
) ([]*domain.Task, error) {
	want := map[domain.RecurrenceType]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	matched := []*domain.Task{}
	for _, t := range f.templates {
		if t.IsTemplate && t.IsRecurring && want[t.RecurrenceType] {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (f *fakeTaskStore) CreateInstance(ctx context.Context, instance *domain.Task) (bool, error) {
	if f.failOn[*instance.TemplateTask] {
		return false, fmt.Errorf("storage failure")
	}
	key := instanceKey(*instance.TemplateTask, *instance.InstanceDate, *instance.AssignedTo)
	if _, exists := f.instances[key]; exists {
		return false, nil
	}
	f.instances[key] = instance
	return true, nil
}

func (f *fakeTaskStore) CountInstances(ctx context.Context, templateID uuid.UUID) (int, error) {
	count := 0
	for _, t := range f.instances {
		if *t.TemplateTask == templateID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeSelectionStore returns canned selections keyed by template and cadence.
type fakeSelectionStore struct {
	selections []*domain.RecurringSelection
}

func (f *fakeSelectionStore) Upsert(ctx context.Context, selection *domain.RecurringSelection) error {
	for i, existing := range f.selections {
		if existing.UserID == selection.UserID &&
			existing.TemplateID == selection.TemplateID &&
			existing.Type == selection.Type {
			f.selections[i] = selection
			return nil
		}
	}
	f.selections = append(f.selections, selection)
	return nil
}

func (f *fakeSelectionStore) FindActiveByTemplate(
	ctx context.Context,
	templateID uuid.UUID,
	selType domain.SelectionType,
) ([]*domain.RecurringSelection, error) {
	matched := []*domain.RecurringSelection{}
	for _, s := range f.selections {
		if s.TemplateID == templateID && s.Type == selType && s.IsActive {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (f *fakeSelectionStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RecurringSelection, error) {
	matched := []*domain.RecurringSelection{}
	for _, s := range f.selections {
		if s.UserID == userID {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (f *fakeSelectionStore) Get(
	ctx context.Context,
	userID, templateID uuid.UUID,
	selType domain.SelectionType,
) (*domain.RecurringSelection, error) {
	for _, s := range f.selections {
		if s.UserID == userID && s.TemplateID == templateID && s.Type == selType {
			return s, nil
		}
	}
	return nil, store.ErrSelectionNotFound
}

func (f *fakeSelectionStore) WithTx(tx *sql.Tx) store.SelectionStore { return f }

// fakeUserStore serves the active user population for fan-out.
type fakeUserStore struct {
	users []*domain.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserStore) ListActive(ctx context.Context) ([]*domain.User, error) {
	active := []*domain.User{}
	for _, u := range f.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeActivityStore collects recorded activity entries.
type fakeActivityStore struct {
	entries []*domain.Activity
}

func (f *fakeActivityStore) Create(ctx context.Context, activity *domain.Activity) error {
	f.entries = append(f.entries, activity)
	return nil
}

func (f *fakeActivityStore) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	return nil, nil
}

func (f *fakeActivityStore) FindRecent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	return nil, nil
}

func (f *fakeActivityStore) WithTx(tx *sql.Tx) store.ActivityStore { return f }

func newTestActivityLogger() (*service.ActivityLogger, *fakeActivityStore) {
	activities := &fakeActivityStore{}
	return service.NewActivityLogger(activities, nil), activities
}

func newTestUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.New().String()+"@example.com", "Test User", "a-long-enough-password")
	require.NoError(t, err)
	return user
}

func newDailyTemplate(t *testing.T, createdBy uuid.UUID) *domain.Task {
	t.Helper()
	template, err := domain.NewTemplate(createdBy, "Standup notes", "Write the daily notes",
		domain.RecurrenceDaily, nil)
	require.NoError(t, err)
	template.AllowMemberSelection = true
	return template
}

func newWeeklyTemplate(t *testing.T, createdBy uuid.UUID, days domain.WeekdaySet) *domain.Task {
	t.Helper()
	template, err := domain.NewTemplate(createdBy, "Weekly review", "Review the sprint",
		domain.RecurrenceWeekly, days)
	require.NoError(t, err)
	template.AllowMemberSelection = true
	return template
}

// aWednesday is a fixed generation date used across tests.
var aWednesday = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func TestGenerateDailyForSelections(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)
	bob := newTestUser(t)

	template := newDailyTemplate(t, creator.ID)
	tasks := newFakeTaskStore(template)

	selections := &fakeSelectionStore{}
	for _, u := range []*domain.User{alice, bob} {
		sel, err := domain.NewRecurringSelection(u.ID, template.ID, domain.SelectionDaily, nil)
		require.NoError(t, err)
		require.NoError(t, selections.Upsert(context.Background(), sel))
	}

	gen := NewGenerator(tasks, selections, &fakeUserStore{}, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	require.Len(t, created, 2, "each opted-in user should get one instance")

	for _, instance := range created {
		assert.Equal(t, "Standup notes - 2025-01-15", instance.Title)
		assert.Equal(t, template.ID, *instance.TemplateTask)
		assert.Equal(t, domain.StatusTodo, instance.Status)
		assert.False(t, instance.IsTemplate)
		assert.False(t, instance.IsRecurring)
		require.NotNil(t, instance.DueDate)
		assert.Equal(t, 23, instance.DueDate.Hour())
		assert.Equal(t, 59, instance.DueDate.Minute())
	}
}

func TestGenerateDailyIsIdempotent(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	template := newDailyTemplate(t, creator.ID)
	tasks := newFakeTaskStore(template)

	selections := &fakeSelectionStore{}
	sel, err := domain.NewRecurringSelection(alice.ID, template.ID, domain.SelectionDaily, nil)
	require.NoError(t, err)
	require.NoError(t, selections.Upsert(context.Background(), sel))

	gen := NewGenerator(tasks, selections, &fakeUserStore{}, nil)

	first, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Empty(t, second, "re-running generation for the same date must create nothing")

	count, err := tasks.CountInstances(context.Background(), template.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateWeeklyGatesOnBothDaySets(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	// Template fires Monday and Wednesday; Alice picked only Wednesday.
	template := newWeeklyTemplate(t, creator.ID,
		domain.NewWeekdaySet(domain.Monday, domain.Wednesday))
	tasks := newFakeTaskStore(template)

	selections := &fakeSelectionStore{}
	sel, err := domain.NewRecurringSelection(alice.ID, template.ID, domain.SelectionWeekly,
		domain.NewWeekdaySet(domain.Wednesday))
	require.NoError(t, err)
	require.NoError(t, selections.Upsert(context.Background(), sel))

	gen := NewGenerator(tasks, selections, &fakeUserStore{}, nil)

	// Wednesday: both template and user want the day.
	created, err := gen.GenerateWeekly(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Len(t, created, 1)

	// Monday: template fires but Alice did not pick it.
	monday := time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)
	created, err = gen.GenerateWeekly(context.Background(), monday)
	require.NoError(t, err)
	assert.Empty(t, created, "user day picks must gate weekly generation")

	// Tuesday: the template itself does not fire.
	tuesday := time.Date(2025, 1, 14, 8, 0, 0, 0, time.UTC)
	created, err = gen.GenerateWeekly(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Empty(t, created, "template days must gate weekly generation")
}

func TestGenerateWeeklyEmptyTemplateDaysNeverFires(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	template := newWeeklyTemplate(t, creator.ID, nil)
	tasks := newFakeTaskStore(template)

	selections := &fakeSelectionStore{}
	sel, err := domain.NewRecurringSelection(alice.ID, template.ID, domain.SelectionWeekly,
		domain.NewWeekdaySet(domain.Wednesday))
	require.NoError(t, err)
	require.NoError(t, selections.Upsert(context.Background(), sel))

	gen := NewGenerator(tasks, selections, &fakeUserStore{}, nil)

	for offset := 0; offset < 7; offset++ {
		day := aWednesday.AddDate(0, 0, offset)
		created, err := gen.GenerateWeekly(context.Background(), day)
		require.NoError(t, err)
		assert.Empty(t, created, "template with no recurrence days must never fire")
	}
}

func TestGenerateDailyFansOutToAllActiveUsers(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)
	bob := newTestUser(t)
	carol := newTestUser(t)
	carol.IsActive = false

	template := newDailyTemplate(t, creator.ID)
	template.AllowMemberSelection = false
	template.AssignedToAll = true
	tasks := newFakeTaskStore(template)

	users := &fakeUserStore{users: []*domain.User{creator, alice, bob, carol}}
	gen := NewGenerator(tasks, &fakeSelectionStore{}, users, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Len(t, created, 3, "fan-out must cover every active user and skip inactive ones")
}

func TestGenerateDailyUsesDirectAssignee(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	template := newDailyTemplate(t, creator.ID)
	template.AllowMemberSelection = false
	template.AssignedTo = &alice.ID
	tasks := newFakeTaskStore(template)

	gen := NewGenerator(tasks, &fakeSelectionStore{}, &fakeUserStore{}, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, alice.ID, *created[0].AssignedTo)
}

func TestGenerateSelectionTemplateIgnoresAssignment(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)
	bob := newTestUser(t)

	// Member selection makes opt-ins the only source of assignees. With
	// nobody opted in, assigned_to_all must not fan out.
	template := newDailyTemplate(t, creator.ID)
	template.AssignedToAll = true
	tasks := newFakeTaskStore(template)

	users := &fakeUserStore{users: []*domain.User{creator, alice, bob}}
	selections := &fakeSelectionStore{}
	gen := NewGenerator(tasks, selections, users, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Empty(t, created, "selection-enabled template with no opt-ins creates nothing")

	// Once Alice opts in, she alone receives an instance.
	sel, err := domain.NewRecurringSelection(alice.ID, template.ID, domain.SelectionDaily, nil)
	require.NoError(t, err)
	require.NoError(t, selections.Upsert(context.Background(), sel))

	created, err = gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, alice.ID, *created[0].AssignedTo)
}

func TestGenerateSkipsUnassignedTemplate(t *testing.T) {
	creator := newTestUser(t)

	template := newDailyTemplate(t, creator.ID)
	tasks := newFakeTaskStore(template)

	gen := NewGenerator(tasks, &fakeSelectionStore{}, &fakeUserStore{}, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Empty(t, created, "template with no selections or assignment is a draft")
}

func TestGenerateSkipsInactiveSelections(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	template := newDailyTemplate(t, creator.ID)
	tasks := newFakeTaskStore(template)

	selections := &fakeSelectionStore{}
	sel, err := domain.NewRecurringSelection(alice.ID, template.ID, domain.SelectionDaily, nil)
	require.NoError(t, err)
	sel.Deactivate()
	require.NoError(t, selections.Upsert(context.Background(), sel))

	gen := NewGenerator(tasks, selections, &fakeUserStore{}, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Empty(t, created, "opted-out users must not receive instances")
}

func TestGenerateContinuesPastFailingTemplate(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	broken := newDailyTemplate(t, creator.ID)
	broken.AllowMemberSelection = false
	broken.AssignedTo = &alice.ID
	healthy := newDailyTemplate(t, creator.ID)
	healthy.AllowMemberSelection = false
	healthy.AssignedTo = &alice.ID

	tasks := newFakeTaskStore(broken, healthy)
	tasks.failOn[broken.ID] = true

	gen := NewGenerator(tasks, &fakeSelectionStore{}, &fakeUserStore{}, nil)

	created, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err, "a failing template must not abort the pass")
	require.Len(t, created, 1)
	assert.Equal(t, healthy.ID, *created[0].TemplateTask)
}

func TestGenerateRange(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	daily := newDailyTemplate(t, creator.ID)
	daily.AllowMemberSelection = false
	daily.AssignedTo = &alice.ID
	weekly := newWeeklyTemplate(t, creator.ID, domain.NewWeekdaySet(domain.Friday))
	weekly.AllowMemberSelection = false
	weekly.AssignedTo = &alice.ID

	tasks := newFakeTaskStore(daily, weekly)
	gen := NewGenerator(tasks, &fakeSelectionStore{}, &fakeUserStore{}, nil)

	// Wednesday through Friday: three daily instances plus one weekly on
	// Friday.
	created, err := gen.GenerateRange(context.Background(), aWednesday, 2)
	require.NoError(t, err)
	assert.Len(t, created, 4)

	// The whole range re-run creates nothing new.
	again, err := gen.GenerateRange(context.Background(), aWednesday, 2)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestGenerateRangeRejectsNegativeDays(t *testing.T) {
	gen := NewGenerator(newFakeTaskStore(), &fakeSelectionStore{}, &fakeUserStore{}, nil)

	_, err := gen.GenerateRange(context.Background(), aWednesday, -1)
	assert.Error(t, err)
}

func TestGenerateBothCadenceTemplateFiresOnBothPasses(t *testing.T) {
	creator := newTestUser(t)
	alice := newTestUser(t)

	template, err := domain.NewTemplate(creator.ID, "Check-in", "",
		domain.RecurrenceBoth, domain.NewWeekdaySet(domain.Wednesday))
	require.NoError(t, err)
	template.AssignedTo = &alice.ID

	tasks := newFakeTaskStore(template)
	gen := NewGenerator(tasks, &fakeSelectionStore{}, &fakeUserStore{}, nil)

	daily, err := gen.GenerateDaily(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Len(t, daily, 1)

	// The weekly pass targets the same (template, date, assignee) triple, so
	// idempotence suppresses a second instance.
	weekly, err := gen.GenerateWeekly(context.Background(), aWednesday)
	require.NoError(t, err)
	assert.Empty(t, weekly)
}
