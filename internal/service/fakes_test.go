package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/store"
)

// In-memory store implementations shared by the service tests. WithTx on
// every fake returns the fake itself; the tests stub the transaction runner
// so no real *sql.Tx is ever produced.

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// failCreate, when set, is returned by Create for tasks whose title
	// contains the key.
	failCreate map[string]error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[uuid.UUID]*domain.Task{}}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, err := range f.failCreate {
		if strings.Contains(task.Title, key) {
			return err
		}
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.IsTemplate != filter.Templates {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeTaskStore) ExistsByTitle(_ context.Context, title string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if !task.IsTemplate && task.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTaskStore) FindRecurringTemplates(_ context.Context, kinds ...domain.RecurrenceType) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if !task.IsTemplate {
			continue
		}
		for _, kind := range kinds {
			if task.RecurrenceType == kind {
				copied := *task
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CreateInstance(_ context.Context, instance *domain.Task) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *instance
	f.tasks[instance.ID] = &copied
	return true, nil
}

func (f *fakeTaskStore) CountInstances(_ context.Context, templateID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, task := range f.tasks {
		if task.TemplateTask != nil && *task.TemplateTask == templateID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore { return f }

var _ store.TaskStore = (*fakeTaskStore)(nil)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	f := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		copied := *u
		f.users[u.ID] = &copied
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) ListActive(_ context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, user := range f.users {
		if user.IsActive {
			copied := *user
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserStore) WithTx(*sql.Tx) store.UserStore { return f }

var _ store.UserStore = (*fakeUserStore)(nil)

type fakeActivityStore struct {
	mu      sync.Mutex
	entries []*domain.Activity
	failing bool
}

func (f *fakeActivityStore) Create(_ context.Context, activity *domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return store.ErrInvalidEntity
	}
	copied := *activity
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeActivityStore) FindByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Activity
	for _, entry := range f.entries {
		if entry.UserID == userID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivityStore) FindRecent(_ context.Context, limit int) ([]*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Activity, 0, len(f.entries))
	for _, entry := range f.entries {
		copied := *entry
		out = append(out, &copied)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivityStore) byType(activityType domain.ActivityType) []*domain.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Activity
	for _, entry := range f.entries {
		if entry.Type == activityType {
			out = append(out, entry)
		}
	}
	return out
}

func (f *fakeActivityStore) WithTx(*sql.Tx) store.ActivityStore { return f }

var _ store.ActivityStore = (*fakeActivityStore)(nil)

type fakeCategoryStore struct {
	mu     sync.Mutex
	byName map[string]*domain.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{byName: map[string]*domain.Category{}}
}

func (f *fakeCategoryStore) Create(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[category.Name]; ok {
		return store.ErrDuplicate
	}
	copied := *category
	f.byName[category.Name] = &copied
	return nil
}

func (f *fakeCategoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, category := range f.byName {
		if category.ID == id {
			copied := *category
			return &copied, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (f *fakeCategoryStore) GetOrCreateByName(_ context.Context, name string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if category, ok := f.byName[name]; ok {
		copied := *category
		return &copied, nil
	}
	category, err := domain.NewCategory(name, "")
	if err != nil {
		return nil, err
	}
	f.byName[name] = category
	copied := *category
	return &copied, nil
}

func (f *fakeCategoryStore) List(_ context.Context) ([]*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Category
	for _, category := range f.byName {
		copied := *category
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryStore) WithTx(*sql.Tx) store.CategoryStore { return f }

var _ store.CategoryStore = (*fakeCategoryStore)(nil)

type fakeTagStore struct {
	mu     sync.Mutex
	byName map[string]*domain.Tag
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{byName: map[string]*domain.Tag{}}
}

func (f *fakeTagStore) GetOrCreateByName(_ context.Context, name string) (*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tag, ok := f.byName[name]; ok {
		copied := *tag
		return &copied, nil
	}
	tag, err := domain.NewTag(name)
	if err != nil {
		return nil, err
	}
	f.byName[name] = tag
	copied := *tag
	return &copied, nil
}

func (f *fakeTagStore) List(_ context.Context) ([]*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Tag
	for _, tag := range f.byName {
		copied := *tag
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTagStore) WithTx(*sql.Tx) store.TagStore { return f }

var _ store.TagStore = (*fakeTagStore)(nil)

type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*domain.ImportBatch
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{batches: map[uuid.UUID]*domain.ImportBatch{}}
}

func (f *fakeBatchStore) Create(_ context.Context, batch *domain.ImportBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeBatchStore) Update(_ context.Context, batch *domain.ImportBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.batches[batch.ID]; !ok {
		return store.ErrImportBatchNotFound
	}
	copied := *batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeBatchStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ImportBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[id]
	if !ok {
		return nil, store.ErrImportBatchNotFound
	}
	copied := *batch
	return &copied, nil
}

func (f *fakeBatchStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.ImportBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ImportBatch
	for _, batch := range f.batches {
		if batch.UploadedBy == userID {
			copied := *batch
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBatchStore) WithTx(*sql.Tx) store.ImportBatchStore { return f }

var _ store.ImportBatchStore = (*fakeBatchStore)(nil)
