package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	dom "todoweb/internal/domain"
	"todoweb/internal/duedate"
	"todoweb/internal/repo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeActivity collects audit entries in memory.
type fakeActivity struct {
	entries []dom.ActivityEntry
}

func (f *fakeActivity) Insert(_ context.Context, e dom.ActivityEntry) error {
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeActivity) ListByUser(_ context.Context, userID int64) ([]dom.ActivityEntry, error) {
	var out []dom.ActivityEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

// fakeTodoRepo is an in-memory repo.TodoRepo sharing the activity log with
// the fakeActivity, mirroring the transactional create.
type fakeTodoRepo struct {
	todos    map[int64]dom.Todo
	nextID   int64
	activity *fakeActivity
}

func newFakeTodoRepo(a *fakeActivity) *fakeTodoRepo {
	return &fakeTodoRepo{todos: make(map[int64]dom.Todo), activity: a}
}

func (f *fakeTodoRepo) CreateLogged(ctx context.Context, t dom.Todo, entry dom.ActivityEntry) (dom.Todo, error) {
	f.nextID++
	t.ID = f.nextID
	t.Completed = false
	t.Deleted = false
	f.todos[t.ID] = t
	if err := f.activity.Insert(ctx, entry); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

func (f *fakeTodoRepo) GetByID(_ context.Context, id int64) (dom.Todo, error) {
	t, ok := f.todos[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTodoRepo) ListActive(_ context.Context, ownerID int64, order repo.Order) ([]dom.Todo, error) {
	var list []dom.Todo
	for _, t := range f.todos {
		if t.CreatedBy == ownerID && !t.Deleted {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.DueDate.Equal(b.DueDate) {
			if order == repo.Ascending {
				return a.DueDate.Before(b.DueDate)
			}
			return a.DueDate.After(b.DueDate)
		}
		return a.ID < b.ID
	})
	return list, nil
}

func (f *fakeTodoRepo) ListDeleted(_ context.Context, ownerID int64) ([]dom.Todo, error) {
	var list []dom.Todo
	for _, t := range f.todos {
		if t.CreatedBy == ownerID && t.Deleted {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (f *fakeTodoRepo) ToggleCompleted(_ context.Context, id int64) (dom.Todo, error) {
	t, ok := f.todos[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	t.Completed = !t.Completed
	f.todos[id] = t
	return t, nil
}

func (f *fakeTodoRepo) SoftDelete(_ context.Context, id int64) (bool, error) {
	t, ok := f.todos[id]
	if !ok || t.Deleted {
		return false, nil
	}
	t.Deleted = true
	f.todos[id] = t
	return true, nil
}

func (f *fakeTodoRepo) Restore(_ context.Context, id int64) (bool, error) {
	t, ok := f.todos[id]
	if !ok || !t.Deleted {
		return false, nil
	}
	t.Deleted = false
	f.todos[id] = t
	return true, nil
}

// fakeUserRepo serves a fixed user set.
type fakeUserRepo struct {
	users []dom.User
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (dom.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByAPIKey(_ context.Context, apiKey string) (dom.User, error) {
	for _, u := range f.users {
		if u.APIKey == apiKey {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return dom.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, u)
	return u, nil
}

func newTestService() (*TodoService, *fakeTodoRepo, *fakeActivity) {
	activity := &fakeActivity{}
	todos := newFakeTodoRepo(activity)
	users := &fakeUserRepo{users: []dom.User{
		{ID: 1, FirstName: "Ada", Email: "ada@example.com", APIKey: "key-ada"},
		{ID: 2, FirstName: "Bob", Email: "bob@example.com", APIKey: "key-bob"},
	}}
	svc := NewTodoService(todos, users, activity, duedate.New(), nil)
	return svc, todos, activity
}

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAdd_NormalizesDueDateAndLogsTogether(t *testing.T) {
	svc, todos, activity := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow 9am", testNow, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDue := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	if !created.DueDate.Equal(wantDue) {
		t.Fatalf("expected due %v, got %v", wantDue, created.DueDate)
	}
	if created.Completed || created.Deleted {
		t.Fatalf("new todo must start active: %+v", created)
	}
	if len(activity.entries) != 1 || activity.entries[0].Type != dom.ActivityAddTodo {
		t.Fatalf("expected one add-todo entry, got %+v", activity.entries)
	}

	view, err := svc.ListView(ctx, 1, repo.Ascending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(view))
	}
	// 2024-01-02 is a Tuesday.
	if view[0].DueDate != "Tuesday, Jan 02 09:00 AM" {
		t.Fatalf("unexpected due rendering: %q", view[0].DueDate)
	}
	if len(todos.todos) != 1 {
		t.Fatalf("expected 1 stored todo, got %d", len(todos.todos))
	}
}

func TestAdd_UnparseableDueDate_PersistsNothing(t *testing.T) {
	svc, todos, activity := newTestService()

	_, err := svc.Add(context.Background(), 1, "Buy milk", "not a date", testNow, "10.0.0.1")
	if !errors.Is(err, ErrUnparseableDueDate) {
		t.Fatalf("expected ErrUnparseableDueDate, got %v", err)
	}
	if len(todos.todos) != 0 {
		t.Fatalf("expected no stored todos, got %d", len(todos.todos))
	}
	if len(activity.entries) != 0 {
		t.Fatalf("expected no activity entries, got %d", len(activity.entries))
	}
}

func TestToggleCompletion_IsItsOwnInverse(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	once, err := svc.ToggleCompletion(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !once.Completed {
		t.Fatalf("expected completed after first toggle")
	}
	twice, err := svc.ToggleCompletion(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if twice.Completed {
		t.Fatalf("expected original state after second toggle")
	}
}

func TestMutations_WrongOwnerForbiddenAndUnchanged(t *testing.T) {
	svc, todos, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.ToggleCompletion(ctx, 2, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, 2, created.ID, testNow, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Restore(ctx, 2, created.ID, testNow, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	after := todos.todos[created.ID]
	if after.Completed || after.Deleted {
		t.Fatalf("cross-owner mutation changed the record: %+v", after)
	}
}

func TestMutations_UnknownTodoNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ToggleCompletion(ctx, 1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 1, 99, testNow, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_RemovesFromListViewRegardlessOfCompleted(t *testing.T) {
	svc, _, activity := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ToggleCompletion(ctx, 1, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID, testNow, "10.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.ListView(ctx, 1, repo.Descending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 0 {
		t.Fatalf("deleted todo still in active view: %+v", view)
	}
	deleted, err := svc.ListDeletedView(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || !deleted[0].Completed {
		t.Fatalf("expected one completed todo in deleted view, got %+v", deleted)
	}

	last := activity.entries[len(activity.entries)-1]
	if last.Type != dom.ActivityDeleteTodo || last.Detail != "1" {
		t.Fatalf("expected delete-todo entry with detail 1, got %+v", last)
	}
}

func TestDelete_AlreadyDeletedIsSilentNoOp(t *testing.T) {
	svc, _, activity := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID, testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := len(activity.entries)

	if err := svc.Delete(ctx, 1, created.ID, testNow, ""); err != nil {
		t.Fatalf("double delete must succeed, got %v", err)
	}
	if len(activity.entries) != before {
		t.Fatalf("double delete wrote a log entry")
	}
}

func TestRestore_PreservesCompletedAndIgnoresLiveTodos(t *testing.T) {
	svc, todos, activity := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Restoring a live todo: no state change, no log entry.
	before := len(activity.entries)
	if err := svc.Restore(ctx, 1, created.ID, testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activity.entries) != before {
		t.Fatalf("restore of live todo wrote a log entry")
	}

	if _, err := svc.ToggleCompletion(ctx, 1, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID, testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Restore(ctx, 1, created.ID, testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := todos.todos[created.ID]
	if after.Deleted {
		t.Fatalf("expected restored todo")
	}
	if !after.Completed {
		t.Fatalf("restore must keep the pre-delete completed value")
	}
	last := activity.entries[len(activity.entries)-1]
	if last.Type != dom.ActivityRestoreTodo {
		t.Fatalf("expected restore-todo entry, got %+v", last)
	}
}

func TestListView_OrderingByDueDate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// Due 2024-01-02 09:00 and 2024-01-03 09:00.
	if _, err := svc.Add(ctx, 1, "earlier", "tomorrow 9am", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Add(ctx, 1, "later", "tomorrow 9am", testNow.AddDate(0, 0, 1), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asc, err := svc.ListView(ctx, 1, repo.Ascending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asc) != 2 || asc[0].Body != "earlier" {
		t.Fatalf("ascending: expected earlier first, got %+v", asc)
	}
	desc, err := svc.ListView(ctx, 1, repo.Descending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(desc) != 2 || desc[0].Body != "later" {
		t.Fatalf("descending: expected later first, got %+v", desc)
	}
}

func TestListView_TiesKeepInsertionOrderBothDirections(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, 1, "first", "tomorrow 9am", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Add(ctx, 1, "second", "tomorrow 9am", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, order := range []repo.Order{repo.Ascending, repo.Descending} {
		view, err := svc.ListView(ctx, 1, order)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(view) != 2 || view[0].Body != "first" || view[1].Body != "second" {
			t.Fatalf("%s: ties must keep insertion order, got %+v", order, view)
		}
	}
}

func TestListView_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, 1, "ada's", "tomorrow", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Add(ctx, 2, "bob's", "tomorrow", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.ListView(ctx, 1, repo.Ascending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 1 || view[0].Body != "ada's" {
		t.Fatalf("expected only the owner's todos, got %+v", view)
	}
}

func TestListByAPIKey(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow 9am", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hidden, err := svc.Add(ctx, 1, "gone", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, 1, hidden.ID, testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := svc.ListByAPIKey(ctx, "key-ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 active todo, got %d", len(out))
	}
	got, ok := out[created.ID]
	if !ok {
		t.Fatalf("expected todo %d in response, got %+v", created.ID, out)
	}
	if got.Text != "Buy milk" || got.Completed {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.DueDate != "2024-01-02 09:00:00" {
		t.Fatalf("unexpected due date string: %q", got.DueDate)
	}

	if _, err := svc.ListByAPIKey(ctx, "bogus"); !errors.Is(err, ErrUnknownAPIKey) {
		t.Fatalf("expected ErrUnknownAPIKey, got %v", err)
	}
}

func TestActivity_NewestFirstAndScoped(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Add(ctx, 1, "Buy milk", "tomorrow", testNow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID, testNow.Add(time.Hour), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Add(ctx, 2, "bob's", "tomorrow", testNow, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := svc.Activity(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for user 1, got %d", len(entries))
	}
	if entries[0].Type != dom.ActivityDeleteTodo || entries[1].Type != dom.ActivityAddTodo {
		t.Fatalf("expected newest first, got %+v", entries)
	}
}
