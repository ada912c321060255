package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	dom "todoweb/internal/domain"
	"todoweb/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"todoweb/internal/cache"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("todo belongs to another user")
	ErrUnparseableDueDate = errors.New("unrecognized due date")
	ErrUnknownAPIKey      = errors.New("unknown api key")
)

// presentedLayout renders timestamps for display: full weekday, abbreviated
// month, zero-padded day, zero-padded 12-hour time with AM/PM.
const presentedLayout = "Monday, Jan 02 03:04 PM"

// apiDueDateLayout is the listing API's due-date string form.
const apiDueDateLayout = "2006-01-02 15:04:05"

// PresentedTodo is a read-only projection of a todo with display-formatted
// timestamps. Derived on every read, never persisted.
type PresentedTodo struct {
	ID        int64
	Body      string
	Completed bool
	Deleted   bool
	DueDate   string
	CreatedAt string
}

// APITodo is one entry of the API-key listing.
type APITodo struct {
	Text      string `json:"text"`
	DueDate   string `json:"due date"`
	Completed bool   `json:"completed"`
}

// Normalizer resolves free-text due dates against an explicit reference time.
type Normalizer interface {
	Normalize(text string, now time.Time) (time.Time, error)
}

// TodoService owns the task lifecycle: it enforces ownership, applies state
// transitions through the repo, records activity, and shapes results for
// presentation. The repo is mechanism; this is policy.
type TodoService struct {
	repo       repo.TodoRepo
	users      repo.UserRepo
	activity   repo.ActivityRepo
	normalizer Normalizer
	cache      *cache.TodoCache
	sf         singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, users repo.UserRepo, activity repo.ActivityRepo, n Normalizer, c *cache.TodoCache) *TodoService {
	return &TodoService{repo: r, users: users, activity: activity, normalizer: n, cache: c}
}

// Add parses the due-date text relative to now and creates the todo together
// with its add-todo activity entry. On an unparseable date nothing is
// persisted.
func (s *TodoService) Add(ctx context.Context, ownerID int64, body, dueText string, now time.Time, ipAddr string) (dom.Todo, error) {
	due, err := s.normalizer.Normalize(dueText, now)
	if err != nil {
		return dom.Todo{}, fmt.Errorf("%w: %v", ErrUnparseableDueDate, err)
	}
	t, err := s.repo.CreateLogged(ctx,
		dom.Todo{
			CreatedBy: ownerID,
			Body:      body,
			DueDate:   due,
			CreatedAt: now.Truncate(time.Second),
		},
		dom.ActivityEntry{
			UserID:    ownerID,
			Type:      dom.ActivityAddTodo,
			CreatedAt: now,
			IPAddress: ipAddr,
		})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

// ToggleCompletion flips the completed flag of the owner's todo. Applying it
// twice returns the todo to its original state.
func (s *TodoService) ToggleCompletion(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	if _, err := s.ownedTodo(ctx, ownerID, id); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.ToggleCompleted(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

// Delete soft-deletes the owner's todo and records a delete-todo entry.
// Deleting an already-deleted todo is a success no-op and logs nothing.
func (s *TodoService) Delete(ctx context.Context, ownerID, id int64, now time.Time, ipAddr string) error {
	t, err := s.ownedTodo(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if t.Deleted {
		return nil
	}
	changed, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		// Lost a race with a concurrent delete; still already-satisfied.
		return nil
	}
	if err := s.recordTodoActivity(ctx, ownerID, dom.ActivityDeleteTodo, id, now, ipAddr); err != nil {
		return err
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

// Restore clears the deleted flag, regardless of completed, and records a
// restore-todo entry. Restoring a live todo is a success no-op, no entry.
func (s *TodoService) Restore(ctx context.Context, ownerID, id int64, now time.Time, ipAddr string) error {
	t, err := s.ownedTodo(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !t.Deleted {
		return nil
	}
	changed, err := s.repo.Restore(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.recordTodoActivity(ctx, ownerID, dom.ActivityRestoreTodo, id, now, ipAddr); err != nil {
		return err
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

// ListView returns the owner's active todos ordered by due date with
// display-formatted timestamps.
func (s *TodoService) ListView(ctx context.Context, ownerID int64, order repo.Order) ([]PresentedTodo, error) {
	list, err := s.listActive(ctx, ownerID, order)
	if err != nil {
		return nil, err
	}
	return present(list), nil
}

// ListDeletedView returns the owner's soft-deleted todos.
func (s *TodoService) ListDeletedView(ctx context.Context, ownerID int64) ([]PresentedTodo, error) {
	list, err := s.listDeleted(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return present(list), nil
}

// ListByAPIKey resolves the key's owner and returns their active todos, due
// date ascending, keyed by todo id.
func (s *TodoService) ListByAPIKey(ctx context.Context, apiKey string) (map[int64]APITodo, error) {
	u, err := s.users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownAPIKey
		}
		return nil, err
	}
	list, err := s.listActive(ctx, u.ID, repo.Ascending)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]APITodo, len(list))
	for _, t := range list {
		out[t.ID] = APITodo{
			Text:      t.Body,
			DueDate:   t.DueDate.Format(apiDueDateLayout),
			Completed: t.Completed,
		}
	}
	return out, nil
}

// Activity returns the user's audit trail, newest first.
func (s *TodoService) Activity(ctx context.Context, userID int64) ([]dom.ActivityEntry, error) {
	return s.activity.ListByUser(ctx, userID)
}

// ownedTodo loads the todo and enforces the ownership invariant: every read
// or mutation must come from the todo's owner.
func (s *TodoService) ownedTodo(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	if t.CreatedBy != ownerID {
		return dom.Todo{}, ErrForbidden
	}
	return t, nil
}

func (s *TodoService) recordTodoActivity(ctx context.Context, userID int64, typ dom.ActivityType, todoID int64, now time.Time, ipAddr string) error {
	return s.activity.Insert(ctx, dom.ActivityEntry{
		UserID:    userID,
		Type:      typ,
		CreatedAt: now,
		IPAddress: ipAddr,
		Detail:    strconv.FormatInt(todoID, 10),
	})
}

func (s *TodoService) listActive(ctx context.Context, ownerID int64, order repo.Order) ([]dom.Todo, error) {
	if s.cache != nil {
		key := "active:" + strconv.FormatInt(ownerID, 10) + ":" + string(order)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetActive(ctx, ownerID, order); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.ListActive(ctx, ownerID, order)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetActive(ctx, ownerID, order, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Todo), nil
	}
	return s.repo.ListActive(ctx, ownerID, order)
}

func (s *TodoService) listDeleted(ctx context.Context, ownerID int64) ([]dom.Todo, error) {
	if s.cache != nil {
		key := "deleted:" + strconv.FormatInt(ownerID, 10)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetDeleted(ctx, ownerID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.ListDeleted(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetDeleted(ctx, ownerID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Todo), nil
	}
	return s.repo.ListDeleted(ctx, ownerID)
}

func (s *TodoService) invalidateCache(ctx context.Context, ownerID int64) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, ownerID)
	}
}

// Present derives the display projection of a todo.
func Present(t dom.Todo) PresentedTodo {
	return PresentedTodo{
		ID:        t.ID,
		Body:      t.Body,
		Completed: t.Completed,
		Deleted:   t.Deleted,
		DueDate:   t.DueDate.Format(presentedLayout),
		CreatedAt: t.CreatedAt.Format(presentedLayout),
	}
}

func present(list []dom.Todo) []PresentedTodo {
	out := make([]PresentedTodo, len(list))
	for i, t := range list {
		out[i] = Present(t)
	}
	return out
}
