package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	dom "todoweb/internal/domain"
	"todoweb/internal/repo"

	"github.com/redis/go-redis/v9"
)

const (
	keyActive  = "todo:active:"
	keyDeleted = "todo:deleted:"
)

// TodoCache caches per-user list results in Redis. Keys are scoped by owner
// id so one user's lists can never be served to another.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

func activeKey(userID int64, order repo.Order) string {
	return fmt.Sprintf("%s%d:%s", keyActive, userID, order)
}

func deletedKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyDeleted, userID)
}

// GetActive returns the cached active list for the owner and order, or nil
// on a miss.
func (c *TodoCache) GetActive(ctx context.Context, userID int64, order repo.Order) ([]dom.Todo, error) {
	return c.get(ctx, activeKey(userID, order))
}

// SetActive stores the active list for the owner and order.
func (c *TodoCache) SetActive(ctx context.Context, userID int64, order repo.Order, list []dom.Todo) error {
	return c.set(ctx, activeKey(userID, order), list)
}

// GetDeleted returns the cached deleted list for the owner, or nil on a miss.
func (c *TodoCache) GetDeleted(ctx context.Context, userID int64) ([]dom.Todo, error) {
	return c.get(ctx, deletedKey(userID))
}

// SetDeleted stores the deleted list for the owner.
func (c *TodoCache) SetDeleted(ctx context.Context, userID int64, list []dom.Todo) error {
	return c.set(ctx, deletedKey(userID), list)
}

// Invalidate removes all cached lists for the owner (cache invalidation on
// every write).
func (c *TodoCache) Invalidate(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx,
		activeKey(userID, repo.Ascending),
		activeKey(userID, repo.Descending),
		deletedKey(userID),
	).Err()
}

func (c *TodoCache) get(ctx context.Context, key string) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TodoCache) set(ctx context.Context, key string, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
