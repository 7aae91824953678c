package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rivohq/rivo/pkg/logging"
)

// DefaultCacheTTL bounds how stale a cached workspace may be.
const DefaultCacheTTL = 5 * time.Minute

// CachedRepository is a cache-aside Repository over Redis. Cache failures
// are logged and fall through to the underlying repository.
type CachedRepository struct {
	next   Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedRepository wraps next. A nil client disables caching.
func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedRepository{next: next, redis: client, ttl: ttl, logger: logger}
}

func (c *CachedRepository) key(id string) string {
	return fmt.Sprintf("workspace:%s", id)
}

func (c *CachedRepository) Get(ctx context.Context, id string) (*Workspace, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, c.key(id)).Bytes()
		switch {
		case err == nil:
			var ws Workspace
			if jsonErr := json.Unmarshal(data, &ws); jsonErr == nil {
				return &ws, nil
			}
			c.logger.Warn("workspace: dropping undecodable cache entry", "workspace_id", id)
			c.invalidate(ctx, id)
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("workspace: cache read failed", "workspace_id", id, "error", err)
		}
	}

	ws, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ws)
	return ws, nil
}

func (c *CachedRepository) Create(ctx context.Context, req CreateRequest) (*Workspace, error) {
	return c.next.Create(ctx, req)
}

func (c *CachedRepository) Update(ctx context.Context, id string, req UpdateRequest) (*Workspace, error) {
	ws, err := c.next.Update(ctx, id, req)
	c.invalidate(ctx, id)
	return ws, err
}

func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedRepository) store(ctx context.Context, ws *Workspace) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(ws)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(ws.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("workspace: cache write failed", "workspace_id", ws.ID, "error", err)
	}
}

func (c *CachedRepository) invalidate(ctx context.Context, id string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("workspace: cache invalidation failed", "workspace_id", id, "error", err)
	}
}
