package departments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/motora-erp/motora-erp/internal/authz"
)

const cacheVersionKey = "authz:perms:version"

// PermissionCache caches permission rows per department with a freshness
// window. A global version key invalidates every entry after grant
// mutations; singleflight collapses concurrent fills for the same
// department. A nil cache degrades to pass-through.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewPermissionCache instantiates the cache helper.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

// Fetch loads a cached permission snapshot or populates it using the loader.
func (c *PermissionCache) Fetch(ctx context.Context, departmentID int64, loader func(context.Context) ([]authz.DepartmentPermission, error)) ([]authz.DepartmentPermission, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key, err := c.buildKey(ctx, departmentID)
	if err != nil {
		// Cache unavailability must not mask or fabricate a decision; fall
		// back to the store.
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var perms []authz.DepartmentPermission
		if err := json.Unmarshal(payload, &perms); err == nil {
			return perms, nil
		}
	}

	result := c.group.DoChan(key, func() (any, error) {
		perms, err := loader(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(perms); err == nil {
			_ = c.client.Set(context.WithoutCancel(ctx), key, raw, c.ttl).Err()
		}
		return perms, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]authz.DepartmentPermission), nil
	}
}

// Bump invalidates all cached permission snapshots.
func (c *PermissionCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *PermissionCache) buildKey(ctx context.Context, departmentID int64) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("authz:perms:%s:%d", strconv.FormatInt(departmentID, 10), ver), nil
}
