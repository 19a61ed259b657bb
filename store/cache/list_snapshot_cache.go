package cachestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-llm-connections/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const listSnapshotCacheKeyPrefix = "llmconn::list::v1"

const DefaultListSnapshotTTL = 30 * time.Second

// ListSnapshotCache keeps the connection list per project so masked key
// lookups do not hit the backend on every call.
type ListSnapshotCache struct {
	cache repositorycache.CacheService
}

func NewListSnapshotCache(cacheService repositorycache.CacheService) (*ListSnapshotCache, error) {
	if cacheService == nil {
		return nil, fmt.Errorf("cachestore: list snapshot cache service is required")
	}
	return &ListSnapshotCache{cache: cacheService}, nil
}

// NewDefaultListSnapshotCache builds the cache over an in-process
// go-repository-cache service with the given TTL. A non-positive ttl uses
// DefaultListSnapshotTTL.
func NewDefaultListSnapshotCache(ttl time.Duration) (*ListSnapshotCache, error) {
	if ttl <= 0 {
		ttl = DefaultListSnapshotTTL
	}
	config := repositorycache.DefaultConfig()
	config.TTL = ttl
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("cachestore: build cache service: %w", err)
	}
	return NewListSnapshotCache(service)
}

// ListSnapshotCacheKey returns llmconn::list::v1::<project_id> with the
// project id trimmed and URL-path escaped.
func ListSnapshotCacheKey(projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", fmt.Errorf("cachestore: project id is required")
	}
	return listSnapshotCacheKeyPrefix + "::" + url.PathEscape(projectID), nil
}

func (c *ListSnapshotCache) GetOrFetch(
	ctx context.Context,
	projectID string,
	fetch func(ctx context.Context) ([]any, error),
) ([]any, error) {
	if c == nil || c.cache == nil {
		return nil, fmt.Errorf("cachestore: list snapshot cache is not configured")
	}
	if fetch == nil {
		return nil, fmt.Errorf("cachestore: fetch function is required")
	}
	key, err := ListSnapshotCacheKey(projectID)
	if err != nil {
		return nil, err
	}
	items, err := repositorycache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]any, error) {
		fetched, fetchErr := fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneItems(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneItems(items), nil
}

func (c *ListSnapshotCache) Invalidate(ctx context.Context, projectID string) error {
	if c == nil || c.cache == nil {
		return fmt.Errorf("cachestore: list snapshot cache is not configured")
	}
	key, err := ListSnapshotCacheKey(projectID)
	if err != nil {
		return err
	}
	return c.cache.Delete(ctx, key)
}

func cloneItems(items []any) []any {
	if items == nil {
		return []any{}
	}
	out := make([]any, len(items))
	copy(out, items)
	return out
}

var _ core.ListSnapshotCache = (*ListSnapshotCache)(nil)
