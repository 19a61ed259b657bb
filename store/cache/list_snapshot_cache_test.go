package cachestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestListSnapshotCache_MissFetchThenHit(t *testing.T) {
	cache, err := NewDefaultListSnapshotCache(time.Minute)
	if err != nil {
		t.Fatalf("new list snapshot cache: %v", err)
	}

	fetches := 0
	fetch := func(context.Context) ([]any, error) {
		fetches++
		return []any{map[string]any{"provider": "openai", "maskedKey": "sk-****"}}, nil
	}

	if _, err := cache.GetOrFetch(context.Background(), "proj_1", fetch); err != nil {
		t.Fatalf("first get: %v", err)
	}
	items, err := cache.GetOrFetch(context.Background(), "proj_1", fetch)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("expected second get to be a cache hit, fetches=%d", fetches)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected cached items: %#v", items)
	}
}

func TestListSnapshotCache_InvalidateForcesRefetch(t *testing.T) {
	cache, err := NewDefaultListSnapshotCache(time.Minute)
	if err != nil {
		t.Fatalf("new list snapshot cache: %v", err)
	}

	fetches := 0
	fetch := func(context.Context) ([]any, error) {
		fetches++
		return []any{fetches}, nil
	}

	if _, err := cache.GetOrFetch(context.Background(), "proj_2", fetch); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := cache.Invalidate(context.Background(), "proj_2"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	items, err := cache.GetOrFetch(context.Background(), "proj_2", fetch)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected invalidated key to refetch, fetches=%d", fetches)
	}
	if items[0] != 2 {
		t.Fatalf("expected refreshed items, got %#v", items)
	}
}

func TestListSnapshotCache_ProjectsAreIsolated(t *testing.T) {
	cache, err := NewDefaultListSnapshotCache(0)
	if err != nil {
		t.Fatalf("new list snapshot cache: %v", err)
	}

	fetches := 0
	fetch := func(context.Context) ([]any, error) {
		fetches++
		return []any{}, nil
	}
	for _, project := range []string{"proj_a", "proj_b", " proj_a "} {
		if _, err := cache.GetOrFetch(context.Background(), project, fetch); err != nil {
			t.Fatalf("get %q: %v", project, err)
		}
	}
	if fetches != 2 {
		t.Fatalf("expected one fetch per trimmed project, got %d", fetches)
	}
}

func TestListSnapshotCache_PropagatesFetchErrors(t *testing.T) {
	cache, err := NewDefaultListSnapshotCache(time.Minute)
	if err != nil {
		t.Fatalf("new list snapshot cache: %v", err)
	}
	sentinel := errors.New("backend down")
	_, err = cache.GetOrFetch(context.Background(), "proj_err", func(context.Context) ([]any, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected fetch error propagation, got %v", err)
	}
}

func TestListSnapshotCacheKey_Contract(t *testing.T) {
	key, err := ListSnapshotCacheKey(" team/alpha one ")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}
	const expected = "llmconn::list::v1::team%2Falpha%20one"
	if key != expected {
		t.Fatalf("unexpected cache key: got %q want %q", key, expected)
	}
	if _, err := ListSnapshotCacheKey("  "); err == nil {
		t.Fatalf("expected blank project to be rejected")
	}
}

func TestNewListSnapshotCache_RequiresService(t *testing.T) {
	if _, err := NewListSnapshotCache(nil); err == nil {
		t.Fatalf("expected missing cache service error")
	}
}
