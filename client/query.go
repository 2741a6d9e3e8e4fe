package client

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache caches raw response bodies by key. Concurrent queries for the
// same key share one fetch.
type QueryCache struct {
	group singleflight.Group

	mu      sync.Mutex
	entries map[string][]byte
	epoch   uint64
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string][]byte)}
}

// Query returns the cached body for key, or calls fetch and caches its
// result. A fetch that started before an Invalidate is returned to its
// callers but not cached.
func (q *QueryCache) Query(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	q.mu.Lock()
	if body, ok := q.entries[key]; ok {
		q.mu.Unlock()
		return body, nil
	}
	epoch := q.epoch
	q.mu.Unlock()

	v, err, _ := q.group.Do(key, func() (any, error) {
		body, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.epoch == epoch {
			q.entries[key] = body
		}
		q.mu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops every entry whose key starts with prefix.
func (q *QueryCache) Invalidate(prefix string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	for key := range q.entries {
		if strings.HasPrefix(key, prefix) {
			delete(q.entries, key)
		}
	}
}

// Len returns the number of cached entries.
func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
