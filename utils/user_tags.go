package utils

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sourcegraph/conc/pool"
)

const tagResolverWorkers = 5

// TagResolver turns user IDs into display tags, caching the answers.
type TagResolver struct {
	cache *lru.Cache
	fetch func(ctx context.Context, userID string) (string, error)
}

func NewTagResolver(size int, fetch func(ctx context.Context, userID string) (string, error)) (*TagResolver, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TagResolver{cache: cache, fetch: fetch}, nil
}

// Resolve looks up every ID, fetching cache misses concurrently. IDs that cannot be
// resolved are missing from the result.
func (r *TagResolver) Resolve(ctx context.Context, userIDs []string) map[string]string {
	tags := make(map[string]string, len(userIDs))
	var misses []string
	for _, id := range userIDs {
		if _, seen := tags[id]; seen || id == "" {
			continue
		}
		if tag, ok := r.cache.Get(id); ok {
			tags[id] = tag.(string)
			continue
		}
		tags[id] = ""
		misses = append(misses, id)
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(tagResolverWorkers)
	for _, id := range misses {
		p.Go(func() {
			tag, err := r.fetch(ctx, id)
			if err != nil || tag == "" {
				return
			}
			r.cache.Add(id, tag)
			mu.Lock()
			tags[id] = tag
			mu.Unlock()
		})
	}
	p.Wait()

	for id, tag := range tags {
		if tag == "" {
			delete(tags, id)
		}
	}
	return tags
}

// Forget drops a cached tag, e.g. after the user renamed themselves.
func (r *TagResolver) Forget(userID string) {
	r.cache.Remove(userID)
}
