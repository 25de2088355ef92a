// Package loader provides per-request batch loaders that coalesce
// repeated lookups of the same key into a single batched store query.
//
// A Loader lives for exactly one inbound API request: the server
// middleware constructs a fresh set per request and puts it on the request
// context, so cached results never leak between requests and no locking
// discipline is needed beyond the loader's own mutex.
package loader

import (
	"context"
	"sync"
)

// BatchFunc fetches values for a set of distinct keys in one store query.
// Keys with no matching record must simply be absent from the returned
// map; they are cached as the zero value and never retried within the
// request.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader is a request-scoped batch cache over a single key/value type.
type Loader[K comparable, V any] struct {
	mu    sync.Mutex
	fetch BatchFunc[K, V]
	cache map[K]V
}

// New creates a Loader backed by fetch.
func New[K comparable, V any](fetch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		fetch: fetch,
		cache: make(map[K]V),
	}
}

// Load returns the value for key, fetching it if this request hasn't seen
// it yet. A key with no matching record yields the zero value and no
// error.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	results, err := l.LoadMany(ctx, []K{key})
	if err != nil {
		var zero V
		return zero, err
	}
	return results[key], nil
}

// LoadMany returns the values for keys, issuing at most one batched fetch
// for the distinct keys not already cached in this request. The returned
// map has an entry for every requested key; missing records map to the
// zero value.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var uncached []K
	seen := make(map[K]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := l.cache[k]; !ok {
			uncached = append(uncached, k)
		}
	}

	if len(uncached) > 0 {
		fetched, err := l.fetch(ctx, uncached)
		if err != nil {
			return nil, err
		}
		// Cache misses as zero values too, so a missing record is not
		// refetched on the next lookup within this request.
		for _, k := range uncached {
			l.cache[k] = fetched[k]
		}
	}

	results := make(map[K]V, len(keys))
	for k := range seen {
		results[k] = l.cache[k]
	}
	return results, nil
}

// Prime seeds the cache with a known value, e.g. an entity that arrived as
// part of another query's result.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = value
}
