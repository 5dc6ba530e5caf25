// Package querycache is a read-through cache of query results keyed like
// the collections they hold ("training-videos", "training-progress:<loc>").
package querycache

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultStale = 30 * time.Second
	DefaultGC    = 5 * time.Minute
)

type Cache struct {
	c *cache.Cache
}

func New(stale, gc time.Duration) *Cache {
	return &Cache{c: cache.New(stale, gc)}
}

// Get returns the cached value for key, or calls load and caches its result.
// Failed loads are not cached.
func Get[T any](qc *Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := qc.c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	qc.c.SetDefault(key, v)
	return v, nil
}

// Invalidate drops the given keys.
func (qc *Cache) Invalidate(keys ...string) {
	for _, k := range keys {
		qc.c.Delete(k)
	}
}

// InvalidatePrefix drops every key starting with prefix.
func (qc *Cache) InvalidatePrefix(prefix string) {
	for k := range qc.c.Items() {
		if strings.HasPrefix(k, prefix) {
			qc.c.Delete(k)
		}
	}
}

// Flush drops everything.
func (qc *Cache) Flush() {
	qc.c.Flush()
}
