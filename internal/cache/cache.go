// Package cache holds built search indexes and computed statistics keyed by
// project.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/neilberkman/ccsearch/internal/logging"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 64
)

// Store is a key to value cache with explicit invalidation
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Invalidate(key string)
	Purge()
}

// BuildFunc produces the value for a key on a cache miss
type BuildFunc[V any] func(ctx context.Context) (V, error)

// TTL is an in-memory store whose entries expire a fixed time after they were
// built, regardless of changes to the underlying data. Concurrent misses for
// the same key share one build.
type TTL[V any] struct {
	name    string
	lru     *expirable.LRU[string, V]
	group   singleflight.Group
	logger  *zap.Logger
	metrics *Metrics

	mu   sync.Mutex
	gens map[string]uint64
}

var _ Store[int] = (*TTL[int])(nil)

// NewTTL creates a TTL store holding at most size entries. Non-positive
// arguments select the defaults.
func NewTTL[V any](name string, size int, ttl time.Duration, logger *zap.Logger) *TTL[V] {
	if size <= 0 {
		size = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTL[V]{
		name:    name,
		logger:  logging.OrNop(logger),
		metrics: NewMetrics(),
		gens:    make(map[string]uint64),
	}
	c.lru = expirable.NewLRU[string, V](size, func(key string, _ V) {
		c.metrics.Entries.WithLabelValues(c.name).Dec()
	}, ttl)
	c.metrics.Entries.WithLabelValues(c.name).Set(0)
	return c
}

func (c *TTL[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.metrics.HitsTotal.WithLabelValues(c.name).Inc()
	} else {
		c.metrics.MissesTotal.WithLabelValues(c.name).Inc()
	}
	return v, ok
}

// Put inserts or replaces the value for key and restarts its TTL.
func (c *TTL[V]) Put(key string, value V) {
	if !c.lru.Contains(key) {
		c.metrics.Entries.WithLabelValues(c.name).Inc()
	}
	c.lru.Add(key, value)
}

// Invalidate drops key. A build for key already in flight will not store its
// result.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)
	c.lru.Remove(key)
}

// Purge drops every entry.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	for k := range c.gens {
		c.gens[k]++
	}
	c.mu.Unlock()
	for _, k := range c.lru.Keys() {
		c.group.Forget(k)
	}
	c.lru.Purge()
}

func (c *TTL[V]) Len() int { return c.lru.Len() }

func (c *TTL[V]) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// GetOrBuild returns the cached value for key, building and storing it on a
// miss. Callers waiting on a shared build stop waiting when their own ctx is
// done. The build itself ignores cancellation of the caller that started it,
// so other waiters still get its result.
func (c *TTL[V]) GetOrBuild(ctx context.Context, key string, build BuildFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		gen := c.generation(key)

		start := time.Now()
		c.metrics.BuildsTotal.WithLabelValues(c.name).Inc()
		v, err := build(context.WithoutCancel(ctx))
		c.metrics.BuildDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.BuildErrorsTotal.WithLabelValues(c.name).Inc()
			return v, err
		}

		if c.generation(key) == gen {
			c.Put(key, v)
		} else {
			c.logger.Debug("discarding superseded build", zap.String("cache", c.name), zap.String("key", key))
		}
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
