// Package cache provides an in-process cache whose entries expire after a
// fixed time to live.
//
// Keys may be any JSON-encodable value. Two keys are the same entry when their
// normalized encodings match: object properties are sorted recursively before
// serializing, so struct field order and map iteration order never matter.
// Reads never extend an entry's lifetime, and expiry is driven by a per-entry
// timer rather than a sweeper.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the lifetime of entries when no TTL option is given.
const DefaultTTL = 10 * time.Minute

type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
	timer      *time.Timer
}

// Cache is a concurrency-safe TTL cache.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	ttl     time.Duration
	now     func() time.Time
}

type config struct {
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*config) error

// WithTTL sets the lifetime of entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithClock sets the clock used for insertion times.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// New creates an empty cache.
func New[V any](opts ...Option) (*Cache[V], error) {
	cfg := &config{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     cfg.ttl,
		now:     cfg.now,
	}, nil
}

// TTL returns the lifetime given to new entries.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Set stores value under key, replacing any existing entry and its expiry timer.
func (c *Cache[V]) Set(key any, value V) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	c.set(k, value)
	return nil
}

func (c *Cache[V]) set(k string, value V) {
	e := &entry[V]{value: value, insertedAt: c.now(), ttl: c.ttl}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[k]; ok {
		old.timer.Stop()
	}
	e.timer = time.AfterFunc(e.ttl, func() { c.expire(k, e) })
	c.entries[k] = e
}

// expire removes k only if it still maps to e. A timer that fired while Set
// was replacing the entry must not remove the replacement.
func (c *Cache[V]) expire(k string, e *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[k] == e {
		delete(c.entries, k)
	}
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key any) (V, bool) {
	var zero V
	k, err := NormalizeKey(key)
	if err != nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Age returns how long ago the entry under key was inserted.
func (c *Cache[V]) Age(key any) (time.Duration, bool) {
	k, err := NormalizeKey(key)
	if err != nil {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return 0, false
	}
	return c.now().Sub(e.insertedAt), true
}

// Delete removes the entry under key, if any.
func (c *Cache[V]) Delete(key any) {
	k, err := NormalizeKey(key)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		e.timer.Stop()
		delete(c.entries, k)
	}
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry and stops their timers.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		e.timer.Stop()
		delete(c.entries, k)
	}
}

// NormalizeKey returns the canonical string form of key.
// Strings are used as is.
func NormalizeKey(key any) (string, error) {
	if s, ok := key.(string); ok {
		return s, nil
	}

	raw, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	// Round trip through a generic value so structs become maps,
	// which encoding/json writes with sorted keys at every level.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return string(normalized), nil
}
