// Package memory provides in-memory queue and cache implementations for
// tests and local single-process runs. The queue additionally supports
// failure injection so tests can exercise the crawler's enqueue-retry path.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ferretsearch/ferret/queue"
)

// Static and compile-time checks to ensure the implementations satisfy
// their package interfaces.
var (
	_ queue.Queue = (*Queue)(nil)
	_ queue.Cache = (*Cache)(nil)
)

// Queue implements queue.Queue over a mutex-guarded slice.
type Queue struct {
	mu      sync.Mutex
	values  []string
	arrived chan struct{}

	// pushErr, when set, is returned by every Push call.
	pushErr error
}

// NewQueue returns an empty in-memory queue.
func NewQueue() *Queue {
	return &Queue{arrived: make(chan struct{}, 1)}
}

// FailPushes makes every subsequent Push return err. Pass nil to restore
// normal operation.
func (q *Queue) FailPushes(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pushErr = err
}

// Push appends value at the tail of the queue.
func (q *Queue) Push(_ context.Context, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pushErr != nil {
		return q.pushErr
	}

	q.values = append(q.values, value)

	// Wake one blocked popper; the buffered channel coalesces signals.
	select {
	case q.arrived <- struct{}{}:
	default:
	}

	return nil
}

// Pop removes the head of the queue without blocking.
func (q *Queue) Pop(_ context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.values) == 0 {
		return "", queue.ErrEmpty
	}

	return q.popHead(), nil
}

// BPop removes the head of the queue, blocking until a value arrives or the
// context is done.
func (q *Queue) BPop(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.values) > 0 {
			value := q.popHead()
			q.mu.Unlock()

			return value, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.arrived:
		}
	}
}

// Len returns the number of queued values.
func (q *Queue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return int64(len(q.values)), nil
}

func (q *Queue) popHead() string {
	value := q.values[0]
	q.values = q.values[1:]

	return value
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache implements queue.Cache over a mutex-guarded map with lazy TTL
// eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache returns an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for key or queue.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, queue.ErrCacheMiss
	}

	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)

		return nil, queue.ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores value under key for the given TTL.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}

	return nil
}
