/*
	Package queue defines the durable FIFO queues that connect the pipeline
	stages (seed URLs in, indexing jobs out) and the optional query result
	cache used by the ranking service.

	Delivery is at-least-once: a worker that crashes between popping a job
	and completing it loses that job, which the pipeline tolerates because
	indexing is idempotent and stuck documents stay observable through their
	metadata status.
*/
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmpty is returned by a non-blocking Pop when the queue holds no
	// values.
	ErrEmpty = errors.New("queue is empty")

	// ErrCacheMiss is returned by Cache.Get when the key is absent or
	// expired.
	ErrCacheMiss = errors.New("cache miss")
)

// Queue is implemented by durable FIFO job queues.
type Queue interface {
	// Push appends value at the tail of the queue.
	Push(ctx context.Context, value string) error

	// Pop removes and returns the value at the head of the queue. It
	// returns ErrEmpty without blocking when the queue holds no values.
	Pop(ctx context.Context) (string, error)

	// BPop removes and returns the value at the head of the queue, blocking
	// until a value arrives or the context is done.
	BPop(ctx context.Context) (string, error)

	// Len returns the number of queued values.
	Len(ctx context.Context) (int64, error)
}

// Cache is implemented by key-value caches with per-entry TTL eviction.
type Cache interface {
	// Get returns the cached value for key or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
