// Package redisqueue implements the job queues and the query cache on top
// of Redis lists and keys.
package redisqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ferretsearch/ferret/queue"
)

// Static and compile-time checks to ensure the implementations satisfy
// their package interfaces.
var (
	_ queue.Queue = (*Queue)(nil)
	_ queue.Cache = (*Cache)(nil)
)

// NewClient connects to the Redis instance at addr and verifies the
// connection with a ping.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}

// Queue implements queue.Queue as a Redis list with RPUSH/LPOP/BLPOP
// semantics.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue returns a queue stored under the given Redis list key.
func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Push appends value at the tail of the list.
func (q *Queue) Push(ctx context.Context, value string) error {
	if err := q.client.RPush(ctx, q.key, value).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.key, err)
	}

	return nil
}

// Pop removes the head of the list without blocking.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	value, err := q.client.LPop(ctx, q.key).Result()
	if err == redis.Nil {
		return "", queue.ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("lpop %s: %w", q.key, err)
	}

	return value, nil
}

// BPop removes the head of the list, blocking until a value arrives or the
// context is done. The blocking pop is issued in bounded slices so context
// cancellation is observed promptly.
func (q *Queue) BPop(ctx context.Context) (string, error) {
	for {
		reply, err := q.client.BLPop(ctx, 5*time.Second, q.key).Result()
		switch {
		case err == redis.Nil:
			// Timed out on an empty list; go around unless cancelled.
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			return "", fmt.Errorf("blpop %s: %w", q.key, err)
		default:
			// BLPOP replies with [key, value].
			return reply[1], nil
		}
	}
}

// Len returns the length of the list.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", q.key, err)
	}

	return n, nil
}

// Cache implements queue.Cache on plain Redis keys with TTL.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache returns a cache whose keys are namespaced with prefix.
func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get returns the cached value for key or queue.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, queue.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	return value, nil
}

// Set stores value under key for the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}
