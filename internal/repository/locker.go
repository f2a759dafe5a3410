package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes ledger writers.  Lock blocks until the caller holds
// the lock or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// MutexLocker serializes writers within one process.
type MutexLocker struct {
	mu sync.Mutex
}

// Lock implements Locker.  It honours ctx only before the mutex is
// acquired, by polling; sync.Mutex has no cancellable acquire.
func (m *MutexLocker) Lock(ctx context.Context) (func(), error) {
	for !m.mu.TryLock() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		time.Sleep(time.Millisecond)
	}
	return m.mu.Unlock, nil
}

// releaseScript deletes the lease only when it is still ours, so a writer
// whose lease expired cannot release the next holder's lock.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker serializes writers across service replicas with a Redis
// lease (SET NX PX).  TTL bounds how long a crashed writer can block the
// ledger; it must exceed the longest ledger transaction.
type RedisLocker struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker returns a RedisLocker on key.  Zero durations fall back
// to a 10s lease polled every 20ms.
func NewRedisLocker(rdb *redis.Client, key string, ttl, retry time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 20 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl, retry: retry}
}

// Lock implements Locker.
func (r *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", r.key, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return func() {
		// Released with a fresh context: the caller's may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.rdb, []string{r.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("ledger-lock: release %s failed: %v", r.key, err)
		}
	}, nil
}
