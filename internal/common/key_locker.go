package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyLocker serialises read-modify-write sequences on one persisted key.
// Lock blocks until the key is free or ctx is done; the returned func
// releases it and is safe to call more than once.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var ErrLockNotAcquired = errors.New("lock not acquired")

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryKeyLocker is a KeyLocker for a single process. Entries are
// reference counted and dropped once nobody holds or waits on them.
type MemoryKeyLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

var _ KeyLocker = (*MemoryKeyLocker)(nil)

func NewMemoryKeyLocker() *MemoryKeyLocker {
	return &MemoryKeyLocker{entries: make(map[string]*lockEntry)}
}

func (l *MemoryKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
	}
}

func (l *MemoryKeyLocker) release(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len is the number of keys currently held or waited on.
func (l *MemoryKeyLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisKeyLocker shares locks between processes with SET NX PX. The TTL
// bounds how long a crashed holder can block others.
type RedisKeyLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

var _ KeyLocker = (*RedisKeyLocker)(nil)

func NewRedisKeyLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisKeyLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisKeyLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

func (l *RedisKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// Release with a fresh context so a cancelled request
					// still frees the key.
					rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					defer cancel()
					_ = releaseScript.Run(rctx, l.client, []string{redisKey}, token).Err()
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
