package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kennahq/kenna-pos-backend/pkg/redis"
)

// Locker serializes checkout attempts per register. The TTL is a safety net
// so a crashed attempt cannot wedge the register forever.
type Locker interface {
	Acquire(ctx context.Context, registerID string) (bool, error)
	Release(ctx context.Context, registerID string) error
	Held(ctx context.Context, registerID string) (bool, error)
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker builds a register lock backed by Redis SETNX.
func NewRedisLocker(client *redis.Client, ttl time.Duration) (Locker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisLocker{client: client, ttl: ttl}, nil
}

func (l *redisLocker) Acquire(ctx context.Context, registerID string) (bool, error) {
	return l.client.SetNX(ctx, l.client.CheckoutLockKey(registerID), "1", l.ttl)
}

func (l *redisLocker) Release(ctx context.Context, registerID string) error {
	return l.client.Del(ctx, l.client.CheckoutLockKey(registerID))
}

func (l *redisLocker) Held(ctx context.Context, registerID string) (bool, error) {
	return l.client.Exists(ctx, l.client.CheckoutLockKey(registerID))
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker keeps locks in process memory for tests and single-node
// dev setups without Redis.
func NewMemoryLocker() Locker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) Acquire(_ context.Context, registerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[registerID] {
		return false, nil
	}
	l.held[registerID] = true
	return true, nil
}

func (l *memoryLocker) Release(_ context.Context, registerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, registerID)
	return nil
}

func (l *memoryLocker) Held(_ context.Context, registerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[registerID], nil
}
