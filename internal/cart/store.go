package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kennahq/kenna-pos-backend/pkg/redis"
)

// Store persists per-register cart state between requests.
type Store interface {
	Get(ctx context.Context, registerID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Clear(ctx context.Context, registerID string) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore backs cart state with Redis, expiring abandoned carts after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Get(ctx context.Context, registerID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(registerID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Cart{RegisterID: registerID}, nil
		}
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}
	cart.RegisterID = registerID
	return &cart, nil
}

func (s *redisStore) Save(ctx context.Context, cart *Cart) error {
	if cart == nil || cart.RegisterID == "" {
		return fmt.Errorf("cart with register id required")
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	return s.client.Set(ctx, s.client.CartKey(cart.RegisterID), payload, s.ttl)
}

func (s *redisStore) Clear(ctx context.Context, registerID string) error {
	return s.client.Del(ctx, s.client.CartKey(registerID))
}

type memoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewMemoryStore keeps carts in process memory. Used by tests and single-node
// dev setups without Redis.
func NewMemoryStore() Store {
	return &memoryStore{carts: map[string]*Cart{}}
}

func (s *memoryStore) Get(_ context.Context, registerID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.carts[registerID]
	if !ok {
		return &Cart{RegisterID: registerID}, nil
	}
	clone := *stored
	clone.Lines = append([]Line(nil), stored.Lines...)
	return &clone, nil
}

func (s *memoryStore) Save(_ context.Context, cart *Cart) error {
	if cart == nil || cart.RegisterID == "" {
		return fmt.Errorf("cart with register id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cart
	clone.Lines = append([]Line(nil), cart.Lines...)
	s.carts[cart.RegisterID] = &clone
	return nil
}

func (s *memoryStore) Clear(_ context.Context, registerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, registerID)
	return nil
}
