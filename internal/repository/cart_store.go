package repository

import (
	"errors"
	"sync"
	"time"

	"decant-store-backend/internal/cart"
	"decant-store-backend/pkg/cache"
)

var ErrCartNotFound = errors.New("cart not found")

// CartStore persists per-session cart state. A session that has never
// mutated its cart has no stored state and reads as ErrCartNotFound.
type CartStore interface {
	Load(sessionID string) (cart.State, error)
	Save(sessionID string, state cart.State) error
	Delete(sessionID string) error
}

const cartKeyPrefix = "cart:"

// redisCartStore keeps cart state in Redis with a sliding TTL, so abandoned
// carts age out on their own.
type redisCartStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewRedisCartStore(c *cache.Cache, ttl time.Duration) CartStore {
	return &redisCartStore{cache: c, ttl: ttl}
}

func (s *redisCartStore) Load(sessionID string) (cart.State, error) {
	var state cart.State
	err := s.cache.Get(cartKeyPrefix+sessionID, &state)
	if errors.Is(err, cache.ErrNotFound) {
		return cart.State{}, ErrCartNotFound
	}
	if err != nil {
		return cart.State{}, err
	}

	// Reading an active cart keeps it alive.
	_ = s.cache.Expire(cartKeyPrefix+sessionID, s.ttl)
	return state, nil
}

func (s *redisCartStore) Save(sessionID string, state cart.State) error {
	return s.cache.Set(cartKeyPrefix+sessionID, state, s.ttl)
}

func (s *redisCartStore) Delete(sessionID string) error {
	return s.cache.Delete(cartKeyPrefix + sessionID)
}

// memoryCartStore backs carts with a plain map. Used when Redis is disabled
// and in tests.
type memoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.State
}

func NewMemoryCartStore() CartStore {
	return &memoryCartStore{carts: make(map[string]cart.State)}
}

func (s *memoryCartStore) Load(sessionID string) (cart.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.carts[sessionID]
	if !ok {
		return cart.State{}, ErrCartNotFound
	}
	return state, nil
}

func (s *memoryCartStore) Save(sessionID string, state cart.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = state
	return nil
}

func (s *memoryCartStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}
