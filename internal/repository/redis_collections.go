package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"BondPulse/internal/domain/repository"
)

// ErrCollectionNotFound is returned when no collection exists under a name.
var ErrCollectionNotFound = errors.New("collection not found")

// RedisCollectionStore keeps named bond collections in a Redis hash.
type RedisCollectionStore struct {
	client *redis.Client
	key    string
}

func NewRedisCollectionStore(client *redis.Client) repository.CollectionStore {
	return &RedisCollectionStore{client: client, key: "bondpulse:collections"}
}

func (s *RedisCollectionStore) Save(ctx context.Context, name string, secids []string) error {
	data, err := json.Marshal(secids)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, name, data).Err(); err != nil {
		return fmt.Errorf("hset collection: %w", err)
	}
	return nil
}

func (s *RedisCollectionStore) Get(ctx context.Context, name string) ([]string, error) {
	data, err := s.client.HGet(ctx, s.key, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("hget collection: %w", err)
	}
	var secids []string
	if err := json.Unmarshal([]byte(data), &secids); err != nil {
		return nil, fmt.Errorf("unmarshal collection: %w", err)
	}
	return secids, nil
}

func (s *RedisCollectionStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hkeys collections: %w", err)
	}
	return names, nil
}

func (s *RedisCollectionStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.HDel(ctx, s.key, name).Result()
	if err != nil {
		return fmt.Errorf("hdel collection: %w", err)
	}
	if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// MemoryCollectionStore is an in-process CollectionStore used when Redis is
// disabled and in tests.
type MemoryCollectionStore struct {
	mu          sync.RWMutex
	collections map[string][]string
}

func NewMemoryCollectionStore() *MemoryCollectionStore {
	return &MemoryCollectionStore{collections: make(map[string][]string)}
}

func (s *MemoryCollectionStore) Save(ctx context.Context, name string, secids []string) error {
	cp := make([]string, len(secids))
	copy(cp, secids)
	s.mu.Lock()
	s.collections[name] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryCollectionStore) Get(ctx context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secids, ok := s.collections[name]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return secids, nil
}

func (s *MemoryCollectionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names, nil
}

func (s *MemoryCollectionStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return ErrCollectionNotFound
	}
	delete(s.collections, name)
	return nil
}
