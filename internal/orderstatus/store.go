package orderstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/farmstandhq/farmstand-backend/pkg/enums"
)

// Entry is one recorded override: the status a farmer just set, and when.
type Entry struct {
	Status     enums.OrderStatus `json:"status"`
	RecordedAt time.Time         `json:"recordedAt"`
}

// Store mirrors the in-memory override map into durable storage so a
// restart does not reopen the staleness window.
type Store interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Persist(ctx context.Context, entries map[string]Entry) error
	Clear(ctx context.Context) error
}

type redisBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OverrideKey() string
}

// RedisStore keeps the override snapshot as one JSON blob in redis.
type RedisStore struct {
	client redisBackend
}

// NewRedisStore wraps the shared redis client as an override store.
func NewRedisStore(client redisBackend) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis override store requires a client")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context) (map[string]Entry, error) {
	raw, err := s.client.Get(ctx, s.client.OverrideKey())
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("loading override snapshot: %w", err)
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decoding override snapshot: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) Persist(ctx context.Context, entries map[string]Entry) error {
	blob, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding override snapshot: %w", err)
	}
	return s.client.Set(ctx, s.client.OverrideKey(), blob, 0)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.client.OverrideKey())
}

// MemoryStore is an in-process Store for tests and single-node setups
// without redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Persist(_ context.Context, entries map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry, len(entries))
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]Entry{}
	return nil
}
