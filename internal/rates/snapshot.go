package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/tipbot/internal/models"
)

// MemorySnapshotStore keeps the snapshot in process memory.
type MemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot models.RateSnapshot
}

// NewMemorySnapshotStore returns an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Load(_ context.Context) (models.RateSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, nil
}

func (m *MemorySnapshotStore) Save(_ context.Context, snapshot models.RateSnapshot) error {
	m.mu.Lock()
	m.snapshot = snapshot
	m.mu.Unlock()
	return nil
}

// DefaultRedisKey is where RedisSnapshotStore keeps the snapshot.
const DefaultRedisKey = "tipbot:rates:snapshot"

// RedisSnapshotStore shares one snapshot between bot replicas.
// The snapshot is stored as JSON without a TTL; staleness is still decided
// by the Provider from LastUpdated.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore stores the snapshot under key (DefaultRedisKey if empty).
func NewRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSnapshotStore{client: client, key: key}
}

func (r *RedisSnapshotStore) Load(ctx context.Context) (models.RateSnapshot, error) {
	var snapshot models.RateSnapshot

	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot, nil
	}
	if err != nil {
		return snapshot, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return models.RateSnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *RedisSnapshotStore) Save(ctx context.Context, snapshot models.RateSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
