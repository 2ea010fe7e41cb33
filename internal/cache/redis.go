// Package cache provides the Redis mirror of the per-user widget snapshot,
// the server-side counterpart of the device's shared key-value storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/config"
	"github.com/lovance/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "lovance:"

// SnapshotStore caches widget snapshots per user in Redis.
type SnapshotStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewSnapshotStore connects to Redis and verifies the connection.
func NewSnapshotStore(cfg config.RedisConfig) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SnapshotStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewSnapshotStoreWithClient wraps an existing Redis client. Useful for tests.
func NewSnapshotStoreWithClient(client *redis.Client, keyPrefix string) *SnapshotStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &SnapshotStore{client: client, keyPrefix: keyPrefix}
}

func (s *SnapshotStore) widgetKey(userID string) string {
	return s.keyPrefix + "widget:" + userID
}

// GetWidget retrieves the cached snapshot for a user. Returns (nil, nil)
// on a cache miss.
func (s *SnapshotStore) GetWidget(ctx context.Context, userID string) (*models.WidgetSnapshot, error) {
	data, err := s.client.Get(ctx, s.widgetKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get widget snapshot: %w", err)
	}

	var snap models.WidgetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode widget snapshot: %w", err)
	}
	return &snap, nil
}

// SetWidget stores the snapshot for a user with a TTL.
func (s *SnapshotStore) SetWidget(ctx context.Context, userID string, snap *models.WidgetSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode widget snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.widgetKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set widget snapshot: %w", err)
	}
	return nil
}

// DeleteWidget drops the cached snapshot for a user.
func (s *SnapshotStore) DeleteWidget(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.widgetKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete widget snapshot: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection. Used by the health endpoint.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}
