package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "steward:artifact:"

// RedisStore implements Store on a Redis instance. Records are stored as
// JSON values with an optional TTL; a zero TTL keeps records forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the instance named by url and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("artifacts: parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("artifacts: connecting to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(ownerID, key string) string {
	return redisKeyPrefix + ownerID + ":" + key
}

// Put writes the record, preserving the id and creation time of any
// existing record for the pair. A write refreshes the TTL.
func (r *RedisStore) Put(ctx context.Context, ownerID, key string, value []byte) error {
	now := nowRFC3339()
	rec := Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Key:       key,
		Value:     string(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, err := r.Get(ctx, ownerID, key); err == nil {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("artifacts: marshaling record: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(ownerID, key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("artifacts: put %s/%s: %w", ownerID, key, err)
	}
	return nil
}

// Get reads the record for an owner/key pair.
func (r *RedisStore) Get(ctx context.Context, ownerID, key string) (*Record, error) {
	data, err := r.client.Get(ctx, redisKey(ownerID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("artifacts: get %s/%s: %w", ownerID, key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("artifacts: parsing record %s/%s: %w", ownerID, key, err)
	}
	return &rec, nil
}

// Close closes the redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
