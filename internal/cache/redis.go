// Package cache keeps the narration ledger in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/redis/go-redis/v9"
)

const narrationKeyPrefix = "narration:"

// NarrationKey is the Redis key of a ledger entry.
func NarrationKey(dedupKey string) string {
	return narrationKeyPrefix + dedupKey
}

// RedisLedger stores narration records as JSON with an expiry.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client and checks the connection.
func NewRedisClient(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

// Lookup returns the record for dedupKey, or nil on a miss.
func (l *RedisLedger) Lookup(ctx context.Context, dedupKey string) (*models.NarrationRecord, error) {
	val, err := l.client.Get(ctx, NarrationKey(dedupKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec models.NarrationRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode narration record: %w", err)
	}
	return &rec, nil
}

// Record stores rec unless an entry already exists for its dedup key.
func (l *RedisLedger) Record(ctx context.Context, rec models.NarrationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode narration record: %w", err)
	}
	if err := l.client.SetNX(ctx, NarrationKey(rec.DedupKey), payload, l.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
