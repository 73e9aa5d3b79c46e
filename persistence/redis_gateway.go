package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ethanturk-incycle/memoripy/types"
)

// RedisGateway persists snapshots in Redis. Suitable for distributed
// deployments where several nodes share memory sets. Each set stores one
// JSON document per tier under a prefixed key; both tiers are written in a
// single pipeline so a load never observes a half-saved set.
type RedisGateway struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisGateway creates a Redis-backed gateway and verifies connectivity.
func NewRedisGateway(config Config, logger *zap.Logger) (*RedisGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
		PoolSize: config.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	keyPrefix := config.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "memoripy:"
	}

	return &RedisGateway{
		client:    client,
		keyPrefix: keyPrefix + "set:",
		logger:    logger.With(zap.String("gateway", "redis")),
	}, nil
}

func (g *RedisGateway) shortKey(setID string) string {
	return g.keyPrefix + setID + ":short_term"
}

func (g *RedisGateway) longKey(setID string) string {
	return g.keyPrefix + setID + ":long_term"
}

// Load restores the tiered state of one memory set. Missing keys return two
// empty sequences.
func (g *RedisGateway) Load(ctx context.Context, setID string) ([]*types.MemoryRecord, []*types.MemoryRecord, error) {
	if setID == "" {
		return nil, nil, ErrInvalidInput
	}

	short, err := g.loadTier(ctx, g.shortKey(setID))
	if err != nil {
		return nil, nil, err
	}
	long, err := g.loadTier(ctx, g.longKey(setID))
	if err != nil {
		return nil, nil, err
	}
	return short, long, nil
}

func (g *RedisGateway) loadTier(ctx context.Context, key string) ([]*types.MemoryRecord, error) {
	data, err := g.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return []*types.MemoryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	var records []*types.MemoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return records, nil
}

// Save persists the tiered state of one memory set.
func (g *RedisGateway) Save(ctx context.Context, setID string, short, long []*types.MemoryRecord) error {
	if setID == "" {
		return ErrInvalidInput
	}

	shortData, err := json.Marshal(short)
	if err != nil {
		return fmt.Errorf("failed to encode short-term tier: %w", err)
	}
	longData, err := json.Marshal(long)
	if err != nil {
		return fmt.Errorf("failed to encode long-term tier: %w", err)
	}

	pipe := g.client.Pipeline()
	pipe.Set(ctx, g.shortKey(setID), shortData, 0)
	pipe.Set(ctx, g.longKey(setID), longData, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Ping checks if the gateway is healthy.
func (g *RedisGateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (g *RedisGateway) Close() error {
	return g.client.Close()
}
