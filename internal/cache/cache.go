package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-tracker/internal/config"
	"crypto-tracker/internal/storage"
)

// Cache mirrors the most recent observation per (exchange, product) into
// Redis so dashboard-style readers can poll cheap keys instead of the
// database. Entries expire; the database remains the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection.
func New(cfg config.CacheConfig, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}, nil
}

func latestKey(exchange, product string) string {
	return fmt.Sprintf("latest:%s:%s", exchange, product)
}

// SetLatest stores an observation as the latest price for its pair.
func (c *Cache) SetLatest(ctx context.Context, obs storage.Observation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey(obs.Exchange, obs.Product), data, c.ttl).Err()
}

// GetLatest returns the cached latest observation, or nil when absent.
func (c *Cache) GetLatest(ctx context.Context, exchange, product string) (*storage.Observation, error) {
	data, err := c.client.Get(ctx, latestKey(exchange, product)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var obs storage.Observation
	if err := json.Unmarshal([]byte(data), &obs); err != nil {
		return nil, err
	}
	return &obs, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
