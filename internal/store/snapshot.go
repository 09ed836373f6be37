package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

// ErrSnapshotMiss indicates no snapshot is stored.
var ErrSnapshotMiss = errors.New("snapshot miss")

// Snapshot shares the last upstream product list between replicas so a
// cold replica can warm without calling upstream.
type Snapshot interface {
	Load(ctx context.Context) ([]model.Product, error)
	Save(ctx context.Context, products []model.Product) error
}

// RedisConfig holds Redis connection settings for RedisSnapshot.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// RedisSnapshot stores the product list as one JSON value with a TTL.
type RedisSnapshot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshot connects to Redis and verifies the connection.
func NewRedisSnapshot(ctx context.Context, cfg RedisConfig) (*RedisSnapshot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "catalog:products"
	}
	return &RedisSnapshot{client: client, key: key, ttl: cfg.TTL}, nil
}

// Load returns the stored product list.
func (s *RedisSnapshot) Load(ctx context.Context) ([]model.Product, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var products []model.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return products, nil
}

// Save stores products, replacing any previous snapshot.
func (s *RedisSnapshot) Save(ctx context.Context, products []model.Product) error {
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot.
func (s *RedisSnapshot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSnapshot) Close() error {
	return s.client.Close()
}
