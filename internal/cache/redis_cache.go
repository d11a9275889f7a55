package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/aetherlink/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует CacheRepo используя Redis.
// Ключи общие для всех узлов, поэтому Invalidate только удаляет ключ
// и уведомляет подписчиков с локальными копиями.
type RedisCache struct {
	client      redis.UniversalClient
	config      Config
	invalidator CacheInvalidator
	counters
}

// NewRedisCache подключается к Redis и проверяет соединение.
//
// Параметры:
//
//	config - адрес и TTL
//	invalidator - опциональный invalidator для Pub/Sub (может быть nil)
func NewRedisCache(config Config, invalidator CacheInvalidator) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s", config.RedisURL)
	return NewRedisCacheWithClient(rdb, config, invalidator), nil
}

// NewRedisCacheWithClient использует уже созданный клиент
func NewRedisCacheWithClient(client redis.UniversalClient, config Config, invalidator CacheInvalidator) *RedisCache {
	config.applyDefaults()
	return &RedisCache{client: client, config: config, invalidator: invalidator}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		r.miss()
		return nil, ErrCacheMiss
	}
	if err != nil {
		r.miss()
		logging.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	r.hit()
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer r.recordLatency(start)

	if err := r.client.Set(ctx, key, value, r.config.clampTTL(ttl)).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n > 0, nil
}

func (r *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := r.Delete(ctx, key); err != nil {
		return err
	}
	if r.invalidator != nil {
		return r.invalidator.PublishInvalidation(ctx, key)
	}
	return nil
}

func (r *RedisCache) Close() error {
	if r.invalidator != nil {
		if err := r.invalidator.Close(); err != nil {
			logging.Warn("Invalidator close error: %v", err)
		}
	}
	return r.client.Close()
}

func (r *RedisCache) GetMetrics() CacheMetrics {
	keys, err := r.client.DBSize(context.Background()).Result()
	if err != nil {
		keys = -1
	}
	return r.snapshot(keys)
}
