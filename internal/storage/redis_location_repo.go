package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/route"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "alic:loc:",
		TTL:       24 * time.Hour,
	}
}

// storedLocation запись позиции в Redis
type storedLocation struct {
	Location  route.Location `json:"location"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RedisLocationRepo хранит позиции путников в Redis
type RedisLocationRepo struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisLocationRepo подключается к Redis и проверяет соединение
func NewRedisLocationRepo(config *RedisConfig) (*RedisLocationRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	// Проверяем подключение
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", config.Addr)
	return NewRedisLocationRepoWithClient(client, config.KeyPrefix, config.TTL), nil
}

// NewRedisLocationRepoWithClient использует уже созданный клиент
func NewRedisLocationRepoWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisLocationRepo {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisConfig().KeyPrefix
	}
	return &RedisLocationRepo{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisLocationRepo) key(travelerID string) string {
	return r.keyPrefix + travelerID
}

// Save сохраняет позицию путника
func (r *RedisLocationRepo) Save(ctx context.Context, travelerID string, loc route.Location) error {
	if err := validateTravelerID(travelerID); err != nil {
		return err
	}

	data, err := json.Marshal(storedLocation{Location: loc, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	if err := r.client.Set(ctx, r.key(travelerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// Load получает позицию путника
func (r *RedisLocationRepo) Load(ctx context.Context, travelerID string) (route.Location, bool, error) {
	if err := validateTravelerID(travelerID); err != nil {
		return route.Location{}, false, err
	}

	data, err := r.client.Get(ctx, r.key(travelerID)).Bytes()
	if err == redis.Nil {
		return route.Location{}, false, nil // Позиция не найдена
	} else if err != nil {
		return route.Location{}, false, fmt.Errorf("failed to get location: %w", err)
	}

	var stored storedLocation
	if err := json.Unmarshal(data, &stored); err != nil {
		return route.Location{}, false, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return stored.Location, true, nil
}

// Delete удаляет позицию путника
func (r *RedisLocationRepo) Delete(ctx context.Context, travelerID string) error {
	if err := validateTravelerID(travelerID); err != nil {
		return err
	}
	return r.client.Del(ctx, r.key(travelerID)).Err()
}

// Close закрывает соединение с Redis
func (r *RedisLocationRepo) Close() error {
	return r.client.Close()
}
