package cache

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/aetherlink/internal/logging"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется, когда Redis не настроен, и в тестах.
type MemoryCache struct {
	config      Config
	invalidator CacheInvalidator

	mu     sync.RWMutex
	items  map[string]memoryEntry
	closed bool

	now func() time.Time
	counters
}

// NewMemoryCache создаёт кеш в памяти. invalidator может быть nil.
func NewMemoryCache(config Config, invalidator CacheInvalidator) *MemoryCache {
	config.applyDefaults()
	return &MemoryCache{
		config:      config,
		invalidator: invalidator,
		items:       make(map[string]memoryEntry),
		now:         time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer m.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	e, ok := m.items[key]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok || !m.now().Before(e.expiresAt) {
		m.miss()
		return nil, ErrCacheMiss
	}
	m.hit()

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer m.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[key] = memoryEntry{value: stored, expiresAt: m.now().Add(m.config.clampTTL(ttl))}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	return ok && m.now().Before(e.expiresAt), nil
}

// Invalidate удаляет ключ локально и уведомляет остальные узлы
func (m *MemoryCache) Invalidate(ctx context.Context, key string) error {
	if err := m.Delete(ctx, key); err != nil {
		return err
	}
	if m.invalidator != nil {
		return m.invalidator.PublishInvalidation(ctx, key)
	}
	return nil
}

// Purge удаляет просроченные записи и возвращает их количество
func (m *MemoryCache) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.closed = true
	m.items = make(map[string]memoryEntry)
	m.mu.Unlock()
	if m.invalidator != nil {
		return m.invalidator.Close()
	}
	return nil
}

func (m *MemoryCache) GetMetrics() CacheMetrics {
	m.mu.RLock()
	keys := int64(len(m.items))
	m.mu.RUnlock()
	return m.snapshot(keys)
}

// ListenInvalidations удаляет локальные ключи по уведомлениям других узлов
func ListenInvalidations(ctx context.Context, repo CacheRepo, inv CacheInvalidator) error {
	return inv.SubscribeInvalidations(ctx, func(key string) error {
		logging.Debug("🧹 Инвалидация ключа %s по уведомлению", key)
		return repo.Delete(ctx, key)
	})
}
