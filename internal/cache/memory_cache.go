package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется в тестах и как fallback, когда Redis не сконфигурирован.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memoryItem
	metrics *CacheMetrics
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // нулевое значение — без истечения
}

// NewMemoryCache возвращает пустой кеш.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryItem),
		metrics: &CacheMetrics{LastUpdate: time.Now()},
	}
}

// Get получает значение по ключу.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	atomic.AddInt64(&m.metrics.TotalRequests, 1)

	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || (!item.expiresAt.IsZero() && time.Now().After(item.expiresAt)) {
		atomic.AddInt64(&m.metrics.CacheMisses, 1)
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&m.metrics.CacheHits, 1)
	return item.value, nil
}

// Set сохраняет значение с TTL.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Delete удаляет ключ.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Keys возвращает все ключи, присутствующие в кеше.
func (m *MemoryCache) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys
}

// Close ничего не освобождает.
func (m *MemoryCache) Close() error { return nil }

// GetMetrics возвращает копию метрик.
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	hits := atomic.LoadInt64(&m.metrics.CacheHits)
	misses := atomic.LoadInt64(&m.metrics.CacheMisses)
	metrics := CacheMetrics{
		TotalRequests: atomic.LoadInt64(&m.metrics.TotalRequests),
		CacheHits:     hits,
		CacheMisses:   misses,
		LastUpdate:    time.Now(),
	}
	if total := hits + misses; total > 0 {
		metrics.HitRatio = float64(hits) / float64(total)
	}
	return &metrics
}
