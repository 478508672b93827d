package scraper

import (
	"time"

	"minhng/pricewatch/services/cache"
)

// mockCacheService is a mock implementation of cache.CacheService for testing
type mockCacheService struct {
	data map[string][]byte
}

var _ cache.CacheService = (*mockCacheService)(nil)

func newMockCacheService() *mockCacheService {
	return &mockCacheService{
		data: make(map[string][]byte),
	}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	if data, ok := m.data[key]; ok {
		return data, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *mockCacheService) Set(key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheService) Delete(key string) error {
	delete(m.data, key)
	return nil
}
