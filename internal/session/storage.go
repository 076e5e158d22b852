package session

import (
	"context"
	"sync"
)

// Persisted key names. The three non-profile keys double as cookie names.
const (
	KeyAuthToken    = "piaxe_auth_token"
	KeyRefreshToken = "piaxe_refresh_token"
	KeyUser         = "piaxe_user"
	KeyDeviceID     = "piaxe_device_id"
)

// CookieMaxAge is the lifetime of the mirrored cookies in seconds (30 days)
const CookieMaxAge = 30 * 24 * 60 * 60

// StorageKeys lists every key the session writes to storage
var StorageKeys = []string{KeyAuthToken, KeyRefreshToken, KeyUser, KeyDeviceID}

// CookieNames lists the cookies mirrored for server-side readers
var CookieNames = []string{KeyAuthToken, KeyRefreshToken, KeyDeviceID}

// Storage is a persistent string key/value surface
type Storage interface {
	// Get returns the value and whether the key was present
	Get(ctx context.Context, key string) (string, bool, error)
	// SetMany writes all pairs together
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStorage keeps values in process memory
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len reports how many keys are stored
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
