package credential

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps the credential for the life of the process.
type memoryStore struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{ttl: opts.TTL, now: time.Now}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || !m.expiresAt.After(m.now()) {
		return "", nil
	}
	return m.token, nil
}

func (m *memoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.expiresAt = m.now().Add(m.ttl)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Status(context.Context) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || !m.expiresAt.After(m.now()) {
		return Status{}, nil
	}
	return Status{Present: true, ExpiresAt: m.expiresAt}, nil
}
