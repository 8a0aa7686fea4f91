package memory

import (
	"context"
	"sync"
	"time"
)

// TokenRepo is an in-process revocation set for single-replica deployments;
// it is not shared across instances and does not survive a restart. Entries
// are swept once the token they name has expired.
type TokenRepo struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *TokenRepo) Revoke(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = exp
	m.sweepLocked()
	return nil
}

func (m *TokenRepo) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	exp, ok := m.revoked[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	// An expired entry means the token itself is dead; reporting it as not
	// revoked is safe because validation rejects it on exp first.
	if m.now().After(exp) {
		m.mu.Lock()
		delete(m.revoked, jti)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Len is for tests and metrics.
func (m *TokenRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}

func (m *TokenRepo) sweepLocked() {
	now := m.now()
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
		}
	}
}
