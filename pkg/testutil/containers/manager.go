//go:build integration

// Package containers manages shared test containers for integration tests.
// Containers are started lazily, shared across suites, and cleaned up by
// Ryuk when the test process exits.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out shared containers. One container per backing service
// serves the whole test binary; suites isolate themselves by truncating.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared PostgreSQL container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}
