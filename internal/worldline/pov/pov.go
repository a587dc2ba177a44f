// Package pov tracks the active point of view shared between the worldline
// registry and its callers.
package pov

import (
	"sync"
	"time"

	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
)

// Manager holds the active POV pointer. The registry moves it together with
// the active worldline so the two never desynchronize.
type Manager struct {
	mu        sync.Mutex
	active    string
	changedAt time.Time
	clock     func() time.Time
}

// NewManager creates a manager pointing at the default narrator POV.
func NewManager() *Manager {
	m := &Manager{active: domain.DefaultPov, clock: time.Now}
	m.changedAt = m.clock().UTC()
	return m
}

// Get returns the active POV id.
func (m *Manager) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Set moves the active POV pointer.
func (m *Manager) Set(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = domain.DefaultPov
	}
	m.active = id
	m.changedAt = m.now()
}

// Snapshot returns a serializable view of the POV state.
func (m *Manager) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{
		"active":     m.active,
		"changed_at": m.changedAt.Format(time.RFC3339),
	}
}

func (m *Manager) now() time.Time {
	if m.clock == nil {
		return time.Now().UTC()
	}
	return m.clock().UTC()
}
