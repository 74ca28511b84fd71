package system

import (
	"context"
	"fmt"
	"sync"
)

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	mu       sync.Mutex
	services []Service
	names    map[string]struct{}
	started  int
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{names: make(map[string]struct{})}
}

// Register adds a service. Names must be unique.
func (m *Manager) Register(svc Service) error {
	if svc == nil {
		return fmt.Errorf("nil service")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.names[svc.Name()]; dup {
		return fmt.Errorf("service %q already registered", svc.Name())
	}
	m.names[svc.Name()] = struct{}{}
	m.services = append(m.services, svc)
	return nil
}

// Services returns the registered services in start order.
func (m *Manager) Services() []Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Service, len(m.services))
	copy(out, m.services)
	return out
}

// Start starts every service. On failure the services already started are
// stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := m.started; i < len(m.services); i++ {
		if err := m.services[i].Start(ctx); err != nil {
			m.stopLocked(ctx)
			return fmt.Errorf("start %s: %w", m.services[i].Name(), err)
		}
		m.started = i + 1
	}
	return nil
}

// Stop stops started services in reverse order and returns the first error.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var first error
	for i := m.started - 1; i >= 0; i-- {
		if err := m.services[i].Stop(ctx); err != nil && first == nil {
			first = fmt.Errorf("stop %s: %w", m.services[i].Name(), err)
		}
	}
	m.started = 0
	return first
}
