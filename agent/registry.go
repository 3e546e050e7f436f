package agent

import (
	"fmt"
	"sync"

	"github.com/voicedesk/voicedesk/types"
)

// Factory builds a fresh bundle instance. Registries hand out new instances
// per transfer so no per-caller state leaks between sessions.
type Factory func() Agent

// Registry maps domain tags to bundle factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[types.Domain]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[types.Domain]Factory)}
}

// Register installs the factory for a domain, replacing any previous one.
func (r *Registry) Register(domain types.Domain, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[domain] = f
}

// New builds a fresh bundle for the domain.
func (r *Registry) New(domain types.Domain) (Agent, error) {
	r.mu.RLock()
	f, ok := r.factories[domain]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no capability bundle registered for domain %q", domain))
	}
	return f(), nil
}

// Domains lists the registered domains.
func (r *Registry) Domains() []types.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Domain, 0, len(r.factories))
	for d := range r.factories {
		out = append(out, d)
	}
	return out
}
