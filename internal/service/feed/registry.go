package feed

import (
	"fmt"
	"sort"
	"sync"

	"InvestAgent/internal/domain/models"
	drepo "InvestAgent/internal/domain/repository"
)

// StreamFactory builds a MarketStream for a validated feed configuration.
type StreamFactory func(cfg *models.FeedConfig) (drepo.MarketStream, error)

// Registry holds named feed providers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StreamFactory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]StreamFactory)}
}

// Register adds a provider factory under name. Re-registering replaces it.
func (r *Registry) Register(name string, f StreamFactory) error {
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	if f == nil {
		return fmt.Errorf("provider factory is nil")
	}
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
	return nil
}

// Open validates cfg and builds a stream from the named provider.
func (r *Registry) Open(cfg *models.FeedConfig) (drepo.MarketStream, error) {
	if cfg == nil {
		return nil, fmt.Errorf("feed config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("feed config: %w", err)
	}
	r.mu.RLock()
	f, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown feed provider: %s", cfg.Provider)
	}
	return f(cfg)
}

// Providers lists registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
