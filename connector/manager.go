package connector

import (
	"fmt"
	"slices"
	"sync"
)

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. Providers call it from init.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Drivers lists registered provider names.
func Drivers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns a connector for config.Driver.
func New(config Config, opts OpenOptions) (*Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[config.Driver]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered", config.Driver)
	}
	if err := config.dsnBuilder().Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	return &Connector{provider: provider, config: config, opts: opts}, nil
}
