package model

import (
	"strings"
	"sync"
)

type ProviderFactory func(apiKey string) Provider

// Registry maps provider names to live providers and to factories that build
// them from an api key.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		factories: make(map[string]ProviderFactory),
	}
}

// DefaultRegistry knows how to build the OpenAI and Anthropic providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterFactory("openai", func(apiKey string) Provider { return NewOpenAIProvider(apiKey) })
	r.RegisterFactory("anthropic", func(apiKey string) Provider { return NewAnthropicProvider(apiKey) })
	return r
}

func (r *Registry) Register(name string, provider Provider) {
	if r == nil || provider == nil {
		return
	}
	key := normalizeProviderName(name)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[key] = provider
}

func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	key := normalizeProviderName(name)
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[key]
	return provider, ok
}

func (r *Registry) RegisterFactory(name string, factory ProviderFactory) {
	if r == nil || factory == nil {
		return
	}
	key := normalizeProviderName(name)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key] = factory
}

// New builds a provider through the named factory.
func (r *Registry) New(name, apiKey string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	key := normalizeProviderName(name)
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	provider := factory(apiKey)
	if provider == nil {
		return nil, false
	}
	return provider, true
}

// Resolve returns a registered provider, or builds one through a factory.
func (r *Registry) Resolve(name, apiKey string) (Provider, bool) {
	if p, ok := r.Get(name); ok {
		return p, true
	}
	return r.New(name, apiKey)
}

func normalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
