// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the language model port and the provider registry.
// Implements: prd003-data-providers (R5, R6);
//
//	docs/ARCHITECTURE § LLM Providers.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Request is one completion request.
type Request struct {
	// System primes the model with role instructions. Empty sends no
	// system turn.
	System string

	// Prompt is the user turn.
	Prompt string

	// Temperature is the sampling temperature.
	Temperature float32

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int
}

// Response is the model's reply.
type Response struct {
	// Content is the raw completion text.
	Content string

	// Model is the identifier the provider actually served, which may
	// differ from the requested one (aliases, dated snapshots).
	Model string

	// TotalTokens is prompt plus completion tokens when the provider
	// reports usage, zero otherwise.
	TotalTokens int
}

// Provider generates completions. Implementations must be safe for
// concurrent use.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Factory builds a Provider from configuration.
type Factory func(cfg types.LLMConfig) (Provider, error)

// Registry maps provider names to factories so workflows stay decoupled
// from concrete adapters. Per prd003-data-providers R6.1.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("openai", NewOpenAI)
	return r
}

// Register adds a factory under name, replacing any previous registration.
// Names are case-insensitive.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider cfg.Provider selects, defaulting to "openai".
func (r *Registry) New(cfg types.LLMConfig) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = "openai"
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewError(types.KindProvider, "llm.registry",
			fmt.Sprintf("unknown provider %q (registered: %s)", name, strings.Join(r.Names(), ", ")))
	}
	return factory(cfg)
}
