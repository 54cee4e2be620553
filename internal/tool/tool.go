// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool exposes market data and analysis operations as named,
// dispatchable tools for the agentic planner.
// Implements: prd004-workflow-execution (R4.2, R4.4);
//
//	docs/ARCHITECTURE § Tool Registry.
package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Tool is one operation the planner may invoke by name. Call returns a
// JSON-shaped observation. Argument problems come back as validation
// errors; the planner reads those as corrective feedback.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry holds tools in registration order so prompt catalogs and
// listings stay deterministic.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the tool but keeps
// its original position.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, ok := r.tools[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Describe renders the prompt-ready tool catalog, one line per tool.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.tools[name].Description())
	}
	return b.String()
}

// Call dispatches to the named tool. An unknown name is a validation
// error naming the available tools, so the planner can self-correct.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, types.NewError(types.KindValidation, "tool.call",
			fmt.Sprintf("unknown tool %q (available: %s)", name, strings.Join(r.Names(), ", ")))
	}
	return t.Call(ctx, args)
}
