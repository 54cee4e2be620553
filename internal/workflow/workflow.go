// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow implements the research execution strategies: the
// static pipeline with its fixed stage table and the agentic planner
// with its bounded tool-call loop.
// Implements: prd004-workflow-execution (R1-R5);
//
//	docs/ARCHITECTURE § Workflow Executors.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/equity-engine/internal/llm"
	"github.com/pdiddy/equity-engine/internal/provider"
	"github.com/pdiddy/equity-engine/internal/tool"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Deps bundles everything executors need for one run. The engine builds it
// with cache-wrapped providers so every data call is memoized.
type Deps struct {
	// Market and Fundamentals serve price and statement data.
	Market       provider.MarketData
	Fundamentals provider.Fundamentals

	// Tools is the registry the agentic planner dispatches against.
	Tools *tool.Registry

	// LLM generates planning completions. Nil disables agentic execution.
	LLM llm.Provider

	// LLMConfig tunes planning requests.
	LLMConfig types.LLMConfig

	// Config carries execution policy (required stages, iteration cap).
	Config types.WorkflowConfig

	// Literacy is the resolved reader level, used to phrase prompts.
	Literacy types.Literacy

	// Now is the engine clock. Nil falls back to time.Now.
	Now func() time.Time

	// Logger receives execution progress. Nil discards it.
	Logger *slog.Logger
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Executor runs one workflow strategy. Execute never mutates the research;
// lifecycle transitions belong to the engine. Per prd004-workflow-execution R1.
type Executor interface {
	// Type identifies the workflow this executor serves.
	Type() types.WorkflowType

	// Validate checks that the research is fit for this workflow, before
	// any state transition happens.
	Validate(r *types.Research) error

	// Execute runs the workflow and returns its result.
	Execute(ctx context.Context, r *types.Research, deps Deps) (*types.WorkflowResult, error)
}

// Registry maps workflow types to executors. Per prd004-workflow-execution R1.2.
type Registry struct {
	mu        sync.RWMutex
	executors map[types.WorkflowType]Executor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[types.WorkflowType]Executor)}
}

// DefaultRegistry returns a registry with the built-in executors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewStatic())
	r.Register(NewAgentic())
	return r
}

// Register adds an executor, replacing any previous one for its type.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Type()] = e
}

// Get returns the executor for a workflow type. Unknown types are
// unsupported_workflow errors, never a silent fallback.
// Per prd004-workflow-execution R1.3.
func (r *Registry) Get(wt types.WorkflowType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[wt]
	if !ok {
		return nil, types.NewError(types.KindUnsupportedWorkflow, "workflow.registry",
			fmt.Sprintf("no executor registered for workflow %q", wt))
	}
	return e, nil
}
