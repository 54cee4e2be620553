// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates the research lifecycle: it validates and
// persists researches, runs them through workflow executors with
// cache-wrapped providers, and renders their results for a reader.
// Implements: prd001-research-lifecycle (R1-R3, R5-R6);
//
//	docs/ARCHITECTURE § Engine.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/equity-engine/internal/llm"
	"github.com/pdiddy/equity-engine/internal/provider"
	"github.com/pdiddy/equity-engine/internal/repo"
	"github.com/pdiddy/equity-engine/internal/tool"
	"github.com/pdiddy/equity-engine/internal/workflow"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Engine ties repositories, providers, and workflow executors together.
// Providers are expected to arrive cache-wrapped; the engine itself never
// caches results (research output lives in the repo, cached payloads in
// the cache layer).
type Engine struct {
	cfg          types.EngineConfig
	researches   repo.ResearchRepo
	profiles     repo.ProfileRepo
	market       provider.MarketData
	fundamentals provider.Fundamentals
	model        llm.Provider
	tools        *tool.Registry
	registry     *workflow.Registry
	clock        func() time.Time
	logger       *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine clock. Tests use this to pin timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the workflow registry.
func WithRegistry(reg *workflow.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// New builds an Engine. The model may be nil, which leaves agentic
// workflows unavailable; everything else is required.
func New(cfg types.EngineConfig, researches repo.ResearchRepo, profiles repo.ProfileRepo,
	market provider.MarketData, fundamentals provider.Fundamentals, model llm.Provider,
	opts ...Option) *Engine {

	e := &Engine{
		cfg:          cfg,
		researches:   researches,
		profiles:     profiles,
		market:       market,
		fundamentals: fundamentals,
		model:        model,
		tools:        tool.DefaultRegistry(market, fundamentals),
		registry:     workflow.DefaultRegistry(),
		clock:        time.Now,
		logger:       slog.Default(),
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// acquire marks a research as running. It reports false when another Run
// already holds the id. Per prd001-research-lifecycle R3.2.
func (e *Engine) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, running := e.inFlight[id]; running {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)
}

// deps assembles what executors need for one run.
func (e *Engine) deps(ctx context.Context, r *types.Research) workflow.Deps {
	return workflow.Deps{
		Market:       e.market,
		Fundamentals: e.fundamentals,
		Tools:        e.tools,
		LLM:          e.model,
		LLMConfig:    e.cfg.LLM,
		Config:       e.cfg.Workflow,
		Literacy:     e.literacyFor(ctx, r),
		Now:          e.clock,
		Logger:       e.logger,
	}
}

// literacyFor resolves the reader level behind a research. A missing or
// unreadable profile falls back to beginner. Per prd006-presentation R2.2.
func (e *Engine) literacyFor(ctx context.Context, r *types.Research) types.Literacy {
	if r.ProfileID == "" {
		return types.LiteracyBeginner
	}
	p, err := e.profiles.Get(ctx, r.ProfileID)
	if err != nil {
		e.logger.Warn("profile lookup failed, falling back to beginner",
			"profile_id", r.ProfileID, "error", err)
		return types.LiteracyBeginner
	}
	return p.Literacy
}

func isCancellation(err error) bool {
	return errors.Is(err, types.ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
