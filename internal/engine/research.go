// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/equity-engine/internal/render"
	"github.com/pdiddy/equity-engine/internal/repo"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Create validates a spec, resolves its profile, and persists a pending
// research. When the spec names no profile the current profile, if any, is
// attached. Per prd001-research-lifecycle R2.
func (e *Engine) Create(ctx context.Context, spec types.ResearchSpec) (*types.Research, error) {
	r, err := types.NewResearch(spec, e.clock())
	if err != nil {
		return nil, err
	}

	if r.ProfileID != "" {
		if _, err := e.profiles.Get(ctx, r.ProfileID); err != nil {
			return nil, err
		}
	} else if current, err := e.profiles.Current(ctx); err == nil {
		r.ProfileID = current.ID
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	// Workflow-specific rules (an agentic research needs a question) are
	// enforced at creation, not discovered at run time.
	exec, err := e.registry.Get(r.Workflow)
	if err != nil {
		return nil, err
	}
	if err := exec.Validate(r); err != nil {
		return nil, err
	}

	if err := e.researches.Save(ctx, r); err != nil {
		return nil, err
	}
	e.logger.Info("research created", "id", r.ID, "symbol", r.Symbol, "workflow", r.Workflow)
	return r, nil
}

// Run executes a pending research to a terminal state. The terminal status
// and its result (or error message) land in a single Save, so readers
// never observe a half-published outcome. On execution failure the
// research is persisted as failed and returned together with the execution
// error, so callers can branch on the error kind without reloading.
// Per prd001-research-lifecycle R3.
func (e *Engine) Run(ctx context.Context, id string) (*types.Research, error) {
	const op = "engine.Run"

	if !e.acquire(id) {
		return nil, types.NewError(types.KindConflict, op, fmt.Sprintf("research %s is already running", id))
	}
	defer e.release(id)

	r, err := e.researches.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, types.NewError(types.KindInvalidTransition, op,
			fmt.Sprintf("research %s is already %s", id, r.Status))
	}

	exec, err := e.registry.Get(r.Workflow)
	if err != nil {
		return nil, err
	}
	if err := exec.Validate(r); err != nil {
		return nil, err
	}

	if err := r.Start(e.clock()); err != nil {
		return nil, err
	}
	if err := e.researches.Save(ctx, r); err != nil {
		return nil, err
	}
	e.logger.Info("research started", "id", r.ID, "symbol", r.Symbol, "workflow", r.Workflow)

	result, execErr := exec.Execute(ctx, r, e.deps(ctx, r))

	now := e.clock()
	if execErr != nil {
		if isCancellation(execErr) && types.KindOf(execErr) != types.KindCancelled {
			execErr = &types.EngineError{Kind: types.KindCancelled, Op: op, Detail: "execution cancelled", Err: execErr}
		}
		if err := r.Fail(execErr.Error(), now); err != nil {
			return nil, err
		}
		if err := e.researches.Save(ctx, r); err != nil {
			return nil, err
		}
		e.logger.Warn("research failed", "id", r.ID, "error", execErr)
		return r, execErr
	}

	if err := r.Complete(result, now); err != nil {
		return nil, err
	}
	if err := e.researches.Save(ctx, r); err != nil {
		return nil, err
	}
	e.logger.Info("research completed", "id", r.ID, "status", result.Status, "sections", len(result.Sections))
	return r, nil
}

// Get returns a research by id.
func (e *Engine) Get(ctx context.Context, id string) (*types.Research, error) {
	return e.researches.Get(ctx, id)
}

// List returns researches matching the filter, newest first.
func (e *Engine) List(ctx context.Context, f repo.ResearchFilter) ([]*types.Research, error) {
	return e.researches.List(ctx, f)
}

// Delete removes a research.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.researches.Delete(ctx, id); err != nil {
		return err
	}
	e.logger.Info("research deleted", "id", id)
	return nil
}

// RenderArtifact renders a completed research for a reader. An empty
// override uses the research profile's literacy, falling back to beginner.
// Per prd006-presentation R1.
func (e *Engine) RenderArtifact(ctx context.Context, id string, literacyOverride types.Literacy) (*render.Artifact, error) {
	r, err := e.researches.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Result == nil {
		return nil, types.NewError(types.KindValidation, "engine.RenderArtifact",
			fmt.Sprintf("research %s has no result to render (status %s)", id, r.Status))
	}
	literacy := literacyOverride
	if literacy == "" {
		literacy = e.literacyFor(ctx, r)
	}
	return render.Render(r.Result, literacy)
}
