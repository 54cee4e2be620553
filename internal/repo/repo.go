// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repo persists researches and profiles behind storage-agnostic
// interfaces with memory and SQLite implementations.
// Implements: prd001-research-lifecycle (R6);
//
//	docs/ARCHITECTURE § Storage.
package repo

import (
	"context"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// ResearchFilter narrows List results. Zero fields match everything.
type ResearchFilter struct {
	// Status keeps only researches in this lifecycle state.
	Status types.ResearchStatus

	// Symbol keeps only researches over this ticker.
	Symbol string
}

func (f ResearchFilter) matches(r *types.Research) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Symbol != "" && r.Symbol != f.Symbol {
		return false
	}
	return true
}

// ResearchRepo stores Research records. Get returns a not_found error for
// unknown ids. Save replaces any existing record atomically, so a terminal
// status and its result land in one write. Per prd001-research-lifecycle
// R6.2-R6.3.
type ResearchRepo interface {
	Save(ctx context.Context, r *types.Research) error
	Get(ctx context.Context, id string) (*types.Research, error)
	List(ctx context.Context, f ResearchFilter) ([]*types.Research, error)
	Delete(ctx context.Context, id string) error
}

// ProfileRepo stores ResearchProfiles plus the current-profile pointer used
// when a research names no profile. Current returns a not_found error while
// the pointer is unset. Per prd001-research-lifecycle R5.3, R6.4.
type ProfileRepo interface {
	Save(ctx context.Context, p *types.ResearchProfile) error
	Get(ctx context.Context, id string) (*types.ResearchProfile, error)
	List(ctx context.Context) ([]*types.ResearchProfile, error)
	Delete(ctx context.Context, id string) error
	SetCurrent(ctx context.Context, id string) error
	Current(ctx context.Context) (*types.ResearchProfile, error)
}
