// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// CreateProfile validates and persists a reader profile.
// Per prd001-research-lifecycle R5.1.
func (e *Engine) CreateProfile(ctx context.Context, displayName string, literacy types.Literacy) (*types.ResearchProfile, error) {
	p, err := types.NewProfile(displayName, literacy, e.clock())
	if err != nil {
		return nil, err
	}
	if err := e.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	e.logger.Info("profile created", "id", p.ID, "literacy", p.Literacy)
	return p, nil
}

// GetProfile returns a profile by id.
func (e *Engine) GetProfile(ctx context.Context, id string) (*types.ResearchProfile, error) {
	return e.profiles.Get(ctx, id)
}

// ListProfiles returns all profiles.
func (e *Engine) ListProfiles(ctx context.Context) ([]*types.ResearchProfile, error) {
	return e.profiles.List(ctx)
}

// DeleteProfile removes a profile.
func (e *Engine) DeleteProfile(ctx context.Context, id string) error {
	return e.profiles.Delete(ctx, id)
}

// UseProfile marks a profile as current; new researches without an
// explicit profile attach to it. Per prd001-research-lifecycle R5.3.
func (e *Engine) UseProfile(ctx context.Context, id string) error {
	if err := e.profiles.SetCurrent(ctx, id); err != nil {
		return err
	}
	e.logger.Info("current profile set", "id", id)
	return nil
}

// CurrentProfile returns the current profile, or a not_found error while
// none is set.
func (e *Engine) CurrentProfile(ctx context.Context) (*types.ResearchProfile, error) {
	return e.profiles.Current(ctx)
}
