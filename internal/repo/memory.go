// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// MemoryResearch is an in-memory ResearchRepo. Records are copied on the
// way in and out so callers never share mutable state with the store.
type MemoryResearch struct {
	mu      sync.RWMutex
	records map[string]*types.Research
}

// NewMemoryResearch returns an empty in-memory research repository.
func NewMemoryResearch() *MemoryResearch {
	return &MemoryResearch{records: make(map[string]*types.Research)}
}

func (m *MemoryResearch) Save(_ context.Context, r *types.Research) error {
	if r.ID == "" {
		return types.NewError(types.KindValidation, "repo.MemoryResearch.Save", "research has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = copyResearch(r)
	return nil
}

func (m *MemoryResearch) Get(_ context.Context, id string) (*types.Research, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "repo.MemoryResearch.Get", fmt.Sprintf("research %s not found", id))
	}
	return copyResearch(r), nil
}

func (m *MemoryResearch) List(_ context.Context, f ResearchFilter) ([]*types.Research, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Research
	for _, r := range m.records {
		if f.matches(r) {
			out = append(out, copyResearch(r))
		}
	}
	// Newest first, id as tiebreaker for a stable order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryResearch) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return types.NewError(types.KindNotFound, "repo.MemoryResearch.Delete", fmt.Sprintf("research %s not found", id))
	}
	delete(m.records, id)
	return nil
}

// MemoryProfiles is an in-memory ProfileRepo with a current-profile pointer.
type MemoryProfiles struct {
	mu      sync.RWMutex
	records map[string]*types.ResearchProfile
	current string
}

// NewMemoryProfiles returns an empty in-memory profile repository.
func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{records: make(map[string]*types.ResearchProfile)}
}

func (m *MemoryProfiles) Save(_ context.Context, p *types.ResearchProfile) error {
	if p.ID == "" {
		return types.NewError(types.KindValidation, "repo.MemoryProfiles.Save", "profile has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[p.ID] = copyProfile(p)
	return nil
}

func (m *MemoryProfiles) Get(_ context.Context, id string) (*types.ResearchProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.records[id]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "repo.MemoryProfiles.Get", fmt.Sprintf("profile %s not found", id))
	}
	return copyProfile(p), nil
}

func (m *MemoryProfiles) List(_ context.Context) ([]*types.ResearchProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.ResearchProfile, 0, len(m.records))
	for _, p := range m.records {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (m *MemoryProfiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return types.NewError(types.KindNotFound, "repo.MemoryProfiles.Delete", fmt.Sprintf("profile %s not found", id))
	}
	delete(m.records, id)
	if m.current == id {
		m.current = ""
	}
	return nil
}

func (m *MemoryProfiles) SetCurrent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return types.NewError(types.KindNotFound, "repo.MemoryProfiles.SetCurrent", fmt.Sprintf("profile %s not found", id))
	}
	m.current = id
	return nil
}

func (m *MemoryProfiles) Current(_ context.Context) (*types.ResearchProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == "" {
		return nil, types.NewError(types.KindNotFound, "repo.MemoryProfiles.Current", "no current profile set")
	}
	p, ok := m.records[m.current]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "repo.MemoryProfiles.Current", "current profile no longer exists")
	}
	return copyProfile(p), nil
}

func copyResearch(r *types.Research) *types.Research {
	out := *r
	if r.Parameters != nil {
		out.Parameters = make(map[string]any, len(r.Parameters))
		for k, v := range r.Parameters {
			out.Parameters[k] = v
		}
	}
	if r.Result != nil {
		out.Result = copyResult(r.Result)
	}
	return &out
}

func copyResult(res *types.WorkflowResult) *types.WorkflowResult {
	out := *res
	out.Sections = make([]types.Section, len(res.Sections))
	copy(out.Sections, res.Sections)
	for i := range out.Sections {
		if d := res.Sections[i].Data; d != nil {
			m := make(map[string]any, len(d))
			for k, v := range d {
				m[k] = v
			}
			out.Sections[i].Data = m
		}
	}
	out.Failures = append([]types.StageFailure(nil), res.Failures...)
	return &out
}

func copyProfile(p *types.ResearchProfile) *types.ResearchProfile {
	out := *p
	if p.Preferences != nil {
		out.Preferences = make(map[string]string, len(p.Preferences))
		for k, v := range p.Preferences {
			out.Preferences[k] = v
		}
	}
	return &out
}
