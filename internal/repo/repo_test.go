// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/equity-engine/pkg/types"
)

var repoNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

// eachBackend runs a subtest against the memory and sqlite repositories.
func eachBackend(t *testing.T, fn func(t *testing.T, rr ResearchRepo, pr ProfileRepo)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryResearch(), NewMemoryProfiles())
	})
	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(types.StorageConfig{Type: types.StorageSQLite, Dir: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		fn(t, store.Research(), store.Profiles())
	})
}

func mkResearch(t *testing.T, symbol string, created time.Time) *types.Research {
	t.Helper()
	r, err := types.NewResearch(types.ResearchSpec{
		Symbol:     symbol,
		Question:   "is it a buy?",
		Workflow:   types.WorkflowStatic,
		Parameters: map[string]any{"depth": "full"},
	}, created)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestResearchRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, rr ResearchRepo, _ ProfileRepo) {
		ctx := context.Background()
		r := mkResearch(t, "AAPL", repoNow)

		if err := rr.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := rr.Get(ctx, r.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Symbol != "AAPL" || got.Status != types.StatusPending || got.Question != "is it a buy?" {
			t.Errorf("research mutated through storage: %+v", got)
		}
		if got.Parameters["depth"] != "full" {
			t.Errorf("parameters lost: %v", got.Parameters)
		}
		if !got.CreatedAt.Equal(repoNow) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, repoNow)
		}
	})
}

func TestResearchTerminalStatePersistsAtomically(t *testing.T) {
	eachBackend(t, func(t *testing.T, rr ResearchRepo, _ ProfileRepo) {
		ctx := context.Background()
		r := mkResearch(t, "MSFT", repoNow)
		if err := rr.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := r.Start(repoNow); err != nil {
			t.Fatal(err)
		}
		result := &types.WorkflowResult{
			Workflow: types.WorkflowStatic,
			Symbol:   "MSFT",
			Status:   types.ResultFull,
			Sections: []types.Section{{
				Name:     "quote",
				Title:    "Current quote",
				Body:     "MSFT trades at 512.30.",
				Data:     map[string]any{"price": 512.30},
				Audience: types.EveryLevel(),
			}},
			ExecutedAt: repoNow,
		}
		if err := r.Complete(result, repoNow.Add(time.Second)); err != nil {
			t.Fatal(err)
		}
		if err := rr.Save(ctx, r); err != nil {
			t.Fatalf("Save terminal: %v", err)
		}

		got, err := rr.Get(ctx, r.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != types.StatusCompleted {
			t.Fatalf("Status = %q, want completed", got.Status)
		}
		if got.Result == nil || len(got.Result.Sections) != 1 {
			t.Fatal("result not stored with completed status")
		}
		if got.Result.Sections[0].Name != "quote" {
			t.Errorf("section lost: %+v", got.Result.Sections[0])
		}
	})
}

func TestResearchGetNotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, rr ResearchRepo, _ ProfileRepo) {
		_, err := rr.Get(context.Background(), "res-missing")
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("error = %v, want not_found", err)
		}
		if err := rr.Delete(context.Background(), "res-missing"); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("Delete error = %v, want not_found", err)
		}
	})
}

func TestResearchListFiltersAndOrders(t *testing.T) {
	eachBackend(t, func(t *testing.T, rr ResearchRepo, _ ProfileRepo) {
		ctx := context.Background()
		oldest := mkResearch(t, "AAPL", repoNow.Add(-2*time.Hour))
		middle := mkResearch(t, "MSFT", repoNow.Add(-time.Hour))
		newest := mkResearch(t, "AAPL", repoNow)
		for _, r := range []*types.Research{oldest, middle, newest} {
			if err := rr.Save(ctx, r); err != nil {
				t.Fatal(err)
			}
		}

		all, err := rr.List(ctx, ResearchFilter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("List returned %d, want 3", len(all))
		}
		if all[0].ID != newest.ID || all[2].ID != oldest.ID {
			t.Error("List not ordered newest first")
		}

		apple, err := rr.List(ctx, ResearchFilter{Symbol: "AAPL"})
		if err != nil {
			t.Fatal(err)
		}
		if len(apple) != 2 {
			t.Errorf("symbol filter returned %d, want 2", len(apple))
		}

		pending, err := rr.List(ctx, ResearchFilter{Status: types.StatusPending})
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 3 {
			t.Errorf("status filter returned %d, want 3", len(pending))
		}
	})
}

func TestMemoryResearchCopiesRecords(t *testing.T) {
	ctx := context.Background()
	rr := NewMemoryResearch()
	r := mkResearch(t, "AAPL", repoNow)
	if err := rr.Save(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	r.Symbol = "HACK"
	r.Parameters["depth"] = "mutated"

	got, err := rr.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "AAPL" || got.Parameters["depth"] != "full" {
		t.Errorf("stored record shares state with caller: %+v", got)
	}
}

func TestProfileRoundTripAndCurrent(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ ResearchRepo, pr ProfileRepo) {
		ctx := context.Background()

		if _, err := pr.Current(ctx); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("Current before set: error = %v, want not_found", err)
		}

		novice, err := types.NewProfile("Novice", types.LiteracyBeginner, repoNow)
		if err != nil {
			t.Fatal(err)
		}
		novice.Preferences = map[string]string{"tone": "plain"}
		expert, err := types.NewProfile("Expert", types.LiteracyAdvanced, repoNow)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range []*types.ResearchProfile{novice, expert} {
			if err := pr.Save(ctx, p); err != nil {
				t.Fatal(err)
			}
		}

		if err := pr.SetCurrent(ctx, expert.ID); err != nil {
			t.Fatalf("SetCurrent: %v", err)
		}
		cur, err := pr.Current(ctx)
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		if cur.ID != expert.ID || cur.Literacy != types.LiteracyAdvanced {
			t.Errorf("Current = %+v, want expert profile", cur)
		}

		got, err := pr.Get(ctx, novice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Preferences["tone"] != "plain" {
			t.Errorf("preferences lost: %v", got.Preferences)
		}

		all, err := pr.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Errorf("List returned %d, want 2", len(all))
		}

		if err := pr.SetCurrent(ctx, "prof-missing"); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("SetCurrent on missing profile: error = %v, want not_found", err)
		}
	})
}

func TestProfileDeleteClearsCurrentPointer(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ ResearchRepo, pr ProfileRepo) {
		ctx := context.Background()
		p, err := types.NewProfile("Transient", types.LiteracyIntermediate, repoNow)
		if err != nil {
			t.Fatal(err)
		}
		if err := pr.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
		if err := pr.SetCurrent(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
		if err := pr.Delete(ctx, p.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := pr.Current(ctx); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("Current after delete: error = %v, want not_found", err)
		}
	})
}

func TestOpenCreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(types.StorageConfig{Type: types.StorageSQLite, Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
