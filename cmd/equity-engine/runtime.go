// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdiddy/equity-engine/internal/cache"
	"github.com/pdiddy/equity-engine/internal/engine"
	"github.com/pdiddy/equity-engine/internal/llm"
	"github.com/pdiddy/equity-engine/internal/provider"
	"github.com/pdiddy/equity-engine/internal/repo"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// runtime holds the wired components behind one CLI invocation. Commands
// build it after config resolution and close it when done.
type runtime struct {
	cfg    types.EngineConfig
	logger *slog.Logger
	engine *engine.Engine
	market provider.MarketData
	cache  *cache.Cache

	closers []func() error
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close failed", "error", err)
		}
	}
}

// buildRuntime wires storage, cache, providers, the LLM, and the engine
// from the resolved config. Per prd007-cli R3.
func buildRuntime() (*runtime, error) {
	logger := newLogger(engineCfg.Logging.Level)
	rt := &runtime{cfg: engineCfg, logger: logger}

	var researches repo.ResearchRepo
	var profiles repo.ProfileRepo
	switch engineCfg.Storage.Type {
	case types.StorageMemory:
		researches = repo.NewMemoryResearch()
		profiles = repo.NewMemoryProfiles()
	case types.StorageSQLite, "":
		store, err := repo.Open(engineCfg.Storage)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		researches = store.Research()
		profiles = store.Profiles()
	default:
		return nil, types.NewError(types.KindValidation, "cli",
			fmt.Sprintf("unknown storage type %q: use memory or sqlite", engineCfg.Storage.Type))
	}

	var backend cache.Backend
	switch engineCfg.Cache.Backend {
	case types.CacheMemory:
		backend = cache.NewMemory()
	case types.CacheFile, "":
		fileBackend, err := cache.NewFile(cacheDir(engineCfg))
		if err != nil {
			return nil, err
		}
		backend = fileBackend
	default:
		return nil, types.NewError(types.KindValidation, "cli",
			fmt.Sprintf("unknown cache backend %q: use memory or file", engineCfg.Cache.Backend))
	}
	rt.cache = cache.New(backend, engineCfg.Cache.DefaultTTL, logger)

	snapshots := provider.NewSnapshot(snapshotDir(engineCfg))
	cached := provider.NewCached(snapshots, snapshots, rt.cache, engineCfg.Cache)
	rt.market = cached

	// Static research works without a model; agentic runs report the
	// missing configuration when they need it.
	model, err := llm.DefaultRegistry().New(engineCfg.LLM)
	if err != nil {
		logger.Debug("llm provider unavailable", "error", err)
		model = nil
	}

	rt.engine = engine.New(engineCfg, researches, profiles, cached, cached, model,
		engine.WithLogger(logger))
	return rt, nil
}

func cacheDir(cfg types.EngineConfig) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	return filepath.Join(storageDir(cfg), "cache")
}

func snapshotDir(cfg types.EngineConfig) string {
	if cfg.Provider.SnapshotDir != "" {
		return cfg.Provider.SnapshotDir
	}
	return filepath.Join(storageDir(cfg), "snapshots")
}

func storageDir(cfg types.EngineConfig) string {
	if cfg.Storage.Dir != "" {
		return cfg.Storage.Dir
	}
	return ".equity-engine"
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
