// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes expensive provider and analyzer calls under
// content-addressed fingerprints.
// Implements: prd002-caching (R1-R6);
//
//	docs/ARCHITECTURE § Cache Layer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// timeNow is the clock for expiry checks. Tests override it.
var timeNow = time.Now

// Entry is one stored computation result. Payload is the JSON encoding of
// the computed value. Per prd002-caching R2.2.
type Entry struct {
	// Fingerprint is the content-addressed key.
	Fingerprint string `json:"fingerprint"`

	// Operation is the operation id the entry belongs to.
	Operation string `json:"operation"`

	// Payload is the JSON-encoded computation result.
	Payload json.RawMessage `json:"payload"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// TTL bounds the entry's staleness. Zero or negative never expires.
	TTL time.Duration `json:"ttl"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.StoredAt.Add(e.TTL))
}

// Stats summarizes cache activity since construction.
// Per prd002-caching R6.1.
type Stats struct {
	// Entries is the number of stored entries, expired ones included.
	Entries int `json:"entries" yaml:"entries"`

	// Hits and Misses count lookups since the cache was constructed.
	Hits   int64 `json:"hits" yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`

	// Evictions counts entries removed by expiry or sweeps.
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// Backend stores cache entries. Implementations are safe for concurrent use
// within one process. Per prd002-caching R5.
type Backend interface {
	// Get returns the entry for a fingerprint, if present.
	Get(fingerprint string) (Entry, bool, error)

	// Put stores an entry, replacing any previous one.
	Put(e Entry) error

	// Delete removes an entry. Deleting an absent entry is not an error.
	Delete(fingerprint string) error

	// Len is the number of stored entries, expired ones included.
	Len() (int, error)

	// Sweep removes every entry expired at the given instant and returns
	// how many were removed.
	Sweep(now time.Time) (int, error)

	// Clear removes all entries and returns how many were removed.
	Clear() (int, error)
}

// Cache coordinates lookups, single-flight computation, and storage over a
// Backend. Errors from compute functions are returned to callers and never
// stored. Per prd002-caching R2-R3.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
	logger     *slog.Logger

	group     singleflight.Group
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New builds a Cache over a backend. defaultTTL applies to calls that pass a
// non-positive TTL; a non-positive defaultTTL falls back to one hour. A nil
// logger uses slog.Default.
func New(backend Backend, defaultTTL time.Duration, logger *slog.Logger) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL, logger: logger}
}

// GetOrCompute returns the cached payload for (operation, args) or runs
// compute to produce it. Properties, per prd002-caching R2-R3:
//
//   - an unexpired entry is returned without invoking compute;
//   - at most one compute per fingerprint is in flight at a time, and
//     concurrent callers share its outcome;
//   - compute errors are returned, never stored;
//   - a caller whose ctx ends stops waiting with a cancelled error, while
//     the in-flight compute finishes on a detached context and still
//     populates the cache for later callers.
func (c *Cache) GetOrCompute(ctx context.Context, operation string, args map[string]any, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	fp, err := Fingerprint(operation, args)
	if err != nil {
		return nil, types.WrapError(types.KindValidation, "cache.GetOrCompute", err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if payload, ok := c.lookup(fp); ok {
		return payload, nil
	}

	ch := c.group.DoChan(fp, func() (any, error) {
		payload, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(fp, operation, ttl, payload)
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, types.WrapError(types.KindCancelled, "cache.GetOrCompute", ctx.Err())
	}
}

// lookup returns an unexpired payload and updates hit/miss/eviction
// counters. Expired entries are removed on access (lazy eviction).
func (c *Cache) lookup(fp string) ([]byte, bool) {
	entry, ok, err := c.backend.Get(fp)
	if err != nil {
		c.logger.Warn("cache read failed", "fingerprint", fp, "error", err)
	}
	if ok && !entry.Expired(timeNow()) {
		c.hits.Add(1)
		return entry.Payload, true
	}
	if ok {
		c.evictions.Add(1)
		if err := c.backend.Delete(fp); err != nil {
			c.logger.Warn("cache eviction failed", "fingerprint", fp, "error", err)
		}
	}
	c.misses.Add(1)
	return nil, false
}

// store writes an entry. Storage failures are logged, not returned; the
// computed value is still handed to the caller.
func (c *Cache) store(fp, operation string, ttl time.Duration, payload []byte) {
	entry := Entry{
		Fingerprint: fp,
		Operation:   operation,
		Payload:     payload,
		StoredAt:    timeNow(),
		TTL:         ttl,
	}
	if err := c.backend.Put(entry); err != nil {
		c.logger.Warn("cache write failed", "fingerprint", fp, "error", err)
	}
}

// Sweep removes every expired entry. Per prd002-caching R4.3.
func (c *Cache) Sweep() (int, error) {
	n, err := c.backend.Sweep(timeNow())
	c.evictions.Add(int64(n))
	if err != nil {
		return n, fmt.Errorf("sweeping cache: %w", err)
	}
	return n, nil
}

// Clear removes all entries. Per prd002-caching R6.2.
func (c *Cache) Clear() (int, error) {
	n, err := c.backend.Clear()
	if err != nil {
		return n, fmt.Errorf("clearing cache: %w", err)
	}
	return n, nil
}

// Stats reports entry count and lookup counters.
func (c *Cache) Stats() Stats {
	entries, err := c.backend.Len()
	if err != nil {
		c.logger.Warn("cache stats failed", "error", err)
	}
	return Stats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// GetTyped adapts GetOrCompute to a typed compute function, handling the
// JSON round-trip through the cache payload.
func GetTyped[T any](ctx context.Context, c *Cache, operation string, args map[string]any, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	payload, err := c.GetOrCompute(ctx, operation, args, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", operation, err)
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return zero, fmt.Errorf("decoding cached %s payload: %w", operation, err)
	}
	return v, nil
}
