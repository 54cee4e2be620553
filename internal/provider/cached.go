// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"

	"github.com/pdiddy/equity-engine/internal/cache"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Cached decorates a MarketData and Fundamentals pair with the cache layer.
// Every call becomes a fingerprinted get-or-compute, so workflows issue
// provider calls through one path regardless of executor type.
// Per prd003-data-providers R3, prd002-caching R2.1.
type Cached struct {
	market       MarketData
	fundamentals Fundamentals
	cache        *cache.Cache
	ttls         types.CacheConfig
}

// NewCached wraps the given providers with cached lookups. TTLs come from
// the cache configuration's per-operation settings.
func NewCached(market MarketData, fundamentals Fundamentals, c *cache.Cache, ttls types.CacheConfig) *Cached {
	return &Cached{market: market, fundamentals: fundamentals, cache: c, ttls: ttls}
}

func (c *Cached) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	return cache.GetTyped(ctx, c.cache, OpQuote,
		map[string]any{"symbol": symbol},
		c.ttls.TTLFor(OpQuote),
		func(ctx context.Context) (types.Quote, error) {
			return c.market.Quote(ctx, symbol)
		})
}

func (c *Cached) History(ctx context.Context, symbol string, days int, interval string) ([]types.Candle, error) {
	return cache.GetTyped(ctx, c.cache, OpHistory,
		map[string]any{"symbol": symbol, "days": days, "interval": interval},
		c.ttls.TTLFor(OpHistory),
		func(ctx context.Context) ([]types.Candle, error) {
			return c.market.History(ctx, symbol, days, interval)
		})
}

func (c *Cached) Company(ctx context.Context, symbol string) (types.CompanyInfo, error) {
	return cache.GetTyped(ctx, c.cache, OpCompany,
		map[string]any{"symbol": symbol},
		c.ttls.TTLFor(OpCompany),
		func(ctx context.Context) (types.CompanyInfo, error) {
			return c.market.Company(ctx, symbol)
		})
}

func (c *Cached) Fundamentals(ctx context.Context, symbol string, periods int, freq types.ReportFrequency) (types.FundamentalsReport, error) {
	return cache.GetTyped(ctx, c.cache, OpFundamentals,
		map[string]any{"symbol": symbol, "periods": periods, "frequency": string(freq)},
		c.ttls.TTLFor(OpFundamentals),
		func(ctx context.Context) (types.FundamentalsReport, error) {
			return c.fundamentals.Fundamentals(ctx, symbol, periods, freq)
		})
}
