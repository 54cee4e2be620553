// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/equity-engine/internal/cache"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// countingProvider is a MarketData and Fundamentals double with call counters.
type countingProvider struct {
	quoteCalls        int
	historyCalls      int
	companyCalls      int
	fundamentalsCalls int
}

func (p *countingProvider) Quote(_ context.Context, symbol string) (types.Quote, error) {
	p.quoteCalls++
	return types.Quote{Symbol: symbol, Price: 100, Currency: "USD"}, nil
}

func (p *countingProvider) History(_ context.Context, _ string, days int, _ string) ([]types.Candle, error) {
	p.historyCalls++
	out := make([]types.Candle, days)
	for i := 0; i < days; i++ {
		out[i] = types.Candle{Date: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC), Close: 100}
	}
	return out, nil
}

func (p *countingProvider) Company(_ context.Context, symbol string) (types.CompanyInfo, error) {
	p.companyCalls++
	return types.CompanyInfo{Symbol: symbol, Name: "Test Corp"}, nil
}

func (p *countingProvider) Fundamentals(_ context.Context, symbol string, periods int, freq types.ReportFrequency) (types.FundamentalsReport, error) {
	p.fundamentalsCalls++
	return types.FundamentalsReport{Symbol: symbol, Frequency: freq,
		Statements: make([]types.StatementPeriod, periods)}, nil
}

func TestCachedProviderMemoizes(t *testing.T) {
	inner := &countingProvider{}
	c := cache.New(cache.NewMemory(), time.Hour, nil)
	p := NewCached(inner, inner, c, types.CacheConfig{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := p.Quote(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
	}
	assert.Equal(t, 1, inner.quoteCalls)

	for i := 0; i < 2; i++ {
		_, err := p.Company(ctx, "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.companyCalls)

	for i := 0; i < 2; i++ {
		rep, err := p.Fundamentals(ctx, "AAPL", 4, types.FrequencyQuarterly)
		require.NoError(t, err)
		assert.Len(t, rep.Statements, 4)
	}
	assert.Equal(t, 1, inner.fundamentalsCalls)
}

func TestCachedProviderSeparatesArguments(t *testing.T) {
	inner := &countingProvider{}
	c := cache.New(cache.NewMemory(), time.Hour, nil)
	p := NewCached(inner, inner, c, types.CacheConfig{})
	ctx := context.Background()

	short, err := p.History(ctx, "AAPL", 30, "1d")
	require.NoError(t, err)
	long, err := p.History(ctx, "AAPL", 180, "1d")
	require.NoError(t, err)

	assert.Len(t, short, 30)
	assert.Len(t, long, 180)
	assert.Equal(t, 2, inner.historyCalls)

	// Same window again is a hit.
	_, err = p.History(ctx, "AAPL", 30, "1d")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.historyCalls)

	// A different symbol is a distinct entry.
	_, err = p.Quote(ctx, "AAPL")
	require.NoError(t, err)
	_, err = p.Quote(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.quoteCalls)
}
