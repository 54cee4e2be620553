// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider defines the market data ports and their local
// implementations. Networked data sources live behind the same ports and
// are out of scope here; the snapshot provider serves deterministic
// fixtures from disk.
// Implements: prd003-data-providers (R1-R4);
//
//	docs/ARCHITECTURE § Data Providers.
package provider

import (
	"context"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Cache operation ids. types.CacheConfig.TTLFor resolves per-operation TTLs
// against these values.
const (
	OpQuote        = "market.quote"
	OpHistory      = "market.history"
	OpCompany      = "market.company"
	OpFundamentals = "fundamentals.report"
)

// MarketData serves price and company information for a symbol.
// Implementations return not_found errors for unknown symbols and
// provider errors for source failures. Per prd003-data-providers R1.
type MarketData interface {
	// Quote returns the latest price snapshot.
	Quote(ctx context.Context, symbol string) (types.Quote, error)

	// History returns OHLCV candles covering the trailing window of the
	// given number of days at the given interval ("1d" or "1wk"), oldest
	// first.
	History(ctx context.Context, symbol string, days int, interval string) ([]types.Candle, error)

	// Company returns descriptive information about the symbol's issuer.
	Company(ctx context.Context, symbol string) (types.CompanyInfo, error)
}

// Fundamentals serves financial statement summaries for a symbol.
// Per prd003-data-providers R1.5.
type Fundamentals interface {
	// Fundamentals returns up to periods statement summaries at the given
	// cadence, newest first.
	Fundamentals(ctx context.Context, symbol string, periods int, freq types.ReportFrequency) (types.FundamentalsReport, error)
}
