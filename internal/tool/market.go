// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/equity-engine/internal/analysis"
	"github.com/pdiddy/equity-engine/internal/provider"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Defaults for optional tool arguments.
const (
	defaultHistoryDays = 180
	defaultRegimeDays  = 365
	defaultPeriods     = 4
	maxPeriods         = 12
	recentCandles      = 10
)

// DefaultRegistry builds the standard tool set over the given providers.
// Tool names double as cache operation ids, so a planner retry of the same
// call lands on the cached payload. Per prd004-workflow-execution R4.2.
func DefaultRegistry(market provider.MarketData, fundamentals provider.Fundamentals) *Registry {
	r := NewRegistry()
	r.Register(&quoteTool{market: market})
	r.Register(&historyTool{market: market})
	r.Register(&companyTool{market: market})
	r.Register(&fundamentalsTool{fundamentals: fundamentals})
	r.Register(&regimeTool{market: market})
	return r
}

// --- market.quote ---

type quoteTool struct {
	market provider.MarketData
}

func (t *quoteTool) Name() string { return provider.OpQuote }

func (t *quoteTool) Description() string {
	return "Latest price quote for a stock. Args: symbol (string, required)."
}

func (t *quoteTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol, err := symbolArg(args)
	if err != nil {
		return nil, err
	}
	quote, err := t.market.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return encode(quote)
}

// --- market.history ---

type historyTool struct {
	market provider.MarketData
}

func (t *historyTool) Name() string { return provider.OpHistory }

func (t *historyTool) Description() string {
	return "Historical price summary for a stock. Args: symbol (string, required); " +
		"days (integer, default 180); interval (string, 1d or 1wk, default 1d)."
}

func (t *historyTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol, err := symbolArg(args)
	if err != nil {
		return nil, err
	}
	days, err := intArg(args, "days", defaultHistoryDays)
	if err != nil {
		return nil, err
	}
	interval, err := stringArg(args, "interval", "1d")
	if err != nil {
		return nil, err
	}
	if interval != "1d" && interval != "1wk" {
		return nil, types.NewError(types.KindValidation, "tool.args",
			fmt.Sprintf("interval must be 1d or 1wk, got %q", interval))
	}
	candles, err := t.market.History(ctx, symbol, days, interval)
	if err != nil {
		return nil, err
	}
	return historySummary(symbol, candles), nil
}

// historySummary condenses a candle series into a prompt-sized observation:
// period aggregates plus the most recent candles. Full series would blow
// the planning context for long windows.
func historySummary(symbol string, candles []types.Candle) map[string]any {
	s := analysis.SummarizePrices(candles)
	out := map[string]any{
		"symbol": symbol,
		"points": s.Points,
	}
	if s.Points == 0 {
		return out
	}
	out["start_date"] = s.StartDate
	out["end_date"] = s.EndDate
	out["start_close"] = s.StartClose
	out["end_close"] = s.EndClose
	out["period_high"] = s.PeriodHigh
	out["period_low"] = s.PeriodLow
	out["change_percent"] = s.ChangePercent
	recent := candles
	if len(recent) > recentCandles {
		recent = recent[len(recent)-recentCandles:]
	}
	out["recent"] = recent
	return out
}

// --- market.company ---

type companyTool struct {
	market provider.MarketData
}

func (t *companyTool) Name() string { return provider.OpCompany }

func (t *companyTool) Description() string {
	return "Company profile (name, exchange, sector, industry). Args: symbol (string, required)."
}

func (t *companyTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol, err := symbolArg(args)
	if err != nil {
		return nil, err
	}
	info, err := t.market.Company(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return encode(info)
}

// --- fundamentals.report ---

type fundamentalsTool struct {
	fundamentals provider.Fundamentals
}

func (t *fundamentalsTool) Name() string { return provider.OpFundamentals }

func (t *fundamentalsTool) Description() string {
	return "Financial statement summary (revenue, net income, EPS). Args: symbol (string, required); " +
		"frequency (string, quarterly or annual, default quarterly); periods (integer, default 4)."
}

func (t *fundamentalsTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol, err := symbolArg(args)
	if err != nil {
		return nil, err
	}
	freqStr, err := stringArg(args, "frequency", string(types.FrequencyQuarterly))
	if err != nil {
		return nil, err
	}
	freq := types.ReportFrequency(freqStr)
	if freq != types.FrequencyQuarterly && freq != types.FrequencyAnnual {
		return nil, types.NewError(types.KindValidation, "tool.args",
			fmt.Sprintf("frequency must be quarterly or annual, got %q", freqStr))
	}
	periods, err := intArg(args, "periods", defaultPeriods)
	if err != nil {
		return nil, err
	}
	if periods > maxPeriods {
		periods = maxPeriods
	}
	report, err := t.fundamentals.Fundamentals(ctx, symbol, periods, freq)
	if err != nil {
		return nil, err
	}
	return encode(report)
}

// --- analysis.regime ---

type regimeTool struct {
	market provider.MarketData
}

func (t *regimeTool) Name() string { return "analysis.regime" }

func (t *regimeTool) Description() string {
	return "Trend regime classification (bull, bear, neutral) with confidence, from daily price history. " +
		"Args: symbol (string, required); days (integer, default 365)."
}

func (t *regimeTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol, err := symbolArg(args)
	if err != nil {
		return nil, err
	}
	days, err := intArg(args, "days", defaultRegimeDays)
	if err != nil {
		return nil, err
	}
	candles, err := t.market.History(ctx, symbol, days, "1d")
	if err != nil {
		return nil, err
	}
	report, err := analysis.DetectRegime(candles)
	if err != nil {
		return nil, err
	}
	return encode(report)
}

// --- argument helpers ---

func symbolArg(args map[string]any) (string, error) {
	raw, err := stringArg(args, "symbol", "")
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", types.NewError(types.KindValidation, "tool.args", "missing required argument symbol")
	}
	return types.NormalizeSymbol(raw)
}

func stringArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", types.NewError(types.KindValidation, "tool.args",
			fmt.Sprintf("argument %s must be a string", key))
	}
	return s, nil
}

// intArg accepts JSON numbers (float64 after unmarshalling) and ints, and
// rejects non-positive values.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case int:
		n = x
	default:
		return 0, types.NewError(types.KindValidation, "tool.args",
			fmt.Sprintf("argument %s must be a number", key))
	}
	if n <= 0 {
		return 0, types.NewError(types.KindValidation, "tool.args",
			fmt.Sprintf("argument %s must be positive", key))
	}
	return n, nil
}

// encode round-trips a typed value through JSON into a generic map so
// observations serialize with the type's wire tags.
func encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, types.WrapError(types.KindAnalysis, "tool.encode", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, types.WrapError(types.KindAnalysis, "tool.encode", err)
	}
	return out, nil
}
