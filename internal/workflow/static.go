// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/equity-engine/internal/analysis"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// Static stage names.
const (
	StageQuote        = "quote"
	StageHistory      = "history"
	StageFundamentals = "fundamentals"
	StageRegime       = "regime"
	StageRisk         = "risk"
	StageSummary      = "summary"
)

// riskVolWindow is the rolling window, in candles, for the risk stage's
// volatility banding.
const riskVolWindow = 21

// staticStages fixes presentation order and audience band per stage.
// Per prd004-workflow-execution R3.1, prd006-presentation R2.2.
var staticStages = []struct {
	name     string
	title    string
	audience types.Audience
}{
	{StageQuote, "Price Snapshot", types.EveryLevel()},
	{StageHistory, "Price History", types.EveryLevel()},
	{StageFundamentals, "Fundamentals", types.Audience{Min: types.LiteracyIntermediate}},
	{StageRegime, "Market Regime", types.Audience{Min: types.LiteracyAdvanced}},
	{StageRisk, "Risk", types.EveryLevel()},
	{StageSummary, "Summary", types.EveryLevel()},
}

// Static runs the fixed research pipeline: concurrent data fetches, then
// sequential analysis over what arrived. Output is deterministic for
// identical provider payloads. Per prd004-workflow-execution R3.
type Static struct{}

// NewStatic returns the static workflow executor.
func NewStatic() *Static { return &Static{} }

func (s *Static) Type() types.WorkflowType { return types.WorkflowStatic }

// Validate accepts any research with a symbol; static runs need no question.
func (s *Static) Validate(r *types.Research) error {
	if r.Symbol == "" {
		return types.NewError(types.KindValidation, "workflow.static", "research has no symbol")
	}
	return nil
}

// staticData holds the fetch phase output, one slot per stage.
type staticData struct {
	quote    types.Quote
	quoteErr error

	candles    []types.Candle
	historyErr error

	report  types.FundamentalsReport
	fundErr error
}

func (s *Static) Execute(ctx context.Context, r *types.Research, deps Deps) (*types.WorkflowResult, error) {
	executedAt := deps.now()
	required := requiredStages(deps.Config)
	log := deps.logger()

	var data staticData

	// Fetch phase: independent provider calls run concurrently. A required
	// stage failure cancels the group and aborts the run.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.quote, err = deps.Market.Quote(gctx, r.Symbol)
		return stageGate(StageQuote, err, &data.quoteErr, required)
	})
	g.Go(func() error {
		var err error
		data.candles, err = deps.Market.History(gctx, r.Symbol, r.Timeframe.HistoryDays(), r.Timeframe.CandleInterval())
		return stageGate(StageHistory, err, &data.historyErr, required)
	})
	g.Go(func() error {
		var err error
		data.report, err = deps.Fundamentals.Fundamentals(gctx, r.Symbol, r.Timeframe.FundamentalsPeriods(), r.Timeframe.FundamentalsFrequency())
		return stageGate(StageFundamentals, err, &data.fundErr, required)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Analysis phase, sequential: regime and risk consume the history,
	// the summary consumes everything.
	var regimeReport types.RegimeReport
	regimeErr := data.historyErr
	if regimeErr == nil {
		regimeReport, regimeErr = analysis.DetectRegime(data.candles)
	}
	if err := abortIfRequired(StageRegime, regimeErr, required); err != nil {
		return nil, err
	}

	var vol float64
	var volLevel analysis.VolatilityLevel
	riskErr := data.historyErr
	if riskErr == nil {
		vol, volLevel, riskErr = analysis.ClassifyVolatility(analysis.Closes(data.candles), riskVolWindow)
	}
	if err := abortIfRequired(StageRisk, riskErr, required); err != nil {
		return nil, err
	}

	// Assembly: sections in stage table order, failures recorded inline.
	sections := make([]types.Section, 0, len(staticStages))
	var failures []types.StageFailure
	record := func(name string, err error) {
		failures = append(failures, types.StageFailure{Stage: name, Message: err.Error()})
		log.Warn("stage failed", "stage", name, "error", err)
	}

	if data.quoteErr != nil {
		record(StageQuote, data.quoteErr)
	} else {
		sections = append(sections, staticSection(StageQuote, quoteBody(data.quote),
			map[string]any{"quote": data.quote}))
	}

	if data.historyErr != nil {
		record(StageHistory, data.historyErr)
	} else {
		summary := analysis.SummarizePrices(data.candles)
		sections = append(sections, staticSection(StageHistory, historyBody(summary, r.Timeframe.CandleInterval()),
			map[string]any{"summary": summary}))
	}

	if data.fundErr != nil {
		record(StageFundamentals, data.fundErr)
	} else {
		sections = append(sections, staticSection(StageFundamentals, fundamentalsBody(data.report),
			map[string]any{"report": data.report}))
	}

	if regimeErr != nil {
		record(StageRegime, regimeErr)
	} else {
		sections = append(sections, staticSection(StageRegime, regimeBody(regimeReport),
			map[string]any{"report": regimeReport}))
	}

	if riskErr != nil {
		record(StageRisk, riskErr)
	} else {
		sections = append(sections, staticSection(StageRisk, riskBody(vol, volLevel),
			map[string]any{"volatility": vol, "level": string(volLevel)}))
	}

	sections = append(sections, summarySection(r, data, regimeReport, regimeErr, volLevel, riskErr, failures))

	status := types.ResultFull
	if len(failures) > 0 {
		status = types.ResultPartial
	}
	log.Debug("static workflow done", "symbol", r.Symbol, "status", status, "failures", len(failures))

	return &types.WorkflowResult{
		Workflow:   types.WorkflowStatic,
		Symbol:     r.Symbol,
		Timeframe:  r.Timeframe,
		Status:     status,
		Sections:   sections,
		Failures:   failures,
		ExecutedAt: executedAt,
	}, nil
}

// requiredStages resolves the abort policy. Nil config means the default
// (the quote stage); an explicit empty list means nothing is required.
func requiredStages(cfg types.WorkflowConfig) map[string]bool {
	names := cfg.RequiredStages
	if names == nil {
		names = []string{StageQuote}
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// stageGate records a stage error into slot and decides whether it aborts
// the fetch group. Cancellation always aborts; otherwise only required
// stages do. The cause's kind is preserved for errors.Is checks.
func stageGate(name string, err error, slot *error, required map[string]bool) error {
	if err == nil {
		return nil
	}
	*slot = err
	if required[name] || isCancellation(err) {
		return requiredStageError(name, err)
	}
	return nil
}

func abortIfRequired(name string, err error, required map[string]bool) error {
	if err == nil || !required[name] {
		return nil
	}
	return requiredStageError(name, err)
}

func requiredStageError(name string, err error) error {
	kind := types.KindOf(err)
	if kind == "" {
		kind = types.KindProvider
	}
	return &types.EngineError{
		Kind:   kind,
		Op:     "workflow.static",
		Detail: fmt.Sprintf("required stage %s failed", name),
		Err:    err,
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, types.ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func staticSection(name, body string, data map[string]any) types.Section {
	for _, st := range staticStages {
		if st.name == name {
			return types.Section{Name: name, Title: st.title, Body: body, Data: data, Audience: st.audience}
		}
	}
	return types.Section{Name: name, Body: body, Data: data, Audience: types.EveryLevel()}
}

// --- section bodies ---

func quoteBody(q types.Quote) string {
	price := fmt.Sprintf("%.2f", q.Price)
	if q.Currency != "" {
		price += " " + q.Currency
	}
	b := fmt.Sprintf("%s trades at %s", q.Symbol, price)
	if q.PreviousClose > 0 {
		b += fmt.Sprintf(", %+.2f (%+.2f%%) against the previous close of %.2f", q.Change, q.ChangePercent, q.PreviousClose)
	}
	return b + "."
}

func historyBody(s analysis.PriceSummary, interval string) string {
	noun := "daily"
	if interval == "1wk" {
		noun = "weekly"
	}
	b := fmt.Sprintf("%d %s candles from %s to %s. The close moved from %.2f to %.2f (%+.2f%%), with a period high of %.2f and low of %.2f.",
		s.Points, noun, s.StartDate, s.EndDate, s.StartClose, s.EndClose, s.ChangePercent, s.PeriodHigh, s.PeriodLow)
	if s.PricePosition > 0.8 {
		b += " The price trades near its period high."
	} else if s.PricePosition < 0.2 {
		b += " The price trades near its period low."
	}
	return b
}

func fundamentalsBody(rep types.FundamentalsReport) string {
	if len(rep.Statements) == 0 {
		return "No financial statements were available for the requested window."
	}
	latest := rep.Statements[0]
	b := fmt.Sprintf("Latest %s statement (%s): revenue %s, net income %s, EPS %.2f.",
		rep.Frequency, latest.Period, money(latest.Revenue), money(latest.NetIncome), latest.EPS)
	if len(rep.Statements) > 1 && rep.Statements[1].Revenue != 0 {
		prev := rep.Statements[1]
		growth := (latest.Revenue - prev.Revenue) / math.Abs(prev.Revenue) * 100
		verb := "grew"
		if growth < 0 {
			verb = "shrank"
		}
		b += fmt.Sprintf(" Revenue %s %.1f%% against the prior period.", verb, math.Abs(growth))
	}
	return b
}

func regimeBody(rep types.RegimeReport) string {
	b := fmt.Sprintf("Trend regime: %s (%s confidence). Volatility-scaled momentum %.2f at %.1f%% annualized volatility.",
		rep.Regime, rep.Confidence, rep.Momentum, rep.Volatility*100)
	if rep.MA50 > 0 && rep.MA200 > 0 {
		b += fmt.Sprintf(" The short moving average sits at %.2f against %.2f for the long window.", rep.MA50, rep.MA200)
	}
	if rep.RSI > 0 {
		b += fmt.Sprintf(" RSI(14) reads %.1f.", rep.RSI)
	}
	return b
}

func riskBody(vol float64, level analysis.VolatilityLevel) string {
	b := fmt.Sprintf("Annualized volatility of %.1f%% is %s relative to the trailing period.", vol*100, level)
	switch level {
	case analysis.VolatilityHigh:
		b += " Expect wider price swings than usual."
	case analysis.VolatilityLow:
		b += " Price swings have been unusually narrow."
	}
	return b
}

func summarySection(r *types.Research, data staticData, regime types.RegimeReport, regimeErr error,
	volLevel analysis.VolatilityLevel, riskErr error, failures []types.StageFailure) types.Section {

	var parts []string
	if data.quoteErr == nil {
		parts = append(parts, fmt.Sprintf("%s trades at %.2f (%+.2f%% on the day).",
			r.Symbol, data.quote.Price, data.quote.ChangePercent))
	}
	if data.historyErr == nil {
		s := analysis.SummarizePrices(data.candles)
		parts = append(parts, fmt.Sprintf("Over the %s window the close moved %+.2f%%.",
			strings.ReplaceAll(string(r.Timeframe), "_", " "), s.ChangePercent))
	}
	if regimeErr == nil {
		parts = append(parts, fmt.Sprintf("The trend reads %s with %s confidence.", regime.Regime, regime.Confidence))
	}
	if riskErr == nil {
		parts = append(parts, fmt.Sprintf("Volatility is %s.", volLevel))
	}
	if data.fundErr == nil && len(data.report.Statements) > 0 {
		parts = append(parts, fmt.Sprintf("Latest reported revenue came in at %s.", money(data.report.Statements[0].Revenue)))
	}
	if len(failures) > 0 {
		names := make([]string, len(failures))
		for i, f := range failures {
			names[i] = f.Stage
		}
		parts = append(parts, fmt.Sprintf("Some data was unavailable (%s); the picture above is incomplete.",
			strings.Join(names, ", ")))
	}

	completed := make([]string, 0, len(staticStages))
	for _, st := range staticStages {
		if !stageFailed(st.name, failures) && st.name != StageSummary {
			completed = append(completed, st.name)
		}
	}

	return staticSection(StageSummary, strings.Join(parts, " "),
		map[string]any{"completed_stages": completed})
}

func stageFailed(name string, failures []types.StageFailure) bool {
	for _, f := range failures {
		if f.Stage == name {
			return true
		}
	}
	return false
}

// money renders large amounts compactly (391.04B style).
func money(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
