// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/equity-engine/internal/cache"
	"github.com/pdiddy/equity-engine/internal/llm"
	"github.com/pdiddy/equity-engine/internal/provider"
	"github.com/pdiddy/equity-engine/internal/tool"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// scriptedLLM replays canned responses in order and records every request
// it saw.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
	systems   []string
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	s.systems = append(s.systems, req.System)
	if len(s.responses) == 0 {
		return llm.Response{}, types.NewError(types.KindProvider, "scripted", "script exhausted")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return llm.Response{Content: next, Model: "scripted-1", TotalTokens: 42}, nil
}

const quoteCall = `{"tool": "market.quote", "args": {"symbol": "NVDA"}}`

func agenticDeps(p *stubProviders, model llm.Provider) Deps {
	return Deps{
		Market:       p,
		Fundamentals: p,
		Tools:        tool.DefaultRegistry(p, p),
		LLM:          model,
		Now:          func() time.Time { return testClock },
	}
}

func agenticResearch(t *testing.T, question string) *types.Research {
	t.Helper()
	r, err := types.NewResearch(types.ResearchSpec{
		Symbol:   "NVDA",
		Workflow: types.WorkflowAgentic,
		Question: question,
	}, testClock)
	require.NoError(t, err)
	return r
}

func TestAgenticValidate(t *testing.T) {
	a := NewAgentic()

	err := a.Validate(&types.Research{Symbol: "NVDA"})
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "question is required")

	assert.NoError(t, a.Validate(&types.Research{Symbol: "NVDA", Question: "Is it a buy?"}))

	err = a.Validate(&types.Research{Question: "Is it a buy?"})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestAgenticAnswerWithoutTools(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	model := &scriptedLLM{responses: []string{"NVDA looks healthy on current data."}}
	r := agenticResearch(t, "How is NVDA doing?")

	res, err := NewAgentic().Execute(context.Background(), r, agenticDeps(p, model))
	require.NoError(t, err)

	assert.Equal(t, types.WorkflowAgentic, res.Workflow)
	assert.Equal(t, types.ResultFull, res.Status)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, testClock, res.ExecutedAt)

	require.Len(t, res.Sections, 1)
	assert.Equal(t, "answer", res.Sections[0].Name)
	assert.Equal(t, "NVDA looks healthy on current data.", res.Sections[0].Body)

	// The opening prompt carries the question and the tool catalog; the
	// system prompt carries the wire format and the reader level.
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "How is NVDA doing?")
	assert.Contains(t, model.prompts[0], "Available tools:")
	assert.Contains(t, model.prompts[0], "market.quote")
	assert.Contains(t, model.systems[0], `{"tool": "<tool name>"`)
	assert.Contains(t, model.systems[0], "beginner")
}

func TestAgenticToolCallThenAnswer(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	model := &scriptedLLM{responses: []string{
		"Let me check the price first.\n```json\n" + quoteCall + "\n```",
		"NVDA trades at 187.50 after a 1.35% gain.",
	}}
	r := agenticResearch(t, "How is the stock priced right now?")

	res, err := NewAgentic().Execute(context.Background(), r, agenticDeps(p, model))
	require.NoError(t, err)

	assert.Equal(t, types.ResultFull, res.Status)
	assert.Equal(t, 2, res.Iterations)
	assert.False(t, res.HasFailures())

	answer := res.Section("answer")
	require.NotNil(t, answer)
	assert.Equal(t, "NVDA trades at 187.50 after a 1.35% gain.", answer.Body)

	activity := res.Section("tool_activity")
	require.NotNil(t, activity)
	assert.Contains(t, activity.Body, "market.quote(symbol=NVDA) ok")
	records, ok := activity.Data["tool_calls"].([]ToolCallRecord)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)
	assert.Equal(t, 1, records[0].Iteration)

	// The second prompt is the first plus the observation.
	require.Len(t, model.prompts, 2)
	assert.True(t, strings.HasPrefix(model.prompts[1], model.prompts[0]))
	assert.Contains(t, model.prompts[1], observationHeader)
	assert.Contains(t, model.prompts[1], `"price": 187.5`)
}

func TestAgenticUnknownToolBecomesFeedback(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	model := &scriptedLLM{responses: []string{
		`{"action": "market.bogus", "parameters": {"symbol": "NVDA"}}`,
		"I could not fetch that data, but here is what I know.",
	}}
	r := agenticResearch(t, "What does the bogus feed say about NVDA?")

	res, err := NewAgentic().Execute(context.Background(), r, agenticDeps(p, model))
	require.NoError(t, err)

	// The bad call is recorded, its error fed back, and the run still ends
	// with an answer.
	assert.Equal(t, types.ResultFull, res.Status)
	activity := res.Section("tool_activity")
	require.NotNil(t, activity)
	records := activity.Data["tool_calls"].([]ToolCallRecord)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Contains(t, records[0].Error, "unknown tool")

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "market.bogus")
	assert.Contains(t, model.prompts[1], "available")
}

func TestAgenticLoopNudgeThenDigest(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	model := &scriptedLLM{responses: []string{quoteCall, quoteCall, quoteCall}}
	r := agenticResearch(t, "Keep checking the NVDA price.")

	res, err := NewAgentic().Execute(context.Background(), r, agenticDeps(p, model))
	require.NoError(t, err)

	assert.Equal(t, types.ResultPartial, res.Status)
	assert.Equal(t, 3, res.Iterations)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "planning", res.Failures[0].Stage)
	assert.Contains(t, res.Failures[0].Message, "market.quote")

	answer := res.Section("answer")
	require.NotNil(t, answer)
	assert.Contains(t, answer.Body, "Data gathered so far")
	assert.Contains(t, answer.Body, "market.quote")

	// The repeat earned one nudge before planning stopped; the tool only
	// ever ran once.
	require.Len(t, model.prompts, 3)
	assert.Contains(t, model.prompts[2], "Do not repeat it")
	assert.Equal(t, 1, p.quoteCalls)
}

func TestAgenticLoopWithoutDataExhausts(t *testing.T) {
	p := &stubProviders{
		candles:  risingCandles(120, 0.002),
		quoteErr: types.NewError(types.KindProvider, "test", "quote feed down"),
	}
	model := &scriptedLLM{responses: []string{quoteCall, quoteCall, quoteCall}}
	r := agenticResearch(t, "Keep checking the NVDA price.")

	res, err := NewAgentic().Execute(context.Background(), r, agenticDeps(p, model))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, types.ErrPlanningExhausted))
	assert.Contains(t, err.Error(), "no data gathered")
}

func TestAgenticCapExhaustion(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	model := &scriptedLLM{responses: []string{
		`{"tool": "market.history", "args": {"symbol": "NVDA", "days": 30}}`,
		`{"tool": "market.history", "args": {"symbol": "NVDA", "days": 60}}`,
	}}
	r := agenticResearch(t, "Walk the NVDA history window by window.")
	deps := agenticDeps(p, model)
	deps.Config = types.WorkflowConfig{MaxIterations: 2}

	res, err := NewAgentic().Execute(context.Background(), r, deps)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, types.ErrPlanningExhausted))
	assert.Contains(t, err.Error(), "after 2 planning iterations")

	// The final round told the model to stop calling tools.
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "Stop calling tools")
}

func TestAgenticNoLLM(t *testing.T) {
	p := &stubProviders{}
	r := agenticResearch(t, "Is NVDA a buy?")
	deps := agenticDeps(p, nil)

	res, err := NewAgentic().Execute(context.Background(), r, deps)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "no LLM provider")
}

func TestAgenticToolCallsHitCache(t *testing.T) {
	p := &stubProviders{candles: risingCandles(120, 0.002)}
	cached := provider.NewCached(p, p, cache.New(cache.NewMemory(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), types.CacheConfig{})

	deps := Deps{
		Market:       cached,
		Fundamentals: cached,
		Tools:        tool.DefaultRegistry(cached, cached),
		Now:          func() time.Time { return testClock },
	}
	r := agenticResearch(t, "How is the stock priced right now?")

	for i := 0; i < 2; i++ {
		model := &scriptedLLM{responses: []string{quoteCall, "NVDA trades at 187.50."}}
		deps.LLM = model
		res, err := NewAgentic().Execute(context.Background(), r, deps)
		require.NoError(t, err)
		assert.Equal(t, types.ResultFull, res.Status)
	}

	// Both runs asked for the same quote; the provider only served it once.
	assert.Equal(t, 1, p.quoteCalls)
}

func TestEnhanceQuestion(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		question string
		want     string
	}{
		{"symbol missing", "NVDA", "Is it overvalued?", "About NVDA: Is it overvalued?"},
		{"symbol present", "NVDA", "Is NVDA overvalued?", "Is NVDA overvalued?"},
		{"case insensitive", "NVDA", "is nvda overvalued?", "is nvda overvalued?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enhanceQuestion(tt.symbol, tt.question); got != tt.want {
				t.Errorf("enhanceQuestion(%q, %q) = %q, want %q", tt.symbol, tt.question, got, tt.want)
			}
		})
	}
}

func TestFindToolCall(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantOK   bool
	}{
		{"documented form", `{"tool": "market.quote", "args": {"symbol": "A"}}`, "market.quote", true},
		{"action form", `{"action": "market.quote", "parameters": {"symbol": "A"}}`, "market.quote", true},
		{"fenced", "thinking\n```json\n{\"tool\": \"market.quote\", \"args\": {}}\n```", "market.quote", true},
		{"plain prose", "The stock looks fairly valued.", "", false},
		{"missing args", `{"tool": "market.quote"}`, "", false},
		{"args not an object", `{"tool": "market.quote", "args": "AAPL"}`, "", false},
		{"first of several", `{"tool": "a", "args": {}} then {"tool": "b", "args": {}}`, "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, ok := findToolCall(tt.content)
			if ok != tt.wantOK || name != tt.wantName {
				t.Fatalf("findToolCall(%q) = (%q, %v, %v), want (%q, _, %v)",
					tt.content, name, args, ok, tt.wantName, tt.wantOK)
			}
			if ok && args == nil {
				t.Fatalf("findToolCall(%q) returned nil args for a call", tt.content)
			}
		})
	}
}

func TestCallSignature(t *testing.T) {
	a := callSignature("market.history", map[string]any{"days": float64(30), "symbol": "NVDA"})
	b := callSignature("market.history", map[string]any{"symbol": "NVDA", "days": float64(30)})
	if a != b {
		t.Fatalf("signatures differ for identical calls: %q vs %q", a, b)
	}
	if a != "market.history(days=30, symbol=NVDA)" {
		t.Fatalf("unexpected signature %q", a)
	}
}
