// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/equity-engine/internal/llm"
	"github.com/pdiddy/equity-engine/pkg/types"
)

// defaultMaxIterations caps planning rounds when the config leaves it unset.
const defaultMaxIterations = 5

// loopWindow is how many recent call signatures loop detection remembers.
const loopWindow = 3

// digestLimit truncates per-tool data lines in the fallback digest answer.
const digestLimit = 240

// ToolCallRecord logs one planner tool dispatch for the result's activity
// section. Per prd004-workflow-execution R4.6.
type ToolCallRecord struct {
	// Tool is the dispatched tool name.
	Tool string `json:"tool" yaml:"tool"`

	// Args are the arguments the planner supplied.
	Args map[string]any `json:"args" yaml:"args"`

	// Iteration is the 1-based planning round the call happened in.
	Iteration int `json:"iteration" yaml:"iteration"`

	// Success is false when the dispatch returned an error.
	Success bool `json:"success" yaml:"success"`

	// Error holds the dispatch error message, when any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Result is the tool payload on success.
	Result map[string]any `json:"result,omitempty" yaml:"result,omitempty"`
}

// Agentic plans research as a bounded LLM tool-call loop: the model requests
// data through the tool registry one call at a time and ends with a prose
// answer. Per prd004-workflow-execution R4.
type Agentic struct{}

// NewAgentic returns the agentic workflow executor.
func NewAgentic() *Agentic { return &Agentic{} }

func (a *Agentic) Type() types.WorkflowType { return types.WorkflowAgentic }

// Validate requires a symbol and a question before any state transition.
func (a *Agentic) Validate(r *types.Research) error {
	if r.Symbol == "" {
		return types.NewError(types.KindValidation, "workflow.agentic", "research has no symbol")
	}
	if strings.TrimSpace(r.Question) == "" {
		return types.NewError(types.KindValidation, "workflow.agentic",
			fmt.Sprintf("a question is required for agentic workflows (what do you want to know about %s?)", r.Symbol))
	}
	return nil
}

func (a *Agentic) Execute(ctx context.Context, r *types.Research, deps Deps) (*types.WorkflowResult, error) {
	const op = "workflow.agentic"
	executedAt := deps.now()
	log := deps.logger()

	if deps.LLM == nil {
		return nil, types.NewError(types.KindValidation, op, "no LLM provider configured for agentic workflows")
	}
	if deps.Tools == nil || len(deps.Tools.Names()) == 0 {
		return nil, types.NewError(types.KindValidation, op, "no tools registered for agentic workflows")
	}

	maxIters := deps.Config.MaxIterations
	if maxIters <= 0 {
		maxIters = defaultMaxIterations
	}
	literacy := deps.Literacy
	if literacy == "" {
		literacy = types.LiteracyBeginner
	}

	system, err := renderPrompt(plannerSystemTmpl, plannerSystemData{
		MaxCalls: maxIters,
		Literacy: literacy,
		Voice:    literacyVoice(literacy),
	})
	if err != nil {
		return nil, err
	}
	transcript, err := renderPrompt(plannerUserTmpl, plannerUserData{
		Question: enhanceQuestion(r.Symbol, r.Question),
		Tools:    deps.Tools.Describe(),
	})
	if err != nil {
		return nil, err
	}

	var records []ToolCallRecord
	var recent []string
	nudged := false
	successes := 0

	for iter := 1; iter <= maxIters; iter++ {
		if iter == maxIters {
			// Last round: the model gets one explicit chance to answer.
			transcript += "\n\n" + stopForAnswer
		}

		resp, err := llm.GenerateWithRetry(ctx, deps.LLM, llm.Request{
			System:      system,
			Prompt:      transcript,
			Temperature: deps.LLMConfig.Temperature,
			MaxTokens:   deps.LLMConfig.MaxTokens,
		}, deps.LLMConfig.MaxRetries)
		if err != nil {
			return nil, err
		}
		log.Debug("planner responded", "iteration", iter, "tokens", resp.TotalTokens)

		name, args, isCall := findToolCall(resp.Content)
		if !isCall {
			log.Info("planner answered", "symbol", r.Symbol, "iterations", iter, "tool_calls", len(records))
			return agenticResult(r, resp.Content, records, iter, executedAt, nil), nil
		}
		if iter == maxIters {
			return nil, types.NewError(types.KindPlanningExhausted, op,
				fmt.Sprintf("no final answer after %d planning iterations", maxIters))
		}

		sig := callSignature(name, args)
		if seen(recent, sig) {
			if !nudged {
				nudged = true
				log.Warn("planner repeated a tool call, nudging", "tool", name, "iteration", iter)
				transcript += "\n\n" + fmt.Sprintf(loopNudge, sig)
				continue
			}
			if successes == 0 {
				return nil, types.NewError(types.KindPlanningExhausted, op,
					fmt.Sprintf("planning stuck repeating %s with no data gathered", name))
			}
			log.Warn("planner loop persists, answering from gathered data", "tool", name, "iteration", iter)
			failure := &types.StageFailure{
				Stage:   "planning",
				Message: fmt.Sprintf("stopped after repeated %s calls at iteration %d", name, iter),
			}
			return agenticResult(r, digest(r.Symbol, records), records, iter, executedAt, failure), nil
		}

		payload, callErr := deps.Tools.Call(ctx, name, args)
		if isCancellation(callErr) {
			return nil, callErr
		}

		rec := ToolCallRecord{Tool: name, Args: args, Iteration: iter, Success: callErr == nil}
		obs := map[string]any{"tool": name, "success": callErr == nil}
		if callErr != nil {
			rec.Error = callErr.Error()
			obs["error"] = callErr.Error()
			log.Warn("tool call failed", "tool", name, "error", callErr)
		} else {
			rec.Result = payload
			obs["data"] = payload
			successes++
			log.Debug("tool call succeeded", "tool", name, "iteration", iter)
		}
		records = append(records, rec)
		recent = append(recent, sig)
		if len(recent) > loopWindow {
			recent = recent[1:]
		}

		encoded, err := json.MarshalIndent(obs, "", "  ")
		if err != nil {
			return nil, types.WrapError(types.KindAnalysis, op, err)
		}
		transcript += "\n\n" + observationHeader + "\n" + string(encoded)
	}

	// Unreachable: the final round either answers or errors above.
	return nil, types.NewError(types.KindPlanningExhausted, op,
		fmt.Sprintf("no final answer after %d planning iterations", maxIters))
}

// findToolCall scans a model response for a tool call. Both the documented
// form ({"tool", "args"}) and the ({"action", "parameters"}) variant some
// models produce are accepted. Unknown tool names still count as calls so
// the registry's error can steer the planner.
func findToolCall(content string) (string, map[string]any, bool) {
	for _, obj := range llm.ExtractJSONObjects(content) {
		name, _ := obj["tool"].(string)
		if name == "" {
			name, _ = obj["action"].(string)
		}
		if name == "" {
			continue
		}
		args, ok := obj["args"].(map[string]any)
		if !ok {
			args, ok = obj["parameters"].(map[string]any)
		}
		if !ok {
			continue
		}
		return name, args, true
	}
	return "", nil, false
}

// enhanceQuestion prefixes the symbol so tool calls target the right ticker
// even when the question never names it.
func enhanceQuestion(symbol, question string) string {
	if strings.Contains(strings.ToUpper(question), strings.ToUpper(symbol)) {
		return question
	}
	return fmt.Sprintf("About %s: %s", symbol, question)
}

// callSignature canonicalizes a call as name(k=v, ...) with sorted keys, for
// loop detection and the nudge message.
func callSignature(name string, args map[string]any) string {
	return fmt.Sprintf("%s(%s)", name, argsString(args))
}

func argsString(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return strings.Join(parts, ", ")
}

func seen(recent []string, sig string) bool {
	for _, s := range recent {
		if s == sig {
			return true
		}
	}
	return false
}

// digest is the fallback answer when planning stops on a persistent loop:
// a readable dump of what the tools returned so far.
func digest(symbol string, records []ToolCallRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Planning for %s stopped before the model wrote a final answer. Data gathered so far:\n", symbol)
	for _, rec := range records {
		if !rec.Success {
			continue
		}
		encoded, err := json.Marshal(rec.Result)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s", rec.Tool, truncate(string(encoded), digestLimit))
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func agenticResult(r *types.Research, answer string, records []ToolCallRecord, iterations int,
	executedAt time.Time, failure *types.StageFailure) *types.WorkflowResult {

	sections := []types.Section{{
		Name:     "answer",
		Title:    "Analysis",
		Body:     strings.TrimSpace(answer),
		Audience: types.EveryLevel(),
	}}
	if len(records) > 0 {
		sections = append(sections, types.Section{
			Name:     "tool_activity",
			Title:    "Data Gathered",
			Body:     toolActivityBody(records),
			Data:     map[string]any{"tool_calls": records},
			Audience: types.Audience{Min: types.LiteracyIntermediate},
		})
	}

	status := types.ResultFull
	var failures []types.StageFailure
	if failure != nil {
		failures = append(failures, *failure)
		status = types.ResultPartial
	}

	return &types.WorkflowResult{
		Workflow:   types.WorkflowAgentic,
		Symbol:     r.Symbol,
		Timeframe:  r.Timeframe,
		Status:     status,
		Sections:   sections,
		Failures:   failures,
		Iterations: iterations,
		ExecutedAt: executedAt,
	}
}

func toolActivityBody(records []ToolCallRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The planner made %d tool calls:\n", len(records))
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed: " + rec.Error
		}
		fmt.Fprintf(&b, "\n- iteration %d: %s %s", rec.Iteration, callSignature(rec.Tool, rec.Args), status)
	}
	return b.String()
}
