// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the equity-engine.
// Implements: prd001-research-lifecycle (Research, ResearchProfile, R1-R5);
//
//	prd004-workflow-execution (WorkflowResult, Section, R2, R5);
//	prd003-data-providers (Quote, Candle, FundamentalsReport);
//	prd005-market-analysis (RegimeReport);
//	prd002-caching (CacheConfig).
//
// See docs/ARCHITECTURE.md § Data Structures, § Research Lifecycle.
package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkflowType selects the execution strategy for a research.
// Per prd004-workflow-execution R1.1.
type WorkflowType string

const (
	WorkflowStatic  WorkflowType = "static"
	WorkflowAgentic WorkflowType = "agentic"
)

// ParseWorkflowType validates a workflow type string. The empty string
// defaults to static.
func ParseWorkflowType(s string) (WorkflowType, error) {
	switch WorkflowType(s) {
	case "":
		return WorkflowStatic, nil
	case WorkflowStatic, WorkflowAgentic:
		return WorkflowType(s), nil
	}
	return "", NewError(KindUnsupportedWorkflow, "types.ParseWorkflowType", fmt.Sprintf("unknown workflow type %q", s))
}

// Timeframe is the investment horizon a research targets. It determines how
// much price history and how many financial reports the workflows request.
// Per prd001-research-lifecycle R4.1-R4.3.
type Timeframe string

const (
	TimeframeShort Timeframe = "short_term"
	TimeframeMid   Timeframe = "mid_term"
	TimeframeLong  Timeframe = "long_term"
)

// ParseTimeframe validates a timeframe string. The empty string defaults to
// mid_term. Per prd001-research-lifecycle R4.1.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return TimeframeMid, nil
	case TimeframeShort, TimeframeMid, TimeframeLong:
		return Timeframe(s), nil
	}
	return "", NewError(KindValidation, "types.ParseTimeframe", fmt.Sprintf("unknown timeframe %q", s))
}

// HistoryDays is the price history window requested for this timeframe.
// Per prd001-research-lifecycle R4.2.
func (t Timeframe) HistoryDays() int {
	switch t {
	case TimeframeShort:
		return 30
	case TimeframeLong:
		return 730
	default:
		return 180
	}
}

// CandleInterval is the candle granularity for this timeframe: daily for
// short and mid horizons, weekly for long. Per prd001-research-lifecycle R4.2.
func (t Timeframe) CandleInterval() string {
	if t == TimeframeLong {
		return "1wk"
	}
	return "1d"
}

// FundamentalsPeriods is how many financial reports the fundamentals stage
// requests: 4 quarters short, 8 quarters mid, 5 annual reports long.
// Per prd001-research-lifecycle R4.3.
func (t Timeframe) FundamentalsPeriods() int {
	switch t {
	case TimeframeShort:
		return 4
	case TimeframeLong:
		return 5
	default:
		return 8
	}
}

// FundamentalsFrequency is the report cadence for this timeframe.
func (t Timeframe) FundamentalsFrequency() ReportFrequency {
	if t == TimeframeLong {
		return FrequencyAnnual
	}
	return FrequencyQuarterly
}

// ResearchStatus tracks a research through its lifecycle.
// Per prd001-research-lifecycle R1.1: pending -> in_progress -> {completed, failed}.
type ResearchStatus string

const (
	StatusPending    ResearchStatus = "pending"
	StatusInProgress ResearchStatus = "in_progress"
	StatusCompleted  ResearchStatus = "completed"
	StatusFailed     ResearchStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
// Per prd001-research-lifecycle R1.3.
func (s ResearchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// NormalizeSymbol upper-cases and validates a ticker symbol.
// Per prd001-research-lifecycle R3.1: one leading letter, then up to nine
// letters, digits, dots, or hyphens.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(sym) {
		return "", NewError(KindValidation, "types.NormalizeSymbol", fmt.Sprintf("invalid stock symbol %q", s))
	}
	return sym, nil
}

// ResearchSpec carries the caller-supplied fields for a new research.
type ResearchSpec struct {
	// Symbol is the ticker to research (normalized on construction).
	Symbol string `json:"symbol" yaml:"symbol"`

	// Question is the research question. Required for agentic workflows.
	Question string `json:"question,omitempty" yaml:"question,omitempty"`

	// Workflow selects the execution strategy. Empty defaults to static.
	Workflow WorkflowType `json:"workflow,omitempty" yaml:"workflow,omitempty"`

	// Timeframe is the investment horizon. Empty defaults to mid_term.
	Timeframe Timeframe `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`

	// ProfileID links the research to a ResearchProfile. Optional.
	ProfileID string `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`

	// Parameters carries workflow-specific overrides.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Research is a unit of research work over a single symbol.
// Per prd001-research-lifecycle R1-R2.
type Research struct {
	// ID is the unique research identifier ("res-" plus a UUID).
	ID string `json:"id" yaml:"id"`

	// Symbol is the normalized ticker symbol.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Question is the research question, if any.
	Question string `json:"question,omitempty" yaml:"question,omitempty"`

	// Workflow is the execution strategy for this research.
	Workflow WorkflowType `json:"workflow" yaml:"workflow"`

	// Timeframe is the investment horizon.
	Timeframe Timeframe `json:"timeframe" yaml:"timeframe"`

	// ProfileID identifies the owning ResearchProfile. Empty when none.
	ProfileID string `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`

	// Status is the current lifecycle state.
	Status ResearchStatus `json:"status" yaml:"status"`

	// Parameters carries workflow-specific overrides.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Result holds the workflow output. Nil until the research completes.
	// Per prd001-research-lifecycle R1.4: set in the same write that moves
	// the status to completed.
	Result *WorkflowResult `json:"result,omitempty" yaml:"result,omitempty"`

	// ErrorMessage records why the research failed. Empty otherwise.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	// CreatedAt is when the research was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the research last changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// StartedAt is when execution began. Zero until then.
	StartedAt time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`

	// CompletedAt is when the research reached a terminal state. Zero until then.
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewResearch validates a spec and returns a pending research.
// Per prd001-research-lifecycle R2.1-R2.3.
func NewResearch(spec ResearchSpec, now time.Time) (*Research, error) {
	sym, err := NormalizeSymbol(spec.Symbol)
	if err != nil {
		return nil, err
	}
	wf, err := ParseWorkflowType(string(spec.Workflow))
	if err != nil {
		return nil, err
	}
	tf, err := ParseTimeframe(string(spec.Timeframe))
	if err != nil {
		return nil, err
	}
	return &Research{
		ID:         "res-" + uuid.NewString(),
		Symbol:     sym,
		Question:   strings.TrimSpace(spec.Question),
		Workflow:   wf,
		Timeframe:  tf,
		ProfileID:  spec.ProfileID,
		Status:     StatusPending,
		Parameters: spec.Parameters,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Terminal reports whether the research is in a terminal state.
func (r *Research) Terminal() bool { return r.Status.Terminal() }

// Start moves the research from pending to in_progress.
// Per prd001-research-lifecycle R1.2.
func (r *Research) Start(now time.Time) error {
	if r.Status != StatusPending {
		return transitionError(r, StatusInProgress)
	}
	r.Status = StatusInProgress
	r.StartedAt = now
	r.UpdatedAt = now
	return nil
}

// Complete moves the research from in_progress to completed, attaching the
// result in the same mutation. Per prd001-research-lifecycle R1.4.
func (r *Research) Complete(result *WorkflowResult, now time.Time) error {
	if r.Status != StatusInProgress {
		return transitionError(r, StatusCompleted)
	}
	r.Status = StatusCompleted
	r.Result = result
	r.CompletedAt = now
	r.UpdatedAt = now
	return nil
}

// Fail moves the research from in_progress to failed, recording the reason.
// Per prd001-research-lifecycle R1.4.
func (r *Research) Fail(reason string, now time.Time) error {
	if r.Status != StatusInProgress {
		return transitionError(r, StatusFailed)
	}
	r.Status = StatusFailed
	r.ErrorMessage = reason
	r.CompletedAt = now
	r.UpdatedAt = now
	return nil
}

func transitionError(r *Research, to ResearchStatus) error {
	return NewError(KindInvalidTransition, "types.Research",
		fmt.Sprintf("research %s: cannot transition %s -> %s", r.ID, r.Status, to))
}
