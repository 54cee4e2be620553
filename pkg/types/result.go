// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResultStatus distinguishes a result built from every stage from one with
// recorded stage failures. Per prd004-workflow-execution R3.3.
type ResultStatus string

const (
	ResultFull    ResultStatus = "full"
	ResultPartial ResultStatus = "partial"
)

// Section is one ordered block of workflow output. Body is Markdown prose;
// Data carries the machine-readable values the body was built from.
// Per prd004-workflow-execution R2.2, prd006-presentation R2.1.
type Section struct {
	// Name is the stable stage identifier (e.g. "quote", "regime").
	Name string `json:"name" yaml:"name"`

	// Title is the rendered heading.
	Title string `json:"title" yaml:"title"`

	// Body is the section prose in Markdown.
	Body string `json:"body" yaml:"body"`

	// Data holds the structured values behind the body. Optional.
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	// Audience is the literacy band this section serves.
	Audience Audience `json:"audience" yaml:"audience"`
}

// StageFailure records a non-required stage that errored during execution.
// Failures are carried in the result, never cached, and never abort the
// workflow. Per prd004-workflow-execution R3.2.
type StageFailure struct {
	// Stage is the failing stage name.
	Stage string `json:"stage" yaml:"stage"`

	// Message is the failure description.
	Message string `json:"message" yaml:"message"`
}

// WorkflowResult is the output of one workflow execution.
// Per prd004-workflow-execution R2, R5.
type WorkflowResult struct {
	// Workflow is the strategy that produced this result.
	Workflow WorkflowType `json:"workflow" yaml:"workflow"`

	// Symbol is the researched ticker.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Timeframe is the investment horizon the stages used.
	Timeframe Timeframe `json:"timeframe" yaml:"timeframe"`

	// Status is full when every stage succeeded, partial otherwise.
	Status ResultStatus `json:"status" yaml:"status"`

	// Sections holds the output blocks in presentation order.
	Sections []Section `json:"sections" yaml:"sections"`

	// Failures records non-required stages that errored.
	Failures []StageFailure `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Iterations is the number of planning rounds an agentic run used.
	// Zero for static runs.
	Iterations int `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// ExecutedAt is when the execution started, from the engine clock.
	ExecutedAt time.Time `json:"executed_at" yaml:"executed_at"`
}

// Section returns the named section, or nil when absent.
func (r *WorkflowResult) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// HasFailures reports whether any stage failures were recorded.
func (r *WorkflowResult) HasFailures() bool { return len(r.Failures) > 0 }
