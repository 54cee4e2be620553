// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for callers that branch on cause.
// Per prd001-research-lifecycle R1.5 and docs/ARCHITECTURE § Error Taxonomy.
type ErrorKind string

const (
	// KindNotFound: a referenced research or profile does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindConflict: a research is already executing.
	KindConflict ErrorKind = "conflict"

	// KindInvalidTransition: a lifecycle move the state machine forbids.
	KindInvalidTransition ErrorKind = "invalid_state_transition"

	// KindValidation: malformed input or a research unfit for its workflow.
	KindValidation ErrorKind = "validation"

	// KindUnsupportedWorkflow: no executor is registered for the workflow type.
	KindUnsupportedWorkflow ErrorKind = "unsupported_workflow"

	// KindProvider: a data or LLM provider call failed.
	KindProvider ErrorKind = "provider"

	// KindAnalysis: an analyzer rejected its input or failed to produce output.
	KindAnalysis ErrorKind = "analysis"

	// KindPlanningExhausted: the agentic planner hit its iteration cap
	// without reaching an answer.
	KindPlanningExhausted ErrorKind = "planning_exhausted"

	// KindCancelled: execution stopped because the caller's context ended.
	KindCancelled ErrorKind = "cancelled"
)

// EngineError is the error type engine operations return. Kind carries the
// machine-readable class, Op names the failing operation, Detail is a human
// message, and Err is the wrapped cause when one exists.
type EngineError struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

func (e *EngineError) Error() string {
	msg := e.Op
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is matches any *EngineError with the same Kind, so
// errors.Is(err, types.ErrNotFound) works through wrapping.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrNotFound            = &EngineError{Kind: KindNotFound}
	ErrConflict            = &EngineError{Kind: KindConflict}
	ErrInvalidTransition   = &EngineError{Kind: KindInvalidTransition}
	ErrValidation          = &EngineError{Kind: KindValidation}
	ErrUnsupportedWorkflow = &EngineError{Kind: KindUnsupportedWorkflow}
	ErrProvider            = &EngineError{Kind: KindProvider}
	ErrAnalysis            = &EngineError{Kind: KindAnalysis}
	ErrPlanningExhausted   = &EngineError{Kind: KindPlanningExhausted}
	ErrCancelled           = &EngineError{Kind: KindCancelled}
)

// NewError builds an EngineError without a cause.
func NewError(kind ErrorKind, op, detail string) *EngineError {
	return &EngineError{Kind: kind, Op: op, Detail: detail}
}

// WrapError builds an EngineError around a cause. A nil cause returns nil.
func WrapError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
