package incident

import (
	"context"
	"encoding/json"
)

// Normalizer turns an arbitrary monitoring payload into a Draft. It always
// returns a usable Draft; a non-nil error wrapping ErrUpstreamUnavailable means
// the Draft is the degraded fallback.
type Normalizer interface {
	Normalize(ctx context.Context, raw json.RawMessage) (Draft, error)
}

// Classifier derives an Analysis from a Draft. Like Normalizer it always returns
// a usable value; a non-nil error means the value is the safe fallback.
type Classifier interface {
	Classify(ctx context.Context, d Draft) (Analysis, error)
}

// Validator enforces the Analysis contract before it is trusted downstream.
type Validator interface {
	Validate(a Analysis) (Analysis, error)
}

// Dispatcher executes the remediation an Analysis asks for.
type Dispatcher interface {
	CanExecute(inc *Incident) bool
	Execute(ctx context.Context, inc *Incident) *ActionResult
}

// Notifier delivers human-readable incident summaries to a messaging channel.
type Notifier interface {
	NotifyAssignment(ctx context.Context, inc *Incident) error
	NotifyAction(ctx context.Context, inc *Incident, res *ActionResult) error
}

// Pipeline groups the stages an incident passes through on creation.
// Dispatcher and Notifier are optional.
type Pipeline struct {
	Normalizer Normalizer
	Classifier Classifier
	Validator  Validator
	Dispatcher Dispatcher
	Notifier   Notifier
}

// Options toggles the optional tail of the pipeline.
type Options struct {
	// NotifyOnAssign sends an assignment notification for every created incident.
	NotifyOnAssign bool

	// AutoRemediate dispatches the analysis action right after creation.
	AutoRemediate bool

	// AdvanceOnSuccess moves an open incident to investigating after a
	// successful dispatch.
	AdvanceOnSuccess bool
}

// PipelineHooks lets callers observe pipeline events (metrics, tests). Nil
// fields are skipped.
type PipelineHooks struct {
	OnStage      func(stage string, seconds float64)
	OnFallback   func(stage string)
	OnComplete   func(outcome string, seconds float64)
	OnDispatch   func(res *ActionResult)
	OnNotify     func(kind string, err error)
	OnTransition func(from, to Status)
}

func (h PipelineHooks) stage(name string, seconds float64) {
	if h.OnStage != nil {
		h.OnStage(name, seconds)
	}
}

func (h PipelineHooks) fallback(name string) {
	if h.OnFallback != nil {
		h.OnFallback(name)
	}
}

func (h PipelineHooks) complete(outcome string, seconds float64) {
	if h.OnComplete != nil {
		h.OnComplete(outcome, seconds)
	}
}

func (h PipelineHooks) dispatch(res *ActionResult) {
	if h.OnDispatch != nil {
		h.OnDispatch(res)
	}
}

func (h PipelineHooks) notify(kind string, err error) {
	if h.OnNotify != nil {
		h.OnNotify(kind, err)
	}
}

func (h PipelineHooks) transition(from, to Status) {
	if h.OnTransition != nil {
		h.OnTransition(from, to)
	}
}
