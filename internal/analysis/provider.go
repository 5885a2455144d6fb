package analysis

import "context"

// Provider is the interface for any LLM backend used for normalization and
// classification. Implementations live under internal/llm.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Request is a single-shot completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int

	// JSON asks the backend for a JSON object response when it supports it.
	JSON bool
}

// Response is the text output of a completion plus token usage.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// CallHooks lets callers observe LLM calls. Nil fields are skipped.
type CallHooks struct {
	OnCall func(stage, provider string, res *Response, seconds float64, err error)
}

func (h CallHooks) call(stage, provider string, res *Response, seconds float64, err error) {
	if h.OnCall != nil {
		h.OnCall(stage, provider, res, seconds, err)
	}
}
