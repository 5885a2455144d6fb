package analysis

import (
	"context"
	"sync"
)

type fakeProvider struct {
	mu    sync.Mutex
	text  string
	err   error
	block bool
	reqs  []*Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Text: f.text, Model: "fake-1", InputTokens: 10, OutputTokens: 5}, nil
}
