// Package httpbackend forwards remediation requests to a remote executor as
// JSON over HTTP.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/warden/internal/remediation"
)

// maxResponseSize caps how much of the executor's answer is read.
const maxResponseSize = 1 << 20

// Backend posts each payload to a single endpoint.
type Backend struct {
	url    string
	token  string
	client *http.Client
}

// New returns a Backend that posts to url. token, when non-empty, is sent as a
// bearer credential.
func New(url, token string, timeout time.Duration) *Backend {
	return &Backend{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Invoke implements remediation.Backend. Non-2xx answers are errors.
func (b *Backend) Invoke(ctx context.Context, p remediation.Payload) (*remediation.BackendResponse, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke executor: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read executor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("executor returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var out remediation.BackendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode executor response: %w", err)
	}
	return &out, nil
}
