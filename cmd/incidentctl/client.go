package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linnemanlabs/warden/internal/analysis"
	"github.com/linnemanlabs/warden/internal/incident"
)

const maxResponseBytes = 4 << 20

// apiError is the decoded error body of a non-2xx response.
type apiError struct {
	StatusCode int
	Message    string                    `json:"message"`
	Err        string                    `json:"error"`
	Fields     []analysis.FieldViolation `json:"fields"`
}

func (e *apiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+"("+f.Rule+")")
		}
		msg += ": " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
}

type client struct {
	base string
	http *http.Client
}

func newClient(server string, timeout time.Duration) (*client, error) {
	u, err := url.Parse(server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", server)
	}
	return &client{
		base: strings.TrimRight(server, "/"),
		http: &http.Client{Timeout: timeout},
	}, nil
}

type createResponse struct {
	Data     *incident.Incident     `json:"data"`
	Action   *incident.ActionResult `json:"action,omitempty"`
	Degraded bool                   `json:"degraded,omitempty"`
}

type batchResponse struct {
	Data    []*incident.ActionResult `json:"data"`
	Summary incident.Summary         `json:"summary"`
}

func (c *client) create(ctx context.Context, description json.RawMessage) (*createResponse, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"description": description})
	if err != nil {
		return nil, err
	}
	var out createResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/incidents", body, &out)
}

func (c *client) list(ctx context.Context) ([]*incident.Incident, error) {
	var out struct {
		Data []*incident.Incident `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/incidents", nil, &out)
	return out.Data, err
}

func (c *client) get(ctx context.Context, id string) (*incident.Incident, error) {
	var out struct {
		Data *incident.Incident `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/incidents/"+url.PathEscape(id), nil, &out)
	return out.Data, err
}

func (c *client) setStatus(ctx context.Context, id, status string) (*incident.Incident, error) {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	var out struct {
		Incident *incident.Incident `json:"incident"`
	}
	err = c.do(ctx, http.MethodPatch, "/api/v1/incidents/"+url.PathEscape(id), body, &out)
	return out.Incident, err
}

func (c *client) execute(ctx context.Context, id string) (*incident.ActionResult, error) {
	var out struct {
		Data *incident.ActionResult `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/incidents/"+url.PathEscape(id)+"/actions", nil, &out)
	return out.Data, err
}

func (c *client) executeAll(ctx context.Context) (*batchResponse, error) {
	var out batchResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/incidents/actions", nil, &out)
}

func (c *client) sample(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/samples/random-error", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request sample: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read sample: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp.StatusCode, data)
	}
	return string(data), nil
}

func (c *client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	e := &apiError{StatusCode: status}
	_ = json.Unmarshal(data, e)
	return e
}
