// Package openai implements analysis.Provider for OpenAI-compatible chat
// completion APIs (OpenAI, OpenRouter, local gateways).
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/warden/internal/analysis"
)

// DefaultBaseURL points at OpenRouter.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

var errNoChoices = errors.New("openai: response had no choices")

// Client implements the analysis.Provider interface for chat completions.
type Client struct {
	client *goopenai.Client
	model  string
}

// Attribution is the app identity OpenRouter reads from the HTTP-Referer and
// X-Title headers. Empty fields are not sent.
type Attribution struct {
	Referer string
	Title   string
}

// New creates a client for the given key, model and base URL. An empty base
// URL uses DefaultBaseURL.
func New(apiKey, model, baseURL string, attr Attribution) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{
		Timeout:   120 * time.Second,
		Transport: &headerTransport{base: otelhttp.NewTransport(http.DefaultTransport), attr: attr},
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "openai" }

// Complete runs one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req *analysis.Request) (*analysis.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, toChatRequest(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errNoChoices
	}
	return &analysis.Response{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toChatRequest(model string, req *analysis.Request) goopenai.ChatCompletionRequest {
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	out := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.JSON {
		out.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

// headerTransport adds the attribution headers OpenRouter expects.
type headerTransport struct {
	base http.RoundTripper
	attr Attribution
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.attr == (Attribution{}) {
		return t.base.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	if t.attr.Referer != "" {
		r.Header.Set("HTTP-Referer", t.attr.Referer)
	}
	if t.attr.Title != "" {
		r.Header.Set("X-Title", t.attr.Title)
	}
	return t.base.RoundTrip(r)
}
