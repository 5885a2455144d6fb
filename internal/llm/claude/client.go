// Package claude implements analysis.Provider on top of the Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/warden/internal/analysis"
)

const defaultMaxTokens = 1024

// jsonPrefill is sent as the start of the assistant turn when a JSON object is
// requested; the API has no dedicated JSON mode.
const jsonPrefill = "{"

// Client implements the analysis.Provider interface for the Claude API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude API client with the given API key and model name.
// Requests go through an otelhttp transport. Extra request options (base URL,
// retries, HTTP client) are applied after the defaults.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}, opts...)
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "claude" }

// Complete sends a single-turn request and returns the concatenated text output.
func (c *Client) Complete(ctx context.Context, req *analysis.Request) (*analysis.Response, error) {
	msg, err := c.client.Messages.New(ctx, toSDKParams(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}
	res := fromSDKResponse(msg)
	if req.JSON {
		res.Text = jsonPrefill + res.Text
	}
	return res, nil
}

func toSDKParams(model string, req *analysis.Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msgs := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}
	if req.JSON {
		msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(jsonPrefill)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func fromSDKResponse(msg *anthropic.Message) *analysis.Response {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return &analysis.Response{
		Text:         b.String(),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
}
