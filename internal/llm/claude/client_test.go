package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/warden/internal/analysis"
)

func TestToSDKParams_TextOnly(t *testing.T) {
	t.Parallel()

	p := toSDKParams("claude-test", &analysis.Request{System: "sys", Prompt: "hello", MaxTokens: 256})

	if p.Model != anthropic.Model("claude-test") {
		t.Errorf("model = %q, want %q", p.Model, "claude-test")
	}
	if p.MaxTokens != 256 {
		t.Errorf("max tokens = %d, want 256", p.MaxTokens)
	}
	if len(p.System) != 1 || p.System[0].Text != "sys" {
		t.Errorf("system = %+v, want one block %q", p.System, "sys")
	}
	if len(p.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(p.Messages))
	}
	if p.Messages[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("role = %q, want user", p.Messages[0].Role)
	}
	if p.Messages[0].Content[0].OfText == nil || p.Messages[0].Content[0].OfText.Text != "hello" {
		t.Error("expected user text block with prompt")
	}
}

func TestToSDKParams_JSONPrefill(t *testing.T) {
	t.Parallel()

	p := toSDKParams("m", &analysis.Request{Prompt: "x", JSON: true})

	if p.MaxTokens != defaultMaxTokens {
		t.Errorf("max tokens = %d, want default %d", p.MaxTokens, defaultMaxTokens)
	}
	if len(p.System) != 0 {
		t.Errorf("expected no system blocks, got %d", len(p.System))
	}
	if len(p.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(p.Messages))
	}
	last := p.Messages[1]
	if last.Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("role = %q, want assistant", last.Role)
	}
	if last.Content[0].OfText == nil || last.Content[0].OfText.Text != jsonPrefill {
		t.Error("expected assistant prefill block")
	}
}

func TestFromSDKResponse_JoinsTextBlocks(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Model: anthropic.Model("claude-test"),
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: `"type":`},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: `"unknown"}`},
		},
		Usage: anthropic.Usage{InputTokens: 1234, OutputTokens: 567},
	}

	res := fromSDKResponse(msg)

	if res.Text != `"type":"unknown"}` {
		t.Errorf("text = %q", res.Text)
	}
	if res.Model != "claude-test" {
		t.Errorf("model = %q", res.Model)
	}
	if res.InputTokens != 1234 || res.OutputTokens != 567 {
		t.Errorf("usage = %d/%d, want 1234/567", res.InputTokens, res.OutputTokens)
	}
}

func TestComplete_AgainstServer(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "sk-test" {
			t.Errorf("x-api-key = %q", r.Header.Get("X-Api-Key"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "\"title\":\"DB down\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`)
	}))
	defer srv.Close()

	c := New("sk-test", "claude-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	res, err := c.Complete(context.Background(), &analysis.Request{System: "s", Prompt: "p", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != `{"title":"DB down"}` {
		t.Errorf("text = %q, want prefilled object", res.Text)
	}
	if res.InputTokens != 12 || res.OutputTokens != 7 {
		t.Errorf("usage = %d/%d", res.InputTokens, res.OutputTokens)
	}
	if got["model"] != "claude-test" {
		t.Errorf("request model = %v", got["model"])
	}
}

func TestComplete_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`)
	}))
	defer srv.Close()

	c := New("sk-test", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if _, err := c.Complete(context.Background(), &analysis.Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	if got := New("k", "m").Name(); got != "claude" {
		t.Errorf("Name() = %q", got)
	}
}
