package main

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/analysis"
	wc "github.com/linnemanlabs/warden/internal/cfg"
	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/llm/claude"
	"github.com/linnemanlabs/warden/internal/llm/openai"
	"github.com/linnemanlabs/warden/internal/remediation/httpbackend"
	"github.com/linnemanlabs/warden/internal/remediation/mockbackend"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{wc.ProviderKeyword, ""},
		{wc.ProviderClaude, "claude"},
		{wc.ProviderOpenAI, "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p := newProvider(wc.Config{
				LLMProvider:   tt.provider,
				ClaudeAPIKey:  "sk-ant-test",
				ClaudeModel:   "claude-sonnet-4-20250514",
				OpenAIAPIKey:  "sk-or-test",
				OpenAIModel:   "openai/gpt-4o-mini",
				OpenAIBaseURL: "https://openrouter.ai/api/v1",
			})
			if tt.wantName == "" {
				if p != nil {
					t.Fatalf("provider = %T, want nil", p)
				}
				return
			}
			if p == nil || p.Name() != tt.wantName {
				t.Fatalf("provider = %v, want %s", p, tt.wantName)
			}
			switch tt.wantName {
			case "claude":
				if _, ok := p.(*claude.Client); !ok {
					t.Errorf("provider type = %T", p)
				}
			case "openai":
				if _, ok := p.(*openai.Client); !ok {
					t.Errorf("provider type = %T", p)
				}
			}
		})
	}
}

func TestNewStages_KeywordMode(t *testing.T) {
	c := wc.Config{ClassifyTimeout: time.Second}
	normalizer, classifier := newStages(c, nil, incident.DefaultRoster(), analysis.CallHooks{})

	if _, ok := classifier.(*analysis.KeywordClassifier); !ok {
		t.Fatalf("classifier = %T, want *analysis.KeywordClassifier", classifier)
	}

	d, err := normalizer.Normalize(context.Background(), []byte(`"API server crashed"`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	a, err := classifier.Classify(context.Background(), d)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if a.Action != incident.ActionRestartService || a.TargetOrEmpty() != "api" {
		t.Errorf("analysis = %s/%s, want restart_service/api", a.Action, a.TargetOrEmpty())
	}
}

func TestNewStages_LLMMode(t *testing.T) {
	c := wc.Config{LLMProvider: wc.ProviderClaude, ClaudeAPIKey: "k", ClaudeModel: "m"}
	_, classifier := newStages(c, newProvider(c), incident.DefaultRoster(), analysis.CallHooks{})
	if _, ok := classifier.(*analysis.LLMClassifier); !ok {
		t.Fatalf("classifier = %T, want *analysis.LLMClassifier", classifier)
	}
}

func TestNewBackend(t *testing.T) {
	mock := newBackend(wc.Config{Backend: wc.BackendMock}, log.Nop())
	if _, ok := mock.(*mockbackend.Backend); !ok {
		t.Errorf("mock backend = %T", mock)
	}

	hb := newBackend(wc.Config{
		Backend:     wc.BackendHTTP,
		BackendURL:  "https://executor.example.com/run",
		ExecTimeout: time.Second,
	}, log.Nop())
	if _, ok := hb.(*httpbackend.Backend); !ok {
		t.Errorf("http backend = %T", hb)
	}
}

func TestNotifySystemd_Errors(t *testing.T) {
	tests := []struct {
		name   string
		socket func(t *testing.T) string
		want   string
	}{
		{"unset", func(*testing.T) string { return "" }, "NOTIFY_SOCKET not set"},
		{"missing socket", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nonexistent.sock")
		}, "dial failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTIFY_SOCKET", tt.socket(t))
			err := notifySystemd()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestNotifySystemd_SendsReady(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "notify.sock")

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(context.Background(), "unixgram", sockPath)
	if err != nil {
		t.Fatalf("listen unixgram: %v", err)
	}
	defer func() { _ = conn.Close() }()

	t.Setenv("NOTIFY_SOCKET", sockPath)
	if err := notifySystemd(); err != nil {
		t.Fatalf("notifySystemd() = %v, want nil", err)
	}

	buf := make([]byte, 64)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read from socket: %v", err)
	}
	if got := string(buf[:n]); got != "READY=1" {
		t.Errorf("payload = %q, want READY=1", got)
	}
}
