package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/incident"
)

func testIncident(assignee string) *incident.Incident {
	return &incident.Incident{
		ID:          "01JN123",
		Title:       "Cache hit ratio collapsed",
		Description: "Redis evictions spiking",
		Status:      incident.StatusOpen,
		Priority:    incident.PriorityCritical,
		Analysis: &incident.Analysis{
			Type:           "performance",
			Action:         incident.ActionClearCache,
			Target:         incident.Ptr("cache"),
			Priority:       incident.PriorityCritical,
			Recommendation: "Flush the cache and watch evictions.",
			AssignedTo:     incident.Ptr(assignee),
		},
	}
}

func captureServer(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func blockTexts(t *testing.T, msg map[string]any) string {
	t.Helper()
	data, err := json.Marshal(msg["blocks"])
	if err != nil {
		t.Fatalf("marshal blocks: %v", err)
	}
	return string(data)
}

func TestNotifyAssignment_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := captureServer(t, &got)

	n := New(srv.URL, 0, incident.DefaultRoster(), log.Nop())
	n.now = func() time.Time { return time.Date(2026, 2, 26, 14, 23, 0, 0, time.UTC) }

	if err := n.NotifyAssignment(context.Background(), testIncident("Lisa")); err != nil {
		t.Fatalf("NotifyAssignment: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}
	// header, fields, description, action, recommendation, divider, context
	if len(blocks) != 7 {
		t.Errorf("blocks count = %d, want 7", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Cache hit ratio collapsed") {
		t.Errorf("header text = %q, want incident title", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Errorf("header should contain red circle for critical priority")
	}

	all := blockTexts(t, got)
	for _, want := range []string{"CRITICAL", "clear_cache", "Lisa", "Cache & Infrastructure", "2026-02-26 14:23 UTC"} {
		if !strings.Contains(all, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestNotifyAction_PostsOutcome(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := captureServer(t, &got)

	n := New(srv.URL, 0, incident.DefaultRoster(), log.Nop())
	res := &incident.ActionResult{
		IncidentID: "01JN123",
		Action:     incident.ActionClearCache,
		Success:    true,
		Message:    "Cache cache cleared successfully",
	}
	if err := n.NotifyAction(context.Background(), testIncident(incident.AssistantName), res); err != nil {
		t.Fatalf("NotifyAction: %v", err)
	}

	all := blockTexts(t, got)
	for _, want := range []string{"Assistant remediated", "Succeeded - Cache cache cleared successfully", "Redis evictions spiking"} {
		if !strings.Contains(all, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestNotify_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", 0, nil, log.Nop())
	if err := n.NotifyAssignment(context.Background(), testIncident("Anna")); err != nil {
		t.Fatalf("NotifyAssignment with empty URL should be no-op, got: %v", err)
	}
	if err := n.NotifyAction(context.Background(), testIncident("Anna"), &incident.ActionResult{}); err != nil {
		t.Fatalf("NotifyAction with empty URL should be no-op, got: %v", err)
	}
}

func TestNotify_Non2xxReturnsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := New(srv.URL, 0, nil, log.Nop())
	err := n.NotifyAssignment(context.Background(), testIncident("Anna"))
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status code", err)
	}
}

func TestNotify_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, 0.001, nil, log.Nop())
	if err := n.NotifyAssignment(context.Background(), testIncident("Anna")); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.NotifyAssignment(ctx, testIncident("Anna")); err == nil {
		t.Fatal("expected rate limit error once burst is spent")
	}
	if calls.Load() != 1 {
		t.Errorf("webhook calls = %d, want 1", calls.Load())
	}
}

func TestNotify_MissingAnalysis(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := captureServer(t, &got)

	n := New(srv.URL, 0, nil, log.Nop())
	inc := &incident.Incident{ID: "x", Title: "bare", Priority: incident.PriorityLow}
	if err := n.NotifyAssignment(context.Background(), inc); err != nil {
		t.Fatalf("NotifyAssignment: %v", err)
	}
	if !strings.Contains(blockTexts(t, got), "N/A") {
		t.Error("expected N/A placeholders for missing analysis fields")
	}
}

func TestPriorityEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		priority incident.Priority
		want     string
	}{
		{incident.PriorityCritical, "\U0001f534"},
		{incident.PriorityHigh, "\U0001f7e0"},
		{incident.PriorityMedium, "\U0001f7e1"},
		{incident.PriorityLow, "\U0001f7e2"},
		{"", "\U0001f7e2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			t.Parallel()
			if got := priorityEmoji(tt.priority); got != tt.want {
				t.Errorf("priorityEmoji(%q) = %q, want %q", tt.priority, got, tt.want)
			}
		})
	}
}

func FuzzSlackBuild(f *testing.F) {
	f.Add("HighCPU", "CPU is very high on node-1.", "restart", "Anna")
	f.Add("", "", "", "")
	f.Add("<@U123> mention", "*bold* _italic_ ~strike~", "rec", "AI Assistant")
	f.Add("alert\x00\x01\x02", "analysis\ttab", "line\nbreak", "m\x00")
	f.Add(strings.Repeat("A", 5000), strings.Repeat("x", 10000), strings.Repeat("y", 4000), "Lisa")

	n := New("http://unused", 0, incident.DefaultRoster(), log.Nop())

	f.Fuzz(func(t *testing.T, title, description, recommendation, assignee string) {
		inc := &incident.Incident{
			ID:          "fuzz-id",
			Title:       title,
			Description: description,
			Priority:    incident.PriorityHigh,
			Analysis: &incident.Analysis{
				Type:           "unknown",
				Action:         incident.ActionNotifyHuman,
				Priority:       incident.PriorityHigh,
				Recommendation: recommendation,
				AssignedTo:     &assignee,
			},
		}
		res := &incident.ActionResult{Action: incident.ActionNotifyHuman, Message: description}

		for _, msg := range []map[string]any{n.assignmentMessage(inc), n.actionMessage(inc, res)} {
			data, err := json.Marshal(msg)
			if err != nil {
				t.Fatalf("message not marshalable: %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("message JSON does not round-trip: %v", err)
			}
			if _, ok := decoded["blocks"].([]any); !ok {
				t.Fatal("expected blocks array")
			}
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "disk full", 20, "disk full"},
		{"exact", "abcdef", 6, "abcdef"},
		{"ascii", "abcdefghij", 8, "abcde..."},
		{"multibyte", "ååååååååå", 6, "ååå..."},
		{"emoji", "🔴🔴🔴🔴🔴", 4, "🔴..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.limit)
			}
		})
	}
}
