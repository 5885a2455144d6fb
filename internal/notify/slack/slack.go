// Package slack sends incident notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/incident"
)

const (
	maxTextLen  = 3000
	httpTimeout = 10 * time.Second
)

// Notifier implements incident.Notifier against a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
	roster     incident.Roster
	logger     log.Logger
	now        func() time.Time
}

// New creates a new Slack notifier. If webhookURL is empty, every call is a
// no-op. perSecond bounds outbound webhook calls; <= 0 disables the limit.
func New(webhookURL string, perSecond float64, roster incident.Roster, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		roster:     roster,
		logger:     logger,
		now:        time.Now,
	}
}

// NotifyAssignment tells the assignee about a newly created incident.
func (n *Notifier) NotifyAssignment(ctx context.Context, inc *incident.Incident) error {
	if n.webhookURL == "" {
		n.logger.Info(ctx, "slack webhook not configured, skipping assignment notification", "incident_id", inc.ID)
		return nil
	}
	return n.post(ctx, n.assignmentMessage(inc))
}

// NotifyAction reports a remediation the assistant carried out on its own.
func (n *Notifier) NotifyAction(ctx context.Context, inc *incident.Incident, res *incident.ActionResult) error {
	if n.webhookURL == "" {
		n.logger.Info(ctx, "slack webhook not configured, skipping action notification", "incident_id", inc.ID)
		return nil
	}
	return n.post(ctx, n.actionMessage(inc, res))
}

func (n *Notifier) post(ctx context.Context, msg map[string]any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack: rate limit: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (n *Notifier) assignmentMessage(inc *incident.Incident) map[string]any {
	a := analysisOf(inc)
	assignee := orNA(a.AssigneeOrEmpty())

	blocks := []map[string]any{
		header(fmt.Sprintf("%s New incident: %s", priorityEmoji(a.Priority), inc.Title)),
		fieldsBlock(inc, a),
		section("Description", inc.Description),
		section("Recommended action", string(a.Action)),
		section("Recommendation", a.Recommendation),
		{"type": "divider"},
	}
	ctxText := fmt.Sprintf("Assigned to %s", assignee)
	if s, ok := n.roster.Find(a.AssigneeOrEmpty()); ok && s.Specialization != "" {
		ctxText += fmt.Sprintf(" (%s)", s.Specialization)
	}
	blocks = append(blocks, contextBlock(ctxText, n.now()))

	return map[string]any{
		"text":   fmt.Sprintf("New incident assigned to %s: %s", assignee, inc.Title),
		"blocks": blocks,
	}
}

func (n *Notifier) actionMessage(inc *incident.Incident, res *incident.ActionResult) map[string]any {
	a := analysisOf(inc)
	outcome := "Failed"
	if res.Success {
		outcome = "Succeeded"
	}

	return map[string]any{
		"text": fmt.Sprintf("Assistant remediated incident: %s", inc.Title),
		"blocks": []map[string]any{
			header(fmt.Sprintf("%s Assistant remediated: %s", outcomeEmoji(res.Success), inc.Title)),
			fieldsBlock(inc, a),
			section("Problem", inc.Description),
			section("Executed action", string(res.Action)),
			section("Recommendation", a.Recommendation),
			section("Backend outcome", fmt.Sprintf("%s - %s", outcome, res.Message)),
			{"type": "divider"},
			contextBlock("Remediated by "+incident.AssistantName, n.now()),
		},
	}
}

// analysisOf returns inc's analysis, or an empty one so the builders never
// dereference nil.
func analysisOf(inc *incident.Incident) *incident.Analysis {
	if inc.Analysis != nil {
		return inc.Analysis
	}
	return &incident.Analysis{Priority: inc.Priority}
}

func header(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": truncate(text, 150),
		},
	}
}

func fieldsBlock(inc *incident.Incident, a *incident.Analysis) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Incident ID:*\n%s", inc.ID),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Priority:*\n%s", strings.ToUpper(orNA(string(a.Priority)))),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Type:*\n%s", orNA(a.Type)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Target:*\n%s", orNA(a.TargetOrEmpty())),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Assigned to:*\n%s", orNA(a.AssigneeOrEmpty())),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func section(title, body string) map[string]any {
	text := truncate(body, maxTextLen)
	if text == "" {
		text = "_None._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*%s:*\n%s", title, text),
		},
	}
}

func contextBlock(text string, ts time.Time) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("warden • %s • %s", text, ts.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func priorityEmoji(p incident.Priority) string {
	switch p {
	case incident.PriorityCritical:
		return "\U0001f534" // red circle
	case incident.PriorityHigh:
		return "\U0001f7e0" // orange circle
	case incident.PriorityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func outcomeEmoji(ok bool) string {
	if ok {
		return "✅" // check mark
	}
	return "❌" // cross mark
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// truncate caps s at limit runes, ending in "..." when it was cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}
