package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

// FallbackRecommendation is the recommendation of the safe fallback analysis.
const FallbackRecommendation = "Could not analyze the incident. Manual review required."

// Fallback returns the fixed safe analysis used when classification fails.
func Fallback() incident.Analysis {
	return incident.Analysis{
		Type:           "unknown",
		Action:         incident.ActionNotifyHuman,
		Target:         nil,
		Priority:       incident.PriorityMedium,
		Recommendation: FallbackRecommendation,
		AssignedTo:     incident.Ptr(incident.AssistantName),
	}
}

type rule struct {
	keywords       []string
	kind           string
	priority       incident.Priority
	action         incident.Action
	recommendation string
}

// rules are evaluated in order; the first rule with a matching keyword wins.
var rules = []rule{
	{[]string{"down", "crashed"}, "server_down", incident.PriorityCritical, incident.ActionRestartService,
		"Restart the affected service and verify it comes back healthy."},
	{[]string{"cpu", "slow"}, "high_cpu", incident.PriorityHigh, incident.ActionScaleUp,
		"Scale up the affected resource and investigate the load source."},
	{[]string{"memory", "leak"}, "memory_leak", incident.PriorityHigh, incident.ActionClearCache,
		"Clear the cache and monitor memory usage for regrowth."},
}

const untargetedRecommendation = "No known resource could be identified."

// UnknownTarget is the placeholder target for restart and scale actions whose
// resource could not be inferred. No action accepts it.
const UnknownTarget = "unknown-service"

var unknownRule = rule{nil, "unknown", incident.PriorityMedium, incident.ActionNotifyHuman,
	"Notify on-call staff for manual investigation."}

// specialtyKeywords maps a target onto words found in staff specializations.
var specialtyKeywords = map[string][]string{
	TargetDatabase:    {"database"},
	TargetAuthService: {"backend"},
	TargetAPI:         {"api"},
	TargetCache:       {"cache"},
}

// kindKeywords is used when no target was inferred.
var kindKeywords = map[string][]string{
	"high_cpu":    {"performance"},
	"memory_leak": {"infrastructure"},
}

// KeywordClassifier is the deterministic classifier. It never fails.
type KeywordClassifier struct {
	roster incident.Roster
}

// NewKeywordClassifier creates a KeywordClassifier assigning from roster.
func NewKeywordClassifier(roster incident.Roster) *KeywordClassifier {
	return &KeywordClassifier{roster: roster}
}

// Classify applies the keyword table to the lowercased title and description.
func (c *KeywordClassifier) Classify(_ context.Context, d incident.Draft) (incident.Analysis, error) {
	text := strings.ToLower(d.Title + " " + d.Description)

	r := unknownRule
	for _, candidate := range rules {
		if containsAny(text, candidate.keywords) {
			r = candidate
			break
		}
	}

	target := InferTarget(text)
	assignee := assign(c.roster, r.kind, target)
	rec := r.recommendation
	if r.action.RequiresTarget() && target == nil {
		// keep the table's action; the dispatcher rejects a placeholder it cannot act on
		target = incident.Ptr(placeholderTarget(r.action))
		rec = untargetedRecommendation + " " + rec
	}
	return incident.Analysis{
		Type:           r.kind,
		Action:         r.action,
		Target:         target,
		Priority:       r.priority,
		Recommendation: rec,
		AssignedTo:     incident.Ptr(assignee),
	}, nil
}

// placeholderTarget names the resource a targeted action falls back to when
// none could be inferred.
func placeholderTarget(a incident.Action) string {
	if a == incident.ActionClearCache {
		return TargetCache
	}
	return UnknownTarget
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// assign picks the first non-assistant roster member whose specialization fits
// the target (or, lacking one, the incident type). Falls back to the assistant.
func assign(roster incident.Roster, kind string, target *string) string {
	var words []string
	if target != nil {
		words = specialtyKeywords[*target]
	} else {
		words = kindKeywords[kind]
	}
	for _, s := range roster {
		if s.Name == incident.AssistantName {
			continue
		}
		if containsAny(strings.ToLower(s.Specialization), words) {
			return s.Name
		}
	}
	return incident.AssistantName
}

// LLMClassifier asks a Provider for the analysis. Output is untrusted and goes
// through the Validator in the pipeline.
type LLMClassifier struct {
	provider Provider
	roster   incident.Roster
	timeout  time.Duration
	hooks    CallHooks
}

// NewLLMClassifier creates an LLMClassifier.
func NewLLMClassifier(provider Provider, roster incident.Roster, timeout time.Duration, hooks CallHooks) *LLMClassifier {
	return &LLMClassifier{provider: provider, roster: roster, timeout: timeout, hooks: hooks}
}

type classifyOutput struct {
	Type           string  `json:"type"`
	Action         string  `json:"action"`
	Target         *string `json:"target"`
	Priority       string  `json:"priority"`
	Recommendation string  `json:"recommendation"`
	AssignedTo     *string `json:"assignedTo"`
}

// Classify returns the model's analysis, or Fallback() with an error wrapping
// incident.ErrUpstreamUnavailable.
func (c *LLMClassifier) Classify(ctx context.Context, d incident.Draft) (incident.Analysis, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.provider.Complete(ctx, &Request{
		System:    classifySystemPrompt,
		Prompt:    classifyPrompt(d, c.roster),
		MaxTokens: 1024,
		JSON:      true,
	})
	c.hooks.call("classify", c.provider.Name(), res, time.Since(start).Seconds(), err)
	if err != nil {
		return Fallback(), fmt.Errorf("%w: classify: %w", incident.ErrUpstreamUnavailable, err)
	}

	var out classifyOutput
	if err := decodeObject(res.Text, &out); err != nil {
		return Fallback(), fmt.Errorf("%w: classify: %w", incident.ErrUpstreamUnavailable, err)
	}

	a := incident.Analysis{
		Type:           strings.TrimSpace(out.Type),
		Action:         incident.Action(strings.TrimSpace(out.Action)),
		Target:         cleanTarget(out.Target),
		Priority:       incident.Priority(strings.ToLower(strings.TrimSpace(out.Priority))),
		Recommendation: strings.TrimSpace(out.Recommendation),
		AssignedTo:     incident.Ptr(c.resolveAssignee(out.AssignedTo)),
	}
	if a.Target == nil && a.Action.RequiresTarget() {
		a.Target = InferTarget(strings.ToLower(d.Title + " " + d.Description))
	}
	return a, nil
}

func cleanTarget(t *string) *string {
	if t == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*t))
	if v == "" || v == "null" {
		return nil
	}
	return &v
}

// resolveAssignee maps the model's pick onto the canonical roster name.
func (c *LLMClassifier) resolveAssignee(name *string) string {
	if name == nil || len(c.roster) == 0 {
		return incident.AssistantName
	}
	s, ok := c.roster.Find(strings.TrimSpace(*name))
	if !ok {
		return incident.AssistantName
	}
	return s.Name
}
