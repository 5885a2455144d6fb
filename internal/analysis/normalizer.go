package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

// DegradedTitle is the title of the draft returned when normalization fails.
const DegradedTitle = "Unknown incident (normalization failed)"

const rawExcerptLen = 200

// Normalizer implements incident.Normalizer. With a Provider it asks the model
// to summarize the payload; without one it reads well-known alert fields.
type Normalizer struct {
	provider Provider
	timeout  time.Duration
	hooks    CallHooks
}

// NewNormalizer creates a Normalizer. provider may be nil.
func NewNormalizer(provider Provider, timeout time.Duration, hooks CallHooks) *Normalizer {
	return &Normalizer{provider: provider, timeout: timeout, hooks: hooks}
}

type normalizedOutput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// Normalize always returns a usable Draft. On any failure it returns the
// degraded draft and an error wrapping incident.ErrUpstreamUnavailable.
func (n *Normalizer) Normalize(ctx context.Context, raw json.RawMessage) (incident.Draft, error) {
	raw = asJSON(raw)

	if n.provider == nil {
		return fieldDraft(raw), nil
	}

	pretty := prettyJSON(raw)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := n.provider.Complete(ctx, &Request{
		System:    normalizeSystemPrompt,
		Prompt:    normalizePrompt(pretty),
		MaxTokens: 1024,
		JSON:      true,
	})
	n.hooks.call("normalize", n.provider.Name(), res, time.Since(start).Seconds(), err)
	if err != nil {
		return degradedDraft(raw), fmt.Errorf("%w: normalize: %w", incident.ErrUpstreamUnavailable, err)
	}

	var out normalizedOutput
	if err := decodeObject(res.Text, &out); err != nil {
		return degradedDraft(raw), fmt.Errorf("%w: normalize: %w", incident.ErrUpstreamUnavailable, err)
	}
	out.Title = strings.TrimSpace(out.Title)
	out.Description = strings.TrimSpace(out.Description)
	if out.Title == "" || out.Description == "" {
		return degradedDraft(raw), fmt.Errorf("%w: normalize: empty title or description", incident.ErrUpstreamUnavailable)
	}

	return incident.Draft{
		Title:       out.Title,
		Description: out.Description,
		Status:      incident.StatusOpen,
		Priority:    coercePriority(out.Priority),
	}, nil
}

// asJSON wraps input that is not valid JSON as a JSON string, so plain text
// descriptions are accepted as payloads.
func asJSON(raw json.RawMessage) json.RawMessage {
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(string(raw))
	return b
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}

func coercePriority(p string) incident.Priority {
	pr := incident.Priority(strings.ToLower(strings.TrimSpace(p)))
	if pr.Valid() {
		return pr
	}
	return incident.PriorityMedium
}

func degradedDraft(raw json.RawMessage) incident.Draft {
	excerpt := string(raw)
	if r := []rune(excerpt); len(r) > rawExcerptLen {
		excerpt = string(r[:rawExcerptLen])
	}
	return incident.Draft{
		Title:       DegradedTitle,
		Description: "Raw data could not be normalized: " + excerpt,
		Status:      incident.StatusOpen,
		Priority:    incident.PriorityMedium,
	}
}

var (
	titleKeys       = []string{"title", "alertname", "summary", "name", "message", "description"}
	descriptionKeys = []string{"description", "message", "summary", "details", "error", "log"}
	priorityKeys    = []string{"priority", "severity", "level"}
)

// fieldDraft builds a Draft from common alert fields (top level, labels and
// annotations). A bare JSON string is used as both title and description.
func fieldDraft(raw json.RawMessage) incident.Draft {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return degradedDraft(raw)
		}
		return incident.Draft{
			Title:       firstLine(s),
			Description: s,
			Status:      incident.StatusOpen,
			Priority:    incident.PriorityMedium,
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return degradedDraft(raw)
	}
	fields := flatten(obj)

	title := pick(fields, titleKeys)
	desc := pick(fields, descriptionKeys)
	if title == "" && desc == "" {
		return degradedDraft(raw)
	}
	if title == "" {
		title = firstLine(desc)
	}
	if desc == "" {
		desc = title
	}
	return incident.Draft{
		Title:       title,
		Description: desc,
		Status:      incident.StatusOpen,
		Priority:    severityPriority(pick(fields, priorityKeys)),
	}
}

// flatten merges string values from the top level and the nested labels and
// annotations maps, top level winning.
func flatten(obj map[string]any) map[string]string {
	out := make(map[string]string)
	for _, nested := range []string{"annotations", "labels", "tags"} {
		if m, ok := obj[nested].(map[string]any); ok {
			for k, v := range m {
				if s, ok := v.(string); ok {
					out[strings.ToLower(k)] = s
				}
			}
		}
	}
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[strings.ToLower(k)] = s
		}
	}
	return out
}

func pick(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	const maxTitle = 80
	if r := []rune(line); len(r) > maxTitle {
		return string(r[:maxTitle])
	}
	return line
}

// severityPriority maps common severity vocabularies onto Priority.
func severityPriority(s string) incident.Priority {
	switch strings.ToLower(s) {
	case "critical", "fatal", "emergency", "p1", "sev1":
		return incident.PriorityCritical
	case "high", "error", "major", "p2", "sev2":
		return incident.PriorityHigh
	case "low", "info", "minor", "p4", "sev4":
		return incident.PriorityLow
	default:
		return coercePriority(s)
	}
}
