package analysis

import (
	"fmt"
	"strings"

	"github.com/linnemanlabs/warden/internal/incident"
)

const normalizeSystemPrompt = `You normalize raw monitoring data into a structured incident record.
Respond with a single JSON object and nothing else:
{
  "title": "short descriptive title (max 10 words)",
  "description": "summary of the problem including relevant details from logs and metrics",
  "status": "open",
  "priority": "critical" | "high" | "medium" | "low"
}`

const classifySystemPrompt = `You analyze IT incidents and route them to the right person.
Classify the incident with these rules:
- mentions "down" or "crashed": type "server_down", priority "critical", action "restart_service"
- mentions "cpu" or "slow": type "high_cpu", priority "high", action "scale_up"
- mentions "memory" or "leak": type "memory_leak", priority "high", action "clear_cache"
- otherwise: type "unknown", priority "medium", action "notify_human"

target must be one of "api", "auth-service", "database", "cache", or null when no
known resource is affected. assignedTo must be the name of exactly one staff member
from the list, chosen by specialization.

Respond with a single JSON object and nothing else:
{
  "type": "server_down" | "high_cpu" | "memory_leak" | "unknown",
  "priority": "critical" | "high" | "medium" | "low",
  "action": "restart_service" | "scale_up" | "clear_cache" | "notify_human" | "none",
  "target": "api" | "auth-service" | "database" | "cache" | null,
  "recommendation": "one short sentence on what should be done",
  "assignedTo": "staff member name"
}`

func normalizePrompt(pretty string) string {
	return "Raw data:\n" + pretty
}

func classifyPrompt(d incident.Draft, roster incident.Roster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incident:\nTitle: %s\nDescription: %s\n", d.Title, d.Description)
	if d.Priority != "" {
		fmt.Fprintf(&b, "Reported priority: %s\n", d.Priority)
	}
	b.WriteString("\nAvailable staff:\n")
	for _, s := range roster {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Specialization)
	}
	return b.String()
}
