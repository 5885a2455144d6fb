package incident

import "strings"

// AssistantName is the roster entry that represents the automated assistant.
// Incidents assigned to it are remediated on the assistant's own authority.
const AssistantName = "AI Assistant"

// Staff is a member of the on-call roster.
type Staff struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// Roster is the read-only set of people (and the assistant) incidents can be assigned to.
type Roster []Staff

// DefaultRoster returns the built-in roster.
func DefaultRoster() Roster {
	return Roster{
		{ID: "1", Name: "Anna", Specialization: "Database & Backend"},
		{ID: "2", Name: "Johan", Specialization: "API & Performance"},
		{ID: "3", Name: "Lisa", Specialization: "Cache & Infrastructure"},
		{ID: "4", Name: AssistantName, Specialization: "General troubleshooting & unknown issues"},
	}
}

// Find returns the staff member with the given name (case-insensitive).
func (r Roster) Find(name string) (Staff, bool) {
	for _, s := range r {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Staff{}, false
}

// IsAssistant reports whether name refers to the automated assistant.
func IsAssistant(name *string) bool {
	return name != nil && *name == AssistantName
}
