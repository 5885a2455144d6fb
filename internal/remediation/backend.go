// Package remediation dispatches the remediation action of an incident's
// analysis to an execution backend.
package remediation

import (
	"context"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Backend executes one remediation request. Implementations: mockbackend
// (simulated) and httpbackend (remote executor).
type Backend interface {
	Invoke(ctx context.Context, p Payload) (*BackendResponse, error)
}

// Details carries the human context sent with notify_human requests.
type Details struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Payload is the request sent to the execution backend.
type Payload struct {
	Action          incident.Action   `json:"action"`
	Target          *string           `json:"target"`
	IncidentID      string            `json:"incidentId"`
	Priority        incident.Priority `json:"priority"`
	IncidentDetails *Details          `json:"incidentDetails,omitempty"`

	// Autonomous marks the follow-up request issued on the assistant's behalf.
	Autonomous bool `json:"autonomous,omitempty"`
}

// BackendResponse is the executor's answer.
type BackendResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	ExecutionID *string   `json:"executionId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewPayload builds the backend request for inc. inc.Analysis must be set.
func NewPayload(inc *incident.Incident) Payload {
	a := inc.Analysis
	p := Payload{
		Action:     a.Action,
		Target:     a.Target,
		IncidentID: inc.ID,
		Priority:   a.Priority,
	}
	if a.Action == incident.ActionNotifyHuman {
		p.IncidentDetails = &Details{Title: inc.Title, Description: inc.Description}
	}
	return p
}
