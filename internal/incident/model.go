package incident

import "time"

// Status tracks where an incident is in its lifecycle.
type Status string

const (
	// StatusOpen is the initial status of every incident
	StatusOpen Status = "open"

	// StatusInvestigating means someone (or something) is working on it
	StatusInvestigating Status = "investigating"

	// StatusResolved means the underlying problem is fixed
	StatusResolved Status = "resolved"

	// StatusClosed is terminal
	StatusClosed Status = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether remediation is no longer allowed in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusClosed:
		return true
	case StatusOpen, StatusInvestigating:
		return false
	}
	return false
}

// Priority is assigned once at classification time.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Action is a remediation the pipeline knows how to dispatch.
type Action string

const (
	ActionRestartService Action = "restart_service"
	ActionScaleUp        Action = "scale_up"
	ActionClearCache     Action = "clear_cache"
	ActionNotifyHuman    Action = "notify_human"
	ActionNone           Action = "none"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionRestartService, ActionScaleUp, ActionClearCache, ActionNotifyHuman, ActionNone:
		return true
	}
	return false
}

// RequiresTarget reports whether the action must name the resource it acts on.
func (a Action) RequiresTarget() bool {
	switch a {
	case ActionRestartService, ActionScaleUp, ActionClearCache:
		return true
	case ActionNotifyHuman, ActionNone:
		return false
	}
	return false
}

// Analysis is the classification output attached to an incident.
type Analysis struct {
	Type           string   `json:"type" validate:"required"`
	Action         Action   `json:"action" validate:"required,incident_action"`
	Target         *string  `json:"target"`
	Priority       Priority `json:"priority" validate:"required,incident_priority"`
	Recommendation string   `json:"recommendation" validate:"required"`
	AssignedTo     *string  `json:"assignedTo"`
}

// TargetOrEmpty returns the target name, or "" when the analysis has none.
func (a *Analysis) TargetOrEmpty() string {
	if a == nil || a.Target == nil {
		return ""
	}
	return *a.Target
}

// AssigneeOrEmpty returns the assignee name, or "" when unassigned.
func (a *Analysis) AssigneeOrEmpty() string {
	if a == nil || a.AssignedTo == nil {
		return ""
	}
	return *a.AssignedTo
}

// Draft is the normalized form of a raw monitoring payload, before it has an identity.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
}

// Incident is a tracked operational problem.
type Incident struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Analysis    *Analysis `json:"analysis,omitempty"`
}

// Clone returns a deep copy so stores never share pointers with callers.
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	cp := *i
	if i.Analysis != nil {
		a := *i.Analysis
		if a.Target != nil {
			t := *a.Target
			a.Target = &t
		}
		if a.AssignedTo != nil {
			n := *a.AssignedTo
			a.AssignedTo = &n
		}
		cp.Analysis = &a
	}
	return &cp
}

// FailureReason classifies why a dispatch did not succeed.
type FailureReason string

const (
	ReasonMissingAnalysis FailureReason = "missing_analysis"
	ReasonInvalidTarget   FailureReason = "invalid_target"
	ReasonUnknownAction   FailureReason = "unknown_action"
	ReasonBackendFailure  FailureReason = "backend_failure"
	ReasonBackendRejected FailureReason = "backend_rejected"

	// ReasonNotExecutable marks a batch entry that was not dispatched because
	// the incident is resolved or closed.
	ReasonNotExecutable FailureReason = "not_executable"
)

// ActionResult is the ephemeral record of one dispatch attempt.
type ActionResult struct {
	IncidentID  string        `json:"incidentId"`
	Action      Action        `json:"action"`
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Reason      FailureReason `json:"reason,omitempty"`
	ExecutionID *string       `json:"executionId"`
	Timestamp   time.Time     `json:"timestamp"`

	// Autonomous is the outcome of the assistant's own execution, when the
	// incident was assigned to it.
	Autonomous *ActionResult `json:"autonomous,omitempty"`
}

// Skipped reports whether nothing was dispatched, either because no action was
// needed or because the incident no longer accepts remediation.
func (r *ActionResult) Skipped() bool {
	if r == nil {
		return false
	}
	return (r.Action == ActionNone && r.Success) || r.Reason == ReasonNotExecutable
}

// Ptr is a small helper for the optional string fields of Analysis.
func Ptr(s string) *string {
	return &s
}
