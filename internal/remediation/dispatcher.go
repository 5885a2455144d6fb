package remediation

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Dispatcher implements incident.Dispatcher. It never returns errors; every
// failure is encoded in the ActionResult.
type Dispatcher struct {
	backend  Backend
	notifier incident.Notifier
	logger   log.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. notifier may be nil; timeout bounds each
// backend call (0 = caller's context only).
func NewDispatcher(backend Backend, notifier incident.Notifier, logger log.Logger, timeout time.Duration) *Dispatcher {
	if backend == nil {
		panic(xerrors.New("execution backend is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// CanExecute reports whether inc has an action worth dispatching: an analysis
// is present, the action is not none and the incident is not resolved or closed.
func (d *Dispatcher) CanExecute(inc *incident.Incident) bool {
	if inc == nil || inc.Analysis == nil {
		return false
	}
	if inc.Analysis.Action == incident.ActionNone {
		return false
	}
	return !inc.Status.Terminal()
}

// Execute validates the analysis action and dispatches it. When the incident is
// assigned to the assistant a second, autonomous dispatch follows.
func (d *Dispatcher) Execute(ctx context.Context, inc *incident.Incident) *incident.ActionResult {
	if inc == nil || inc.Analysis == nil {
		id := ""
		if inc != nil {
			id = inc.ID
		}
		return d.failed(id, incident.ActionNone, incident.ReasonMissingAnalysis, "No analysis available for this incident")
	}

	a := inc.Analysis
	switch a.Action {
	case incident.ActionNone:
		return &incident.ActionResult{
			IncidentID: inc.ID,
			Action:     incident.ActionNone,
			Success:    true,
			Message:    "No action required",
			Timestamp:  d.now(),
		}
	case incident.ActionRestartService, incident.ActionScaleUp, incident.ActionClearCache, incident.ActionNotifyHuman:
	default:
		return d.failed(inc.ID, a.Action, incident.ReasonUnknownAction, fmt.Sprintf("Unknown action: %s", a.Action))
	}

	if !ValidTarget(a.Action, a.Target) {
		msg := fmt.Sprintf("Invalid target for %s: %s", a.Action, a.TargetOrEmpty())
		if a.Target == nil {
			msg = fmt.Sprintf("%s action requires a target", a.Action)
		}
		return d.failed(inc.ID, a.Action, incident.ReasonInvalidTarget, msg)
	}

	res := d.dispatchForAction(ctx, inc)
	if incident.IsAssistant(a.AssignedTo) {
		res.Autonomous = d.dispatchForAutonomousAssistant(ctx, inc)
	}
	return res
}

// dispatchForAction is the primary backend call for the analysis action.
func (d *Dispatcher) dispatchForAction(ctx context.Context, inc *incident.Incident) *incident.ActionResult {
	return d.invoke(ctx, NewPayload(inc))
}

// dispatchForAutonomousAssistant runs the action again on the assistant's own
// authority and reports the outcome to the notifier. This is a second,
// separate execution of the same action.
func (d *Dispatcher) dispatchForAutonomousAssistant(ctx context.Context, inc *incident.Incident) *incident.ActionResult {
	p := NewPayload(inc)
	p.Autonomous = true
	res := d.invoke(ctx, p)

	L := d.logger.With("incident_id", inc.ID, "action", res.Action)
	L.Info(ctx, "assistant executed remediation", "success", res.Success, "message", res.Message)

	if d.notifier == nil {
		return res
	}
	if err := d.notifier.NotifyAction(ctx, inc, res); err != nil {
		L.Warn(ctx, "assistant action notification failed", "error", err)
	}
	return res
}

func (d *Dispatcher) invoke(ctx context.Context, p Payload) *incident.ActionResult {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := d.backend.Invoke(ctx, p)
	if err != nil {
		d.logger.Warn(ctx, "execution backend call failed",
			"incident_id", p.IncidentID, "action", p.Action, "error", err)
		return d.failed(p.IncidentID, p.Action, incident.ReasonBackendFailure,
			fmt.Sprintf("Failed to execute %s: %v", p.Action, err))
	}

	ts := resp.Timestamp
	if ts.IsZero() {
		ts = d.now()
	}
	res := &incident.ActionResult{
		IncidentID:  p.IncidentID,
		Action:      p.Action,
		Success:     resp.Success,
		Message:     resp.Message,
		ExecutionID: resp.ExecutionID,
		Timestamp:   ts,
	}
	if !resp.Success {
		res.Reason = incident.ReasonBackendRejected
	}
	return res
}

func (d *Dispatcher) failed(id string, action incident.Action, reason incident.FailureReason, msg string) *incident.ActionResult {
	return &incident.ActionResult{
		IncidentID: id,
		Action:     action,
		Success:    false,
		Message:    msg,
		Reason:     reason,
		Timestamp:  d.now(),
	}
}
