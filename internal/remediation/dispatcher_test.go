package remediation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/warden/internal/incident"
)

type fakeBackend struct {
	mu       sync.Mutex
	payloads []Payload
	resp     *BackendResponse
	err      error
}

func (f *fakeBackend) Invoke(_ context.Context, p Payload) (*BackendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	id := "exec-" + p.IncidentID
	return &BackendResponse{Success: true, Message: "ok", ExecutionID: &id, Timestamp: time.Now()}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeNotifier struct {
	actions []*incident.ActionResult
	err     error
}

func (f *fakeNotifier) NotifyAssignment(context.Context, *incident.Incident) error { return nil }

func (f *fakeNotifier) NotifyAction(_ context.Context, _ *incident.Incident, res *incident.ActionResult) error {
	f.actions = append(f.actions, res)
	return f.err
}

func newIncident(action incident.Action, target *string, assignee string) *incident.Incident {
	a := &incident.Analysis{
		Type:           "outage",
		Action:         action,
		Target:         target,
		Priority:       incident.PriorityHigh,
		Recommendation: "do the thing",
	}
	if assignee != "" {
		a.AssignedTo = incident.Ptr(assignee)
	}
	return &incident.Incident{
		ID:          "inc-1",
		Title:       "API down",
		Description: "500s everywhere",
		Status:      incident.StatusOpen,
		Priority:    incident.PriorityHigh,
		Analysis:    a,
	}
}

func TestExecute_MissingAnalysis(t *testing.T) {
	be := &fakeBackend{}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), &incident.Incident{ID: "inc-1"})
	assert.False(t, res.Success)
	assert.Equal(t, incident.ReasonMissingAnalysis, res.Reason)
	assert.Equal(t, 0, be.calls())
}

func TestExecute_NoneSkipsBackend(t *testing.T) {
	be := &fakeBackend{}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionNone, nil, "Anna"))
	assert.True(t, res.Success)
	assert.True(t, res.Skipped())
	assert.Equal(t, "No action required", res.Message)
	assert.Equal(t, 0, be.calls())
}

func TestExecute_UnknownAction(t *testing.T) {
	be := &fakeBackend{}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), newIncident("reboot_everything", nil, ""))
	assert.False(t, res.Success)
	assert.Equal(t, incident.ReasonUnknownAction, res.Reason)
	assert.Equal(t, 0, be.calls())
}

func TestExecute_InvalidTarget(t *testing.T) {
	tests := []struct {
		name   string
		action incident.Action
		target *string
	}{
		{"restart database", incident.ActionRestartService, incident.Ptr("database")},
		{"restart without target", incident.ActionRestartService, nil},
		{"clear api cache", incident.ActionClearCache, incident.Ptr("api")},
		{"scale auth", incident.ActionScaleUp, incident.Ptr("auth-service")},
		{"restart unknown service", incident.ActionRestartService, incident.Ptr("unknown-service")},
		{"scale unknown service", incident.ActionScaleUp, incident.Ptr("unknown-service")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{}
			d := NewDispatcher(be, nil, nil, 0)

			res := d.Execute(context.Background(), newIncident(tt.action, tt.target, "Anna"))
			assert.False(t, res.Success)
			assert.Equal(t, incident.ReasonInvalidTarget, res.Reason)
			assert.Equal(t, 0, be.calls())
		})
	}
}

func TestExecute_Success(t *testing.T) {
	be := &fakeBackend{}
	n := &fakeNotifier{}
	d := NewDispatcher(be, n, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionRestartService, incident.Ptr("api"), "Anna"))
	require.True(t, res.Success)
	assert.Empty(t, res.Reason)
	require.NotNil(t, res.ExecutionID)
	assert.Equal(t, "exec-inc-1", *res.ExecutionID)
	assert.Nil(t, res.Autonomous)

	require.Equal(t, 1, be.calls())
	p := be.payloads[0]
	assert.Equal(t, incident.ActionRestartService, p.Action)
	assert.Nil(t, p.IncidentDetails)
	assert.False(t, p.Autonomous)
	assert.Empty(t, n.actions)
}

func TestExecute_NotifyHumanCarriesDetails(t *testing.T) {
	be := &fakeBackend{}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionNotifyHuman, nil, "Anna"))
	require.True(t, res.Success)
	require.Equal(t, 1, be.calls())
	require.NotNil(t, be.payloads[0].IncidentDetails)
	assert.Equal(t, "API down", be.payloads[0].IncidentDetails.Title)
}

func TestExecute_BackendFailure(t *testing.T) {
	be := &fakeBackend{err: errors.New("connection refused")}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionClearCache, incident.Ptr("cache"), "Anna"))
	assert.False(t, res.Success)
	assert.Equal(t, incident.ReasonBackendFailure, res.Reason)
	assert.Contains(t, res.Message, "connection refused")
}

func TestExecute_BackendRejected(t *testing.T) {
	be := &fakeBackend{resp: &BackendResponse{Success: false, Message: "quota exceeded"}}
	d := NewDispatcher(be, nil, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionScaleUp, incident.Ptr("cache"), "Anna"))
	assert.False(t, res.Success)
	assert.Equal(t, incident.ReasonBackendRejected, res.Reason)
	assert.Equal(t, "quota exceeded", res.Message)
	assert.False(t, res.Timestamp.IsZero())
}

func TestExecute_AssistantRunsAutonomousFollowUp(t *testing.T) {
	be := &fakeBackend{}
	n := &fakeNotifier{}
	d := NewDispatcher(be, n, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionRestartService, incident.Ptr("api"), incident.AssistantName))
	require.True(t, res.Success)
	require.NotNil(t, res.Autonomous)
	assert.True(t, res.Autonomous.Success)

	require.Equal(t, 2, be.calls())
	assert.False(t, be.payloads[0].Autonomous)
	assert.True(t, be.payloads[1].Autonomous)

	require.Len(t, n.actions, 1)
	assert.Same(t, res.Autonomous, n.actions[0])
}

func TestExecute_AssistantNotifyFailureIsNotFatal(t *testing.T) {
	be := &fakeBackend{}
	n := &fakeNotifier{err: errors.New("slack down")}
	d := NewDispatcher(be, n, nil, 0)

	res := d.Execute(context.Background(), newIncident(incident.ActionClearCache, incident.Ptr("cache"), incident.AssistantName))
	assert.True(t, res.Success)
	require.NotNil(t, res.Autonomous)
	assert.Len(t, n.actions, 1)
}

func TestExecute_Timeout(t *testing.T) {
	be := blockingBackend{}
	d := NewDispatcher(be, nil, nil, 10*time.Millisecond)

	res := d.Execute(context.Background(), newIncident(incident.ActionClearCache, incident.Ptr("cache"), "Anna"))
	assert.False(t, res.Success)
	assert.Equal(t, incident.ReasonBackendFailure, res.Reason)
}

type blockingBackend struct{}

func (blockingBackend) Invoke(ctx context.Context, _ Payload) (*BackendResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCanExecute(t *testing.T) {
	d := NewDispatcher(&fakeBackend{}, nil, nil, 0)

	assert.False(t, d.CanExecute(nil))
	assert.False(t, d.CanExecute(&incident.Incident{Status: incident.StatusOpen}))
	assert.False(t, d.CanExecute(newIncident(incident.ActionNone, nil, "")))
	assert.True(t, d.CanExecute(newIncident(incident.ActionClearCache, incident.Ptr("cache"), "")))

	inv := newIncident(incident.ActionClearCache, incident.Ptr("cache"), "")
	inv.Status = incident.StatusInvestigating
	assert.True(t, d.CanExecute(inv))

	for _, s := range []incident.Status{incident.StatusResolved, incident.StatusClosed} {
		inc := newIncident(incident.ActionClearCache, incident.Ptr("cache"), "")
		inc.Status = s
		assert.False(t, d.CanExecute(inc), s)
	}
}

func TestNewDispatcher_NilBackendPanics(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil, nil, nil, 0) })
}
