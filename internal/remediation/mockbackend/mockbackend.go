// Package mockbackend simulates a remediation executor. It logs what it would
// do and reports success after a short latency.
package mockbackend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/remediation"
)

// DefaultLatency mimics the round trip to a real executor.
const DefaultLatency = 500 * time.Millisecond

// Backend is the simulated executor.
type Backend struct {
	logger  log.Logger
	latency time.Duration
	now     func() time.Time
}

// New returns a Backend that sleeps for latency before answering.
func New(logger log.Logger, latency time.Duration) *Backend {
	if logger == nil {
		logger = log.Nop()
	}
	return &Backend{logger: logger, latency: latency, now: time.Now}
}

// Invoke implements remediation.Backend.
func (b *Backend) Invoke(ctx context.Context, p remediation.Payload) (*remediation.BackendResponse, error) {
	if b.latency > 0 {
		t := time.NewTimer(b.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	L := b.logger.With("incident_id", p.IncidentID, "action", p.Action, "priority", p.Priority, "autonomous", p.Autonomous)

	var kind, msg string
	switch p.Action {
	case incident.ActionRestartService:
		target := targetOr(p.Target, "default-service")
		kind, msg = "restart", fmt.Sprintf("Service %s restart initiated", target)
		L.Info(ctx, "simulated service restart", "target", target)
	case incident.ActionScaleUp:
		target := targetOr(p.Target, "default-resource")
		kind, msg = "scale", fmt.Sprintf("Resource %s scaling initiated", target)
		L.Info(ctx, "simulated scale up", "target", target)
	case incident.ActionClearCache:
		target := targetOr(p.Target, "default-cache")
		kind, msg = "cache", fmt.Sprintf("Cache %s cleared successfully", target)
		L.Info(ctx, "simulated cache clear", "target", target)
	case incident.ActionNotifyHuman:
		kind, msg = "notify", "Human notification sent successfully"
		if d := p.IncidentDetails; d != nil {
			L.Info(ctx, "simulated human notification", "title", d.Title)
		} else {
			L.Info(ctx, "simulated human notification")
		}
	case incident.ActionNone:
		kind, msg = "mock-exec", "No action required"
	default:
		return &remediation.BackendResponse{
			Success:   false,
			Message:   fmt.Sprintf("Unknown action: %s", p.Action),
			Timestamp: b.now(),
		}, nil
	}

	id := kind + "-" + uuid.NewString()
	return &remediation.BackendResponse{
		Success:     true,
		Message:     msg,
		ExecutionID: &id,
		Timestamp:   b.now(),
	}, nil
}

func targetOr(t *string, def string) string {
	if t == nil || *t == "" {
		return def
	}
	return *t
}
