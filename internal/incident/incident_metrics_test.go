package incident

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHooks(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	h := m.Hooks()

	h.OnComplete("created", 0.2)
	h.OnFallback("classify")
	h.OnDispatch(&ActionResult{Action: ActionClearCache, Success: true})
	h.OnDispatch(&ActionResult{Action: ActionNone, Success: true})
	h.OnDispatch(&ActionResult{
		Action: ActionRestartService, Reason: ReasonInvalidTarget,
		Autonomous: &ActionResult{Action: ActionRestartService, Success: true},
	})
	h.OnNotify("assignment", errors.New("boom"))
	h.OnTransition(StatusOpen, StatusClosed)

	checks := []struct {
		name string
		got  float64
	}{
		{"created", testutil.ToFloat64(m.IncidentsTotal.WithLabelValues("created"))},
		{"fallback", testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("classify"))},
		{"clear_cache success", testutil.ToFloat64(m.ActionsTotal.WithLabelValues("clear_cache", "success"))},
		{"none skipped", testutil.ToFloat64(m.ActionsTotal.WithLabelValues("none", "skipped"))},
		{"restart invalid", testutil.ToFloat64(m.ActionsTotal.WithLabelValues("restart_service", "invalid_target"))},
		{"autonomous", testutil.ToFloat64(m.AutonomousTotal.WithLabelValues("success"))},
		{"notify error", testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("assignment", "error"))},
		{"transition", testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("open", "closed"))},
	}
	for _, c := range checks {
		if c.got != 1 {
			t.Errorf("%s = %v, want 1", c.name, c.got)
		}
	}
}
