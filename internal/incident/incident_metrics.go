package incident

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the incident pipeline.
type Metrics struct {
	IncidentsTotal     *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	StageDuration      *prometheus.HistogramVec
	FallbacksTotal     *prometheus.CounterVec
	ActionsTotal       *prometheus.CounterVec
	AutonomousTotal    *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
}

// NewMetrics registers and returns incident metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IncidentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_incidents_total",
			Help: "Total ingestion attempts by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_pipeline_duration_seconds",
			Help:    "Duration of the creation pipeline in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		}, []string{"stage"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_fallbacks_total",
			Help: "Stages that degraded to their fallback value.",
		}, []string{"stage"}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_actions_total",
			Help: "Remediation dispatches by action and result.",
		}, []string{"action", "result"}),
		AutonomousTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_autonomous_actions_total",
			Help: "Autonomous assistant follow-up dispatches by result.",
		}, []string{"result"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_notifications_total",
			Help: "Notifications sent by kind and status.",
		}, []string{"kind", "status"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_status_transitions_total",
			Help: "Applied status transitions.",
		}, []string{"from", "to"}),
	}

	reg.MustRegister(
		m.IncidentsTotal,
		m.PipelineDuration,
		m.StageDuration,
		m.FallbacksTotal,
		m.ActionsTotal,
		m.AutonomousTotal,
		m.NotificationsTotal,
		m.TransitionsTotal,
	)

	return m
}

func actionResultLabel(res *ActionResult) string {
	switch {
	case res.Skipped():
		return "skipped"
	case res.Success:
		return "success"
	case res.Reason != "":
		return string(res.Reason)
	default:
		return "failure"
	}
}

// Hooks returns PipelineHooks that update the corresponding metrics.
func (m *Metrics) Hooks() PipelineHooks {
	return PipelineHooks{
		OnStage: func(stage string, seconds float64) {
			m.StageDuration.WithLabelValues(stage).Observe(seconds)
		},
		OnFallback: func(stage string) {
			m.FallbacksTotal.WithLabelValues(stage).Inc()
		},
		OnComplete: func(outcome string, seconds float64) {
			m.IncidentsTotal.WithLabelValues(outcome).Inc()
			m.PipelineDuration.WithLabelValues(outcome).Observe(seconds)
		},
		OnDispatch: func(res *ActionResult) {
			m.ActionsTotal.WithLabelValues(string(res.Action), actionResultLabel(res)).Inc()
			if res.Autonomous != nil {
				m.AutonomousTotal.WithLabelValues(actionResultLabel(res.Autonomous)).Inc()
			}
		},
		OnNotify: func(kind string, err error) {
			status := "success"
			if err != nil {
				status = "error"
			}
			m.NotificationsTotal.WithLabelValues(kind, status).Inc()
		},
		OnTransition: func(from, to Status) {
			m.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
		},
	}
}
