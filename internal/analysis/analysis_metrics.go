package analysis

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for LLM calls made during analysis.
type Metrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	TokensIn     *prometheus.CounterVec
	TokensOut    *prometheus.CounterVec
}

// NewMetrics registers and returns analysis metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_llm_calls_total",
			Help: "Total LLM provider calls by stage, provider and status.",
		}, []string{"stage", "provider", "status"}),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}, []string{"stage", "provider"}),
		TokensIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}, []string{"provider"}),
		TokensOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}, []string{"provider"}),
	}

	reg.MustRegister(m.CallsTotal, m.CallDuration, m.TokensIn, m.TokensOut)
	return m
}

// Hooks returns CallHooks that update the corresponding metrics.
func (m *Metrics) Hooks() CallHooks {
	return CallHooks{
		OnCall: func(stage, provider string, res *Response, seconds float64, err error) {
			status := "success"
			if err != nil {
				status = "error"
			}
			m.CallsTotal.WithLabelValues(stage, provider, status).Inc()
			m.CallDuration.WithLabelValues(stage, provider).Observe(seconds)
			if res != nil {
				m.TokensIn.WithLabelValues(provider).Add(float64(res.InputTokens))
				m.TokensOut.WithLabelValues(provider).Add(float64(res.OutputTokens))
			}
		},
	}
}
