package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors for the scan pipeline.
type Metrics struct {
	ScansTotal        prometheus.Counter
	GateEvaluations   *prometheus.CounterVec
	GateFailures      *prometheus.CounterVec
	SignalsEmitted    *prometheus.CounterVec
	SignalsSuppressed prometheus.Counter
	CooldownSkips     prometheus.Counter
	ProviderFallbacks *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// NewMetrics creates the collector set. Register attaches it to a registry;
// tests can skip registration entirely.
func NewMetrics() *Metrics {
	return &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockrun_scans_total",
			Help: "Total symbol/timeframe scan evaluations",
		}),
		GateEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockrun_gate_evaluations_total",
			Help: "Fundamentals gate evaluations by outcome",
		}, []string{"outcome"}),
		GateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockrun_gate_failures_total",
			Help: "Fundamentals gate failures by reason token",
		}, []string{"reason"}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockrun_signals_emitted_total",
			Help: "Signals emitted by side",
		}, []string{"side"}),
		SignalsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockrun_signals_suppressed_total",
			Help: "Signals suppressed by the fundamentals veto",
		}),
		CooldownSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockrun_cooldown_skips_total",
			Help: "Signals dropped by the cooldown tracker",
		}),
		ProviderFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockrun_provider_fallbacks_total",
			Help: "Fallback provider consultations by provider name",
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockrun_fundamentals_cache_hits_total",
			Help: "Fundamentals day-cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockrun_fundamentals_cache_misses_total",
			Help: "Fundamentals day-cache misses",
		}),
	}
}

// Register attaches all collectors to the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ScansTotal,
		m.GateEvaluations,
		m.GateFailures,
		m.SignalsEmitted,
		m.SignalsSuppressed,
		m.CooldownSkips,
		m.ProviderFallbacks,
		m.CacheHits,
		m.CacheMisses,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
