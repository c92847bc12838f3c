package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// EngineMetrics tracks the scan/score/execute pipeline.
type EngineMetrics struct {
	ScanCycles           prometheus.Counter
	RoutesDiscovered     prometheus.Counter
	RoutesRejected       *prometheus.CounterVec
	RoutesExecuted       prometheus.Counter
	RoutesFailed         prometheus.Counter
	ExecutionLatency     prometheus.Histogram
	ProfitTotal          prometheus.Counter
	ActiveExecutions     prometheus.Gauge
	ExecutionSuccessRate prometheus.Gauge

	executionAttempts prometheus.Counter
}

// NewEngineMetrics creates and registers engine metrics under the given
// namespace on the provided registerer (nil uses the default).
func NewEngineMetrics(namespace string, reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		reg.MustRegister(c)
		return c
	}

	m := &EngineMetrics{
		ScanCycles:        factory("scan_cycles_total", "Completed scan cycles"),
		RoutesDiscovered:  factory("routes_discovered_total", "Candidate routes emitted by the scanner"),
		RoutesExecuted:    factory("routes_executed_total", "Routes executed successfully"),
		RoutesFailed:      factory("routes_failed_total", "Routes that failed in simulation or execution"),
		ProfitTotal:       factory("profit_total", "Cumulative realized profit in loan-asset terms"),
		executionAttempts: factory("execution_attempts_total", "Routes that entered the execution path"),
	}

	m.RoutesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routes_rejected_total",
		Help:      "Routes rejected before execution, by reason",
	}, []string{"reason"})
	reg.MustRegister(m.RoutesRejected)

	m.ExecutionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_latency_seconds",
		Help:      "Latency of the simulate-and-execute path",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(m.ExecutionLatency)

	m.ActiveExecutions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_executions",
		Help:      "Routes currently mid-execution",
	})
	reg.MustRegister(m.ActiveExecutions)

	m.ExecutionSuccessRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "execution_success_rate",
		Help:      "Executed / attempted ratio",
	})
	reg.MustRegister(m.ExecutionSuccessRate)

	return m
}

// RecordAttempt counts a route entering the execution path.
func (m *EngineMetrics) RecordAttempt() {
	m.executionAttempts.Inc()
}

// UpdateSuccessRate recomputes the success-rate gauge from the raw counters.
func (m *EngineMetrics) UpdateSuccessRate() {
	executed := counterValue(m.RoutesExecuted)
	attempts := counterValue(m.executionAttempts)
	if attempts > 0 {
		m.ExecutionSuccessRate.Set(executed / attempts)
	}
}

// counterValue reads a counter's current value through the client_model DTO.
func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil || metric.Counter == nil {
		return 0
	}
	return metric.Counter.GetValue()
}
