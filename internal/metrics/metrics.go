// Package metrics collects Prometheus instrumentation for a running
// kernel: per-ordinal and overall dispatch counts, handle-table
// occupancy, active thread count, and in-flight IPC message count, per
// the domain-stack wiring for github.com/prometheus/client_golang.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/symkern/kernelcore/internal/uapi"
)

// Metrics is the kernel's Prometheus collector bundle.
type Metrics struct {
	DispatchTotal      *prometheus.CounterVec
	DispatchErrorTotal *prometheus.CounterVec
	HandleTableSize    prometheus.Gauge
	ActiveThreads      prometheus.Gauge
	InFlightMessages   prometheus.Gauge
}

// New constructs a Metrics instance and registers its collectors against
// reg. Passing nil registers against prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kernelcore",
			Name:      "dispatch_total",
			Help:      "Total SVC dispatches by ordinal and path (fast/slow).",
		}, []string{"ordinal", "path"}),
		DispatchErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kernelcore",
			Name:      "dispatch_error_total",
			Help:      "Total SVC dispatches that returned a non-Ok error code, by ordinal and code.",
		}, []string{"ordinal", "code"}),
		HandleTableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kernelcore",
			Name:      "handle_table_size",
			Help:      "Total entries across all live handle tables.",
		}),
		ActiveThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kernelcore",
			Name:      "active_threads",
			Help:      "Number of threads that are not dead.",
		}),
		InFlightMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kernelcore",
			Name:      "inflight_messages",
			Help:      "IPC messages received but not yet completed.",
		}),
	}

	reg.MustRegister(m.DispatchTotal, m.DispatchErrorTotal, m.HandleTableSize, m.ActiveThreads, m.InFlightMessages)
	return m
}

// ObserveDispatch records one SVC dispatch outcome.
func (m *Metrics) ObserveDispatch(ordinal uint32, code uapi.ErrorCode) {
	if m == nil {
		return
	}
	path := "slow"
	bare := ordinal
	if ordinal&uapi.FastOrdinalBase != 0 {
		path = "fast"
		bare = ordinal &^ uapi.FastOrdinalBase
	}
	ordLabel := fmt.Sprintf("0x%02x", bare)
	m.DispatchTotal.WithLabelValues(ordLabel, path).Inc()
	if code != uapi.Ok {
		m.DispatchErrorTotal.WithLabelValues(ordLabel, code.String()).Inc()
	}
}

// SetHandleTableSize reports the current total handle-table occupancy.
func (m *Metrics) SetHandleTableSize(n int) {
	if m == nil {
		return
	}
	m.HandleTableSize.Set(float64(n))
}

// SetActiveThreads reports the current non-dead thread count.
func (m *Metrics) SetActiveThreads(n int) {
	if m == nil {
		return
	}
	m.ActiveThreads.Set(float64(n))
}

// SetInFlightMessages reports the current undelivered/uncompleted IPC
// message count.
func (m *Metrics) SetInFlightMessages(n int) {
	if m == nil {
		return
	}
	m.InFlightMessages.Set(float64(n))
}

// NoOp returns a Metrics instance registered against a private registry,
// for callers (tests, embedders that don't want global Prometheus state)
// that need a working Metrics without touching
// prometheus.DefaultRegisterer.
func NoOp() *Metrics {
	return New(prometheus.NewRegistry())
}
