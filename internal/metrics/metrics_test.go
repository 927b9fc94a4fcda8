package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/uapi"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveDispatchCountsSuccessAndError(t *testing.T) {
	m := NoOp()
	m.ObserveDispatch(uapi.FastOrdinalBase|0x0C, uapi.Ok)
	m.ObserveDispatch(0x01, uapi.BadHandle)

	assert := require.New(t)
	assert.Equal(float64(1), counterValue(t, m.DispatchTotal, "0x0c", "fast"))
	assert.Equal(float64(1), counterValue(t, m.DispatchTotal, "0x01", "slow"))
	assert.Equal(float64(1), counterValue(t, m.DispatchErrorTotal, "0x01", uapi.BadHandle.String()))
}

func TestGaugeSetters(t *testing.T) {
	m := NoOp()
	m.SetHandleTableSize(3)
	m.SetActiveThreads(2)
	m.SetInFlightMessages(1)

	require.Equal(t, float64(3), readGauge(t, m.HandleTableSize))
	require.Equal(t, float64(2), readGauge(t, m.ActiveThreads))
	require.Equal(t, float64(1), readGauge(t, m.InFlightMessages))
}

func readGauge(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch(0, uapi.Ok)
	m.SetHandleTableSize(1)
	m.SetActiveThreads(1)
	m.SetInFlightMessages(1)
}
