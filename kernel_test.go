package kernelcore

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func TestNewKernelRequiresMemory(t *testing.T) {
	_, err := NewKernel(KernelParams{})
	require.Error(t, err)
	assert.True(t, IsCode(err, uapi.Argument))
}

func TestNewKernelFillsDefaults(t *testing.T) {
	k, err := NewKernel(KernelParams{Memory: NewStubMemory(4096)})
	require.NoError(t, err)
	assert.Equal(t, "kernel(revision=9.4)", k.String())
}

func TestBootProcessRegistersRunnableThread(t *testing.T) {
	k, err := NewKernel(KernelParams{Memory: NewStubMemory(4096), Clock: NewStubClock(0)})
	require.NoError(t, err)

	_, th := k.BootProcess("guest", "guest.exe", 10)
	assert.Equal(t, scheduler.StateReady, th.State)

	var ran []*scheduler.Thread
	turns := k.Run(func(t *scheduler.Thread) {
		ran = append(ran, t)
		t.State = scheduler.StateDead
	})
	assert.Equal(t, 1, turns)
	require.Len(t, ran, 1)
	assert.Same(t, th, ran[0])
}

func TestDispatchRecordsMetrics(t *testing.T) {
	k, err := NewKernel(KernelParams{Memory: NewStubMemory(4096), Clock: NewStubClock(0)})
	require.NoError(t, err)

	_, th := k.BootProcess("guest", "guest.exe", 10)
	k.ctx.Scheduler.Next()

	result := k.Dispatch(th, uapi.FastOrdinalBase|uapi.OrdUTCOffset, [4]uint32{})
	assert.Equal(t, int32(0), result)

	var m dto.Metric
	require.NoError(t, k.metrics.DispatchTotal.WithLabelValues("0x19", "fast").Write(&m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}
