package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/clock"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func TestTimerFiresInOrder(t *testing.T) {
	mc := clock.NewMockClock(0)
	q := NewQueue(mc)
	sched := scheduler.New()

	t1 := scheduler.NewThread(1, 1, "t1", 1)
	t2 := scheduler.NewThread(2, 1, "t2", 1)
	s1 := &scheduler.RequestStatus{}
	s2 := &scheduler.RequestStatus{}

	q.After(t1, s1, 1000)
	q.After(t2, s2, 500)

	mc.Advance(700)
	q.Tick(sched)

	_, early1 := s1.Value()
	_, early2 := s2.Value()
	assert.False(t, early1)
	assert.True(t, early2)

	mc.Advance(1300)
	q.Tick(sched)

	v1, set1 := s1.Value()
	v2, set2 := s2.Value()
	require.True(t, set1)
	require.True(t, set2)
	assert.Equal(t, uapi.Ok, v1)
	assert.Equal(t, uapi.Ok, v2)
}

func TestTimerDoesNotFireEarly(t *testing.T) {
	mc := clock.NewMockClock(0)
	q := NewQueue(mc)
	sched := scheduler.New()

	th := scheduler.NewThread(1, 1, "t", 1)
	status := &scheduler.RequestStatus{}
	q.After(th, status, 10_000_000)

	mc.Advance(1000)
	q.Tick(sched)

	_, set := status.Value()
	assert.False(t, set)
}

func TestTimerCancelWakesWaiter(t *testing.T) {
	mc := clock.NewMockClock(0)
	q := NewQueue(mc)
	sched := scheduler.New()

	th := scheduler.NewThread(1, 1, "t", 1)
	sched.Enqueue(th)
	sched.Next()
	sched.WaitForAnyRequest(th)

	status := &scheduler.RequestStatus{}
	timer := q.After(th, status, 10_000_000)

	q.Cancel(sched, timer)

	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Cancelled, v)
	assert.Equal(t, scheduler.StateReady, th.State)
}

func TestChangeNotifierBroadcast(t *testing.T) {
	sched := scheduler.New()
	cn := NewChangeNotifier()

	th := scheduler.NewThread(1, 1, "t", 1)
	status := &scheduler.RequestStatus{}
	cn.Logon(th, status)

	cn.Broadcast(sched)

	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Ok, v)
}

func TestChangeNotifierCancel(t *testing.T) {
	sched := scheduler.New()
	cn := NewChangeNotifier()

	th := scheduler.NewThread(1, 1, "t", 1)
	status := &scheduler.RequestStatus{}
	cn.Logon(th, status)

	assert.True(t, cn.Cancel(sched, th))
	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Cancelled, v)
}
