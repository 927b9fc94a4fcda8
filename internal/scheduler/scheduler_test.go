package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/uapi"
)

func TestRequestSignalMonotonicity(t *testing.T) {
	th := NewThread(1, 1, "t", 10)
	sched := New()
	sched.Enqueue(th)
	sched.Next()

	for i := 0; i < 5; i++ {
		sched.SignalRequest(th, 1)
	}
	blockedCount := 0
	for i := 0; i < 5; i++ {
		if sched.WaitForAnyRequest(th) {
			blockedCount++
		}
	}
	assert.Equal(t, 0, blockedCount)
	assert.EqualValues(t, 0, th.RequestSemaphore())

	blocked := sched.WaitForAnyRequest(th)
	assert.True(t, blocked)
	assert.Equal(t, StateWaiting, th.State)

	sched.SignalRequest(th, 1)
	assert.Equal(t, StateReady, th.State)
}

func TestSchedulerPicksHighestPriority(t *testing.T) {
	sched := New()
	low := NewThread(1, 1, "low", 5)
	high := NewThread(2, 1, "high", 20)
	sched.Enqueue(low)
	sched.Enqueue(high)

	next, ok := sched.Next()
	require.True(t, ok)
	assert.Equal(t, high, next)
}

func TestLeaveStartEndDepth(t *testing.T) {
	th := NewThread(1, 1, "t", 1)
	h1 := th.LeaveStart(0x1000)
	assert.EqualValues(t, 0, h1)
	th.LeaveStart(0x2000)
	assert.Equal(t, 2, th.LeaveDepth)

	th.LeaveEnd()
	th.LeaveEnd()
	assert.Equal(t, 0, th.LeaveDepth)

	depth := th.LeaveEnd()
	assert.Equal(t, -1, depth, "third LeaveEnd goes negative; caller logs critical")
}

func TestSemaphoreWaitSignal(t *testing.T) {
	sched := New()
	sem := NewSemaphore(0)
	waiter := NewThread(1, 1, "w", 1)
	sched.Enqueue(waiter)
	sched.Next()

	status := &RequestStatus{}
	blocked := sem.Wait(waiter, status)
	assert.True(t, blocked)
	assert.Equal(t, StateWaiting, waiter.State)

	sem.Signal(sched)
	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Ok, v)
}

func TestSemaphoreSignalBeforeWaitIncrementsCount(t *testing.T) {
	sem := NewSemaphore(0)
	sched := New()
	sem.Signal(sched)
	assert.EqualValues(t, 1, sem.Count)

	th := NewThread(1, 1, "t", 1)
	blocked := sem.Wait(th, nil)
	assert.False(t, blocked)
	assert.EqualValues(t, 0, sem.Count)
}

func TestMutexHandoff(t *testing.T) {
	sched := New()
	mu := NewMutex()
	a := NewThread(1, 1, "a", 1)
	b := NewThread(2, 1, "b", 1)

	assert.False(t, mu.Wait(a, nil))
	assert.Equal(t, a, mu.LockedBy)

	status := &RequestStatus{}
	assert.True(t, mu.Wait(b, status))

	mu.Signal(sched)
	assert.Equal(t, b, mu.LockedBy)
	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Ok, v)
}

func TestSemaphoreCancel(t *testing.T) {
	sched := New()
	sem := NewSemaphore(0)
	th := NewThread(1, 1, "t", 1)
	status := &RequestStatus{}
	sem.Wait(th, status)

	ok := sem.Cancel(sched, th)
	assert.True(t, ok)
	v, set := status.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Cancelled, v)

	// Cancelling an already-removed waiter is a no-op, not an error.
	assert.False(t, sem.Cancel(sched, th))
}
