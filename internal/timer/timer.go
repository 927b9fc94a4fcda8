// Package timer implements timer and change-notifier kernel objects, and
// the scheduler event queue's min-heap, keyed by fire time, driven by
// the main emulator loop's Tick. No ecosystem timer-wheel library in the
// retrieval pack fits a single-host-thread, manually-ticked scheduler
// this small, so the min-heap uses the standard library container/heap
// (see DESIGN.md).
package timer

import (
	"container/heap"

	"github.com/symkern/kernelcore/internal/clock"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// Timer is a single-shot alarm: a next-fire absolute time and the
// request-status to complete when it fires.
type Timer struct {
	index    int // heap.Interface bookkeeping
	fireAt   int64
	thread   *scheduler.Thread
	status   *scheduler.RequestStatus
	cancelled bool
}

type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].fireAt < h[j].fireAt }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Queue is the scheduler's timer event queue: a min-heap keyed by
// fire-time.
type Queue struct {
	heap  timerHeap
	clock clock.Clock
}

// NewQueue constructs an empty timer queue driven by clk.
func NewQueue(clk clock.Clock) *Queue {
	q := &Queue{clock: clk}
	heap.Init(&q.heap)
	return q
}

// After schedules a timer to fire dt microseconds from now, implementing
// TimerAfter/After.
func (q *Queue) After(th *scheduler.Thread, status *scheduler.RequestStatus, dtMicros int64) *Timer {
	t := &Timer{fireAt: q.clock.NowMicros() + dtMicros, thread: th, status: status}
	heap.Push(&q.heap, t)
	return t
}

// AtUtc schedules a timer to fire at an absolute Gregorian-microsecond
// time, implementing TimerAtUtc.
func (q *Queue) AtUtc(th *scheduler.Thread, status *scheduler.RequestStatus, gregorianMicros int64) *Timer {
	t := &Timer{fireAt: gregorianMicros, thread: th, status: status}
	heap.Push(&q.heap, t)
	return t
}

// Cancel removes t from the queue (if still pending) and completes its
// status with Cancelled.
func (q *Queue) Cancel(sched *scheduler.Scheduler, t *Timer) {
	if t.cancelled || t.index < 0 {
		return
	}
	t.cancelled = true
	heap.Remove(&q.heap, t.index)
	if t.status != nil {
		t.status.Complete(uapi.Cancelled)
	}
	sched.SignalRequest(t.thread, 1)
}

// Tick fires every timer whose fire time has passed, in fire-time order,
// completing each with Ok and signalling its owning thread. Called once
// per main emulator loop iteration.
func (q *Queue) Tick(sched *scheduler.Scheduler) {
	now := q.clock.NowMicros()
	for q.heap.Len() > 0 && q.heap[0].fireAt <= now {
		t := heap.Pop(&q.heap).(*Timer)
		if t.cancelled {
			continue
		}
		if t.status != nil {
			t.status.Complete(uapi.Ok)
		}
		sched.SignalRequest(t.thread, 1)
	}
}

// ChangeNotifier is a global broadcast event: every waiter completes
// with Ok when a system-wide change is signalled.
type ChangeNotifier struct {
	waiters []changeWaiter
}

type changeWaiter struct {
	thread *scheduler.Thread
	status *scheduler.RequestStatus
}

// NewChangeNotifier constructs an empty change notifier.
func NewChangeNotifier() *ChangeNotifier { return &ChangeNotifier{} }

// Logon implements ChangeNotifierLogon: enqueues a waiter.
func (c *ChangeNotifier) Logon(th *scheduler.Thread, status *scheduler.RequestStatus) {
	c.waiters = append(c.waiters, changeWaiter{thread: th, status: status})
}

// Broadcast completes every current waiter with Ok, implementing the
// system-wide change signal.
func (c *ChangeNotifier) Broadcast(sched *scheduler.Scheduler) {
	waiters := c.waiters
	c.waiters = nil
	for _, w := range waiters {
		if w.status != nil {
			w.status.Complete(uapi.Ok)
		}
		sched.SignalRequest(w.thread, 1)
	}
}

// Cancel removes th's logon, completing its status with Cancelled.
func (c *ChangeNotifier) Cancel(sched *scheduler.Scheduler, th *scheduler.Thread) bool {
	for i, w := range c.waiters {
		if w.thread == th {
			if w.status != nil {
				w.status.Complete(uapi.Cancelled)
			}
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			sched.SignalRequest(th, 1)
			return true
		}
	}
	return false
}
