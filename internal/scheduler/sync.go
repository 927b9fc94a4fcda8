package scheduler

import "github.com/symkern/kernelcore/internal/uapi"

// Semaphore is a classical counting semaphore kernel object.
type Semaphore struct {
	Count   int32
	waiters *waitQueue[*Thread]
}

// NewSemaphore constructs a semaphore with the given initial count.
func NewSemaphore(initial int32) *Semaphore {
	return &Semaphore{Count: initial, waiters: newWaitQueue[*Thread]()}
}

// Wait blocks the calling thread on the semaphore if its count is zero,
// per SemaphoreWait's classical-wait suspension point. The accepted
// timeout parameter is intentionally unused: this core ignores it and
// emits a warning at the call site in internal/dispatch rather than
// honoring it.
func (sem *Semaphore) Wait(t *Thread, status *RequestStatus) (blocked bool) {
	if sem.Count > 0 {
		sem.Count--
		return false
	}
	t.State = StateWaiting
	sem.waiters.Enqueue(t, status)
	return true
}

// Signal wakes one waiter if any are queued, else increments the count.
func (sem *Semaphore) Signal(sched *Scheduler) {
	if waiterThread, status, ok := sem.waiters.Dequeue(); ok {
		if status != nil {
			status.Complete(uapi.Ok)
		}
		sched.SignalRequest(waiterThread, 1)
		return
	}
	sem.Count++
}

// SignalN calls Signal n times, per SemaphoreSignalN.
func (sem *Semaphore) SignalN(sched *Scheduler, n int32) {
	for i := int32(0); i < n; i++ {
		sem.Signal(sched)
	}
}

// Cancel removes t from the semaphore's wait queue, completing its
// status with Cancelled.
func (sem *Semaphore) Cancel(sched *Scheduler, t *Thread) bool {
	return sem.waiters.Cancel(
		func(w *Thread) bool { return w == t },
		func(w *Thread) { sched.SignalRequest(w, 0) },
	)
}

// Mutex is a classical mutual-exclusion kernel object.
type Mutex struct {
	LockedBy *Thread
	waiters  *waitQueue[*Thread]
}

// NewMutex constructs an unlocked mutex.
func NewMutex() *Mutex {
	return &Mutex{waiters: newWaitQueue[*Thread]()}
}

// Wait acquires the mutex, blocking if it is already held.
func (m *Mutex) Wait(t *Thread, status *RequestStatus) (blocked bool) {
	if m.LockedBy == nil {
		m.LockedBy = t
		return false
	}
	t.State = StateWaiting
	m.waiters.Enqueue(t, status)
	return true
}

// Signal releases the mutex, handing it directly to the next waiter if
// any, else leaving it unlocked.
func (m *Mutex) Signal(sched *Scheduler) {
	if waiterThread, status, ok := m.waiters.Dequeue(); ok {
		m.LockedBy = waiterThread
		if status != nil {
			status.Complete(uapi.Ok)
		}
		sched.SignalRequest(waiterThread, 1)
		return
	}
	m.LockedBy = nil
}

// Cancel removes t from the mutex's wait queue, completing its status
// with Cancelled.
func (m *Mutex) Cancel(sched *Scheduler, t *Thread) bool {
	return m.waiters.Cancel(
		func(w *Thread) bool { return w == t },
		func(w *Thread) { sched.SignalRequest(w, 0) },
	)
}
