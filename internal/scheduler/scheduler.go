package scheduler

import "github.com/symkern/kernelcore/internal/uapi"

// Scheduler is the single-host-thread cooperative round-robin loop: at
// most one guest thread runs at any instant; a handler yields control
// back to the scheduler only at an explicit suspension point.
type Scheduler struct {
	ready   []*Thread
	current *Thread
}

// New constructs an empty scheduler.
func New() *Scheduler { return &Scheduler{} }

// Enqueue marks t ready and appends it to the run queue.
func (s *Scheduler) Enqueue(t *Thread) {
	t.State = StateReady
	s.ready = append(s.ready, t)
}

// Current returns the thread currently selected to run, if any.
func (s *Scheduler) Current() *Thread { return s.current }

// Next picks the highest-priority ready thread, removing it from the run
// queue and marking it running. Ties are broken FIFO (round-robin among
// equal-priority threads), since candidates are scanned in queue order
// and the first maximum found wins.
func (s *Scheduler) Next() (*Thread, bool) {
	if len(s.ready) == 0 {
		s.current = nil
		return nil, false
	}
	best := 0
	for i, t := range s.ready {
		if t.Priority > s.ready[best].Priority {
			best = i
		}
	}
	t := s.ready[best]
	s.ready = append(s.ready[:best], s.ready[best+1:]...)
	t.State = StateRunning
	s.current = t
	return t, true
}

// Yield returns the currently running thread to the back of the ready
// queue at quantum exhaustion, without it having suspended itself.
func (s *Scheduler) Yield(t *Thread) {
	if t.State == StateRunning {
		t.State = StateReady
		s.ready = append(s.ready, t)
	}
	if s.current == t {
		s.current = nil
	}
}

// Suspend removes t from scheduling entirely until Resume is called.
func (s *Scheduler) Suspend(t *Thread) {
	t.State = StateSuspended
	s.removeFromReady(t)
}

// Resume returns a suspended thread to the ready queue.
func (s *Scheduler) Resume(t *Thread) uapi.ErrorCode {
	if t.State != StateSuspended && t.State != StateCreate {
		return uapi.General
	}
	s.Enqueue(t)
	return uapi.Ok
}

func (s *Scheduler) removeFromReady(t *Thread) {
	for i, r := range s.ready {
		if r == t {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// WaitForAnyRequest implements the §4.3 suspension point: if the
// thread's request-semaphore counter is >0, it is decremented and the
// call returns immediately without blocking. Otherwise the thread
// transitions to waiting and blocked reports true so the dispatcher
// returns control to the scheduler instead of the guest.
func (s *Scheduler) WaitForAnyRequest(t *Thread) (blocked bool) {
	if t.requestSemaphore > 0 {
		t.requestSemaphore--
		return false
	}
	t.State = StateWaiting
	if s.current == t {
		s.current = nil
	}
	return true
}

// SignalRequest implements signal_request(n) at the scheduler level: it
// increments the thread's counter and, if the thread was blocked in
// WaitForAnyRequest, moves it back onto the ready queue.
func (s *Scheduler) SignalRequest(t *Thread, n int32) {
	wasWaiting := t.State == StateWaiting
	t.SignalRequest(n)
	if wasWaiting && t.State == StateReady {
		s.ready = append(s.ready, t)
	}
}

// Park clears t from the current-thread slot without touching its
// request-semaphore counter, for suspension points that manage their own
// wait queue and State transition (Semaphore.Wait, Mutex.Wait) rather
// than routing through WaitForAnyRequest's counter.
func (s *Scheduler) Park(t *Thread) {
	if s.current == t {
		s.current = nil
	}
}

// Kill transitions t directly to dead and removes it from the ready
// queue, used by ThreadKill and MessageKill panics, which never return
// an error to the killer.
func (s *Scheduler) Kill(t *Thread) {
	t.State = StateDead
	s.removeFromReady(t)
}
