// Package scheduler implements the cooperative round-robin thread
// scheduler, the request-signal completion protocol, TRAP/Leave depth
// tracking, and TLS slot storage. Each thread tracks one in-flight wait
// state via a small state enum, with a generic wait queue backing each
// suspension point.
package scheduler

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/uapi"
)

// State is a guest thread's scheduling state.
type State int

const (
	StateCreate State = iota
	StateReady
	StateRunning
	StateWaiting
	StateSuspended
	StateDead
)

func (s State) String() string {
	switch s {
	case StateCreate:
		return "create"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateSuspended:
		return "suspended"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// TLSKey identifies a thread-local storage slot by owning library handle
// and DLL uid, per §3's "TLS slot table: each slot keyed by (library
// handle, dll-uid) carrying a guest pointer".
type TLSKey struct {
	LibraryHandle kernelobj.Handle
	DllUID        uint32
}

// RequestStatus is the completion cell of an async operation: a 32-bit
// signed result word. GuestPtr records the guest address of the cell;
// Complete records the value host-side only and does not write it into
// guest memory.
type RequestStatus struct {
	GuestPtr uint32
	value    uapi.ErrorCode
	set      bool
}

// Complete writes value into the status cell, recording it has been set.
func (s *RequestStatus) Complete(value uapi.ErrorCode) {
	s.value = value
	s.set = true
}

// Value returns the completed value and whether Complete has run.
func (s *RequestStatus) Value() (uapi.ErrorCode, bool) { return s.value, s.set }

// Thread is a guest thread's kernel-side state.
type Thread struct {
	ID       kernelobj.ObjectID
	Process  kernelobj.ObjectID
	Name     string
	Priority int
	State    State

	// HeapPtr/TrapHandlerPtr/ActiveSchedulerPtr are the fast-path scalar
	// fields accessed by the 0x00800000+ ordinals.
	HeapPtr            uint32
	TrapHandlerPtr     uint32
	ActiveSchedulerPtr uint32

	TLS map[TLSKey]uint32

	requestSemaphore int32
	LeaveDepth       int
	LastHandle       kernelobj.Handle

	LogonWaiters []*RequestStatus

	waitingOn *waitQueue[*Thread]
}

// NewThread constructs a thread in the create state, ready to be resumed.
func NewThread(id, process kernelobj.ObjectID, name string, priority int) *Thread {
	return &Thread{
		ID:       id,
		Process:  process,
		Name:     name,
		Priority: priority,
		State:    StateCreate,
		TLS:      make(map[TLSKey]uint32),
	}
}

// RequestSemaphore returns the thread's current nonnegative request count.
func (t *Thread) RequestSemaphore() int32 { return t.requestSemaphore }

// SignalRequest implements signal_request(n): increments the thread's
// request-semaphore counter by n. If the thread is blocked in
// WaitForAnyRequest it becomes ready. Never called with negative n.
func (t *Thread) SignalRequest(n int32) {
	t.requestSemaphore += n
	if t.State == StateWaiting && t.waitingOn == nil {
		t.State = StateReady
	}
}

// LeaveStart increments the leave-depth counter and returns the
// previously installed trap handler.
func (t *Thread) LeaveStart(newHandler uint32) uint32 {
	prev := t.TrapHandlerPtr
	t.LeaveDepth++
	t.TrapHandlerPtr = newHandler
	return prev
}

// LeaveEnd decrements the leave-depth counter. A negative result is a
// consistency error: the caller logs it at critical severity and
// continues, leaving the counter at its erroneous value for inspection.
func (t *Thread) LeaveEnd() int {
	t.LeaveDepth--
	return t.LeaveDepth
}
