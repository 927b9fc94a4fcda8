// Package ipc implements the client/server IPC flow: servers, sessions,
// and messages. Sending builds a request struct, submits it, and blocks
// until a status cell completes; ServerReceive either dequeues an
// already-pending message or parks the caller until the next Enqueue.
package ipc

import (
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// receiveSlot is a server's pending-receive state: the host-side
// **Message the next message is stored through (not guest memory), and
// the status to complete once it is delivered.
type receiveSlot struct {
	thread   *scheduler.Thread
	status   *scheduler.RequestStatus
	outMsg   **Message
}

// Server is a named registered IPC endpoint.
type Server struct {
	Name    string
	pending []*Message
	waiting *receiveSlot
}

// NewServer constructs a named, empty server.
func NewServer(name string) *Server {
	return &Server{Name: name}
}

// Receive implements ServerReceive: if a message is already enqueued it
// is dequeued and delivered immediately (blocked=false); otherwise the
// slot waits for the next Enqueue.
func (s *Server) Receive(th *scheduler.Thread, status *scheduler.RequestStatus, out **Message) (blocked bool) {
	if len(s.pending) > 0 {
		msg := s.pending[0]
		s.pending = s.pending[1:]
		*out = msg
		status.Complete(uapi.Ok)
		return false
	}
	s.waiting = &receiveSlot{thread: th, status: status, outMsg: out}
	return true
}

// Cancel implements ServerCancel: completes the pending receive slot
// with Cancelled, a no-op if nothing was waiting.
func (s *Server) Cancel(sched *scheduler.Scheduler) bool {
	if s.waiting == nil {
		return false
	}
	w := s.waiting
	s.waiting = nil
	w.status.Complete(uapi.Cancelled)
	sched.SignalRequest(w.thread, 1)
	return true
}

// Enqueue delivers msg to the server: if a ServerReceive is currently
// waiting, it is completed immediately; otherwise msg joins the FIFO
// pending list.
func (s *Server) Enqueue(sched *scheduler.Scheduler, msg *Message) {
	if s.waiting != nil {
		w := s.waiting
		s.waiting = nil
		*w.outMsg = msg
		w.status.Complete(uapi.Ok)
		sched.SignalRequest(w.thread, 1)
		return
	}
	s.pending = append(s.pending, msg)
}
