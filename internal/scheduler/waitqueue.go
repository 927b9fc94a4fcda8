package scheduler

import "github.com/symkern/kernelcore/internal/uapi"

// waitQueue is a generic FIFO of waiters, one instance per semaphore or
// mutex suspension point; properties, timers and change notifiers keep
// their own waiter lists. Cancel removes a waiter and completes its
// status with Cancelled — it is not an error to cancel an
// already-completed waiter.
type waitQueue[T any] struct {
	items []waiter[T]
}

type waiter[T any] struct {
	value  T
	status *RequestStatus
}

// newWaitQueue constructs an empty wait queue.
func newWaitQueue[T any]() *waitQueue[T] {
	return &waitQueue[T]{}
}

// Enqueue appends a new waiter to the tail of the queue, preserving FIFO
// order across waiters on the same object.
func (q *waitQueue[T]) Enqueue(value T, status *RequestStatus) {
	q.items = append(q.items, waiter[T]{value: value, status: status})
}

// Dequeue removes and returns the head waiter, or ok=false if empty.
func (q *waitQueue[T]) Dequeue() (T, *RequestStatus, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, nil, false
	}
	w := q.items[0]
	q.items = q.items[1:]
	return w.value, w.status, true
}

// Len reports the number of waiters currently enqueued.
func (q *waitQueue[T]) Len() int { return len(q.items) }

// CompleteAll completes every waiter's status with value, in FIFO order,
// and drains the queue, waking every current waiter at once. onWake is called
// with each waiter's value after its status completes, so callers can
// mark the corresponding thread ready.
func (q *waitQueue[T]) CompleteAll(value uapi.ErrorCode, onWake func(T)) {
	items := q.items
	q.items = nil
	for _, w := range items {
		if w.status != nil {
			w.status.Complete(value)
		}
		onWake(w.value)
	}
}

// Cancel removes the waiter matched by match, completing its status with
// Cancelled and invoking onWake. Returns false, a no-op, if no matching
// waiter is enqueued (already completed or never present).
func (q *waitQueue[T]) Cancel(match func(T) bool, onWake func(T)) bool {
	for i, w := range q.items {
		if match(w.value) {
			if w.status != nil {
				w.status.Complete(uapi.Cancelled)
			}
			q.items = append(q.items[:i], q.items[i+1:]...)
			if onWake != nil {
				onWake(w.value)
			}
			return true
		}
	}
	return false
}
