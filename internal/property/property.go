// Package property implements the publish/subscribe key/value store:
// properties keyed by (category, key), typed as int_data or bin_data,
// with async subscriber notification on every write.
package property

import (
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// ValueType is a property's declared type.
type ValueType int

const (
	TypeUndefined ValueType = iota
	TypeInt
	TypeBin
)

// Key identifies a property by (category, key), the Symbian publish-
// and-subscribe addressing scheme.
type Key struct {
	Category uint32
	Key      uint32
}

type subscriber struct {
	thread *scheduler.Thread
	status *scheduler.RequestStatus
}

// Property is one (category, key) cell.
type Property struct {
	Type        ValueType
	SizeCap     uint32
	intValue    int32
	binValue    []byte
	subscribers []subscriber
}

// Table is the global table of properties, keyed by (category, key).
type Table struct {
	properties map[Key]*Property
}

// NewTable constructs an empty property table.
func NewTable() *Table {
	return &Table{properties: make(map[Key]*Property)}
}

func (t *Table) getOrCreate(k Key) *Property {
	p, ok := t.properties[k]
	if !ok {
		p = &Property{Type: TypeUndefined}
		t.properties[k] = p
	}
	return p
}

// Define implements PropertyDefine: creates the property if absent and
// records its declared type and size cap. Only int_data (EInt) and
// bin_data (EByteArray/ELargeByteArray) are recognized; any other
// declared type yields Argument.
func (t *Table) Define(k Key, declaredType ValueType, sizeCap uint32) uapi.ErrorCode {
	if declaredType != TypeInt && declaredType != TypeBin {
		return uapi.Argument
	}
	p := t.getOrCreate(k)
	p.Type = declaredType
	p.SizeCap = sizeCap
	return uapi.Ok
}

// Attach implements PropertyAttach: returns the property, creating an
// undefined placeholder if one does not yet exist. The handle-table
// wiring (installing a kernelobj.Handle for the returned *Property) is
// the dispatch layer's responsibility.
func (t *Table) Attach(k Key) *Property {
	return t.getOrCreate(k)
}

// Subscribe implements PropertySubscribe: enqueues a waiter against the
// property.
func (p *Property) Subscribe(th *scheduler.Thread, status *scheduler.RequestStatus) {
	p.subscribers = append(p.subscribers, subscriber{thread: th, status: status})
}

// Cancel implements PropertyCancel: completes th's subscription with
// Cancelled, a no-op if th was not subscribed.
func (p *Property) Cancel(sched *scheduler.Scheduler, th *scheduler.Thread) bool {
	for i, s := range p.subscribers {
		if s.thread == th {
			if s.status != nil {
				s.status.Complete(uapi.Cancelled)
			}
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			sched.SignalRequest(th, 1)
			return true
		}
	}
	return false
}

func (p *Property) completeSubscribers(sched *scheduler.Scheduler) {
	subs := p.subscribers
	p.subscribers = nil
	for _, s := range subs {
		if s.status != nil {
			s.status.Complete(uapi.Ok)
		}
		sched.SignalRequest(s.thread, 1)
	}
}

// SetInt implements PropertySetInt: writes v and completes every current
// subscriber with Ok.
func (p *Property) SetInt(sched *scheduler.Scheduler, v int32) uapi.ErrorCode {
	if p.Type != TypeInt {
		return uapi.Argument
	}
	p.intValue = v
	p.completeSubscribers(sched)
	return uapi.Ok
}

// GetInt implements PropertyGetInt: BadHandle if undefined, Argument on
// type mismatch.
func (p *Property) GetInt() (int32, uapi.ErrorCode) {
	if p.Type == TypeUndefined {
		return 0, uapi.BadHandle
	}
	if p.Type != TypeInt {
		return 0, uapi.Argument
	}
	return p.intValue, uapi.Ok
}

// SetBin implements PropertySetBin.
func (p *Property) SetBin(sched *scheduler.Scheduler, data []byte) uapi.ErrorCode {
	if p.Type != TypeBin {
		return uapi.Argument
	}
	if uint32(len(data)) > p.SizeCap {
		return uapi.NoMemory
	}
	p.binValue = append([]byte(nil), data...)
	p.completeSubscribers(sched)
	return uapi.Ok
}

// GetBin implements PropertyGetBin: Argument on type mismatch or empty
// value, NoMemory if the reader's buffer is too small.
func (p *Property) GetBin(readerBufSize int) ([]byte, uapi.ErrorCode) {
	if p.Type == TypeUndefined {
		return nil, uapi.BadHandle
	}
	if p.Type != TypeBin || len(p.binValue) == 0 {
		return nil, uapi.Argument
	}
	if len(p.binValue) > readerBufSize {
		return nil, uapi.NoMemory
	}
	return p.binValue, uapi.Ok
}
