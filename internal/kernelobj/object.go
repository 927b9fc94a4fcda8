// Package kernelobj implements the handle table and kernel-object
// registry: a process-global strong-reference registry keyed by stable
// 64-bit object id, and per-owner sparse handle tables. Kernel objects
// are represented as a tagged variant (Kind + payload) rather than via a
// base-pointer/dynamic-cast hierarchy, per the arena+stable-id
// re-architecture.
package kernelobj

import (
	"sync/atomic"

	"github.com/symkern/kernelcore/internal/uapi"
)

// Kind identifies the concrete variant of a KernelObject.
type Kind int

const (
	KindChunk Kind = iota
	KindSemaphore
	KindMutex
	KindTimer
	KindProperty
	KindChangeNotifier
	KindLibrary
	KindProcess
	KindThread
	KindServer
	KindSession
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindSemaphore:
		return "semaphore"
	case KindMutex:
		return "mutex"
	case KindTimer:
		return "timer"
	case KindProperty:
		return "property"
	case KindChangeNotifier:
		return "change_notifier"
	case KindLibrary:
		return "library"
	case KindProcess:
		return "process"
	case KindThread:
		return "thread"
	case KindServer:
		return "server"
	case KindSession:
		return "session"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Access distinguishes an object's visibility scope.
type Access int

const (
	LocalAccess Access = iota
	GlobalAccess
)

// ObjectID is a stable, monotonically increasing identifier for a live
// kernel object. Handle table entries store ObjectIDs, never pointers;
// the registry is the only place holding a strong reference.
type ObjectID uint64

// OwnerRef identifies the process or thread that owns an object, by
// ObjectID of that owning process/thread object.
type OwnerRef struct {
	ProcessID ObjectID
	ThreadID  ObjectID // zero if owned by the process rather than a thread
}

// Object is the tagged-variant kernel object. Payload is type-asserted by
// Kind at the point of use; lookup rejects on a Kind mismatch.
type Object struct {
	ID       ObjectID
	Kind     Kind
	Name     string
	Owner    OwnerRef
	Access   Access
	Payload  any
	refCount int32
}

// RefCount returns the object's current live-handle reference count.
func (o *Object) RefCount() int32 { return atomic.LoadInt32(&o.refCount) }

// Registry is the process-global strong-reference table of live kernel
// objects, keyed by stable ObjectID.
type Registry struct {
	nextID  atomic.Uint64
	objects map[ObjectID]*Object
}

// NewRegistry constructs an empty registry. Object ids start at 1 so zero
// remains reserved as "no object".
func NewRegistry() *Registry {
	return &Registry{objects: make(map[ObjectID]*Object)}
}

// Create allocates a new object id, inserts it into the registry with
// refcount 1, and returns it. It does not install a handle table entry;
// callers combine this with HandleTable.Install.
func (r *Registry) Create(kind Kind, name string, owner OwnerRef, access Access, payload any) *Object {
	id := ObjectID(r.nextID.Add(1))
	obj := &Object{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Owner:    owner,
		Access:   access,
		Payload:  payload,
		refCount: 1,
	}
	r.objects[id] = obj
	return obj
}

// Get returns the object for id, or nil if it no longer exists.
func (r *Registry) Get(id ObjectID) *Object {
	return r.objects[id]
}

// AddRef increments an object's reference count, for example when a
// handle is mirrored into another owner's table.
func (r *Registry) AddRef(id ObjectID) {
	if obj := r.objects[id]; obj != nil {
		atomic.AddInt32(&obj.refCount, 1)
	}
}

// Release decrements an object's reference count; when it reaches zero
// the object is removed from the registry and its destructor (if any) is
// invoked exactly once. destructors is an optional per-kind cleanup hook.
func (r *Registry) Release(id ObjectID, destructors map[Kind]func(*Object)) {
	obj := r.objects[id]
	if obj == nil {
		return
	}
	if atomic.AddInt32(&obj.refCount, -1) <= 0 {
		delete(r.objects, id)
		if fn := destructors[obj.Kind]; fn != nil {
			fn(obj)
		}
	}
}

// FindObject performs the linear named scan described for find_object:
// the next object of the given kind named name whose registry insertion
// order places it after startIndex. The "index" here is the object's
// ObjectID, which is monotonically increasing and therefore a valid
// ordering key.
func (r *Registry) FindObject(name string, startIndex ObjectID, kind Kind) (ObjectID, *Object, uapi.ErrorCode) {
	var bestID ObjectID
	var best *Object
	for id, obj := range r.objects {
		if obj.Kind != kind || obj.Name != name || id <= startIndex {
			continue
		}
		if best == nil || id < bestID {
			bestID, best = id, obj
		}
	}
	if best == nil {
		return 0, nil, uapi.NotFound
	}
	return bestID, best, uapi.Ok
}
