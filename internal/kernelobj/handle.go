package kernelobj

import "github.com/symkern/kernelcore/internal/uapi"

// Handle is the 32-bit guest-visible identifier naming a kernel object
// within an owner's scope. Only the two well-known pseudo-handles below
// are treated specially; no lookup strips the 0x8000 bit
// (uapi.HandleSpecialBit) from a handle before using it.
type Handle uint32

const (
	HandleCurrentProcess Handle = Handle(uapi.HandleCurrentProcess)
	HandleCurrentThread  Handle = Handle(uapi.HandleCurrentThread)
)

// IsPseudo reports whether h is one of the two well-known pseudo-handles.
func (h Handle) IsPseudo() bool {
	return h == HandleCurrentProcess || h == HandleCurrentThread
}

// HandleTable is a sparse index → ObjectID mapping, one per owning
// process or thread scope.
type HandleTable struct {
	entries map[int32]ObjectID
	nextIdx int32
}

// NewHandleTable constructs an empty per-owner handle table.
func NewHandleTable() *HandleTable {
	return &HandleTable{entries: make(map[int32]ObjectID)}
}

// Install allocates the next free index in the table and maps it to id,
// returning the resulting Handle.
func (t *HandleTable) Install(id ObjectID) Handle {
	idx := t.nextIdx
	t.nextIdx++
	t.entries[idx] = id
	return Handle(idx)
}

// Resolve returns the ObjectID installed at h's index, or false if no
// entry is live there. Pseudo-handles are never resolved by this method;
// callers check Handle.IsPseudo first.
func (t *HandleTable) Resolve(h Handle) (ObjectID, bool) {
	id, ok := t.entries[int32(h)]
	return id, ok
}

// Remove deletes h's entry, returning the ObjectID it referred to, or
// false if it was not live.
func (t *HandleTable) Remove(h Handle) (ObjectID, bool) {
	id, ok := t.entries[int32(h)]
	if ok {
		delete(t.entries, int32(h))
	}
	return id, ok
}

// Len reports the number of live entries, used by tests asserting a
// table is unchanged across a create/close round trip.
func (t *HandleTable) Len() int { return len(t.entries) }

// Kernel bundles the registry with the current-process/current-thread
// resolution needed to service the two pseudo-handles, and implements
// the handle-table operations from §4.1.
type Kernel struct {
	Registry       *Registry
	CurrentProcess ObjectID
	CurrentThread  ObjectID
}

// Create allocates an object, installs it in owner's table with refcount
// 1, and returns the new handle.
func (k *Kernel) Create(owner *HandleTable, kind Kind, name string, ownerRef OwnerRef, access Access, payload any) Handle {
	obj := k.Registry.Create(kind, name, ownerRef, access, payload)
	return owner.Install(obj.ID)
}

// Mirror installs another table entry in newOwner referring to the same
// object as srcID, incrementing the refcount.
func (k *Kernel) Mirror(newOwner *HandleTable, srcID ObjectID) Handle {
	k.Registry.AddRef(srcID)
	return newOwner.Install(srcID)
}

// OpenByName combines FindObject and Mirror.
func (k *Kernel) OpenByName(newOwner *HandleTable, name string, kind Kind) (Handle, uapi.ErrorCode) {
	_, obj, code := k.Registry.FindObject(name, 0, kind)
	if code != uapi.Ok {
		return 0, code
	}
	return k.Mirror(newOwner, obj.ID), uapi.Ok
}

// Close removes h from owner's table and releases the underlying object,
// running its destructor if this was the last reference.
func (k *Kernel) Close(owner *HandleTable, h Handle, destructors map[Kind]func(*Object)) uapi.ErrorCode {
	if h.IsPseudo() {
		return uapi.Argument
	}
	id, ok := owner.Remove(h)
	if !ok {
		return uapi.BadHandle
	}
	k.Registry.Release(id, destructors)
	return uapi.Ok
}

// Lookup resolves h to its Object, enforcing expectedKind and resolving
// the two pseudo-handles without a table walk.
func (k *Kernel) Lookup(owner *HandleTable, h Handle, expectedKind Kind) (*Object, uapi.ErrorCode) {
	var id ObjectID
	switch h {
	case HandleCurrentProcess:
		id = k.CurrentProcess
	case HandleCurrentThread:
		id = k.CurrentThread
	default:
		var ok bool
		id, ok = owner.Resolve(h)
		if !ok {
			return nil, uapi.BadHandle
		}
	}
	obj := k.Registry.Get(id)
	if obj == nil || obj.Kind != expectedKind {
		return nil, uapi.BadHandle
	}
	return obj, uapi.Ok
}
