package kernelobj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/uapi"
)

func newTestKernel() (*Kernel, *HandleTable) {
	reg := NewRegistry()
	procOwner := NewHandleTable()
	k := &Kernel{Registry: reg}
	return k, procOwner
}

func TestHandleRoundTrip(t *testing.T) {
	k, owner := newTestKernel()
	h := k.Create(owner, KindSemaphore, "s", OwnerRef{}, LocalAccess, 0)

	before := owner.Len()
	code := k.Close(owner, h, nil)
	assert.Equal(t, uapi.Ok, code)
	assert.Equal(t, before-1, owner.Len())
}

func TestLookupRejectsKindMismatch(t *testing.T) {
	k, owner := newTestKernel()
	h := k.Create(owner, KindSemaphore, "s", OwnerRef{}, LocalAccess, 0)

	_, code := k.Lookup(owner, h, KindMutex)
	assert.Equal(t, uapi.BadHandle, code)

	obj, code := k.Lookup(owner, h, KindSemaphore)
	require.Equal(t, uapi.Ok, code)
	assert.Equal(t, KindSemaphore, obj.Kind)
}

func TestMirrorPreservesKind(t *testing.T) {
	k, ownerA := newTestKernel()
	ownerB := NewHandleTable()

	h := k.Create(ownerA, KindChunk, "c", OwnerRef{}, LocalAccess, nil)
	objA, _ := k.Lookup(ownerA, h, KindChunk)

	h2 := k.Mirror(ownerB, objA.ID)
	objB, code := k.Lookup(ownerB, h2, KindChunk)
	require.Equal(t, uapi.Ok, code)
	assert.Equal(t, objA.ID, objB.ID)
	assert.EqualValues(t, 2, objA.RefCount())
}

func TestRefcountCorrectness(t *testing.T) {
	k, ownerA := newTestKernel()
	ownerB := NewHandleTable()

	h := k.Create(ownerA, KindMutex, "m", OwnerRef{}, LocalAccess, nil)
	obj, _ := k.Lookup(ownerA, h, KindMutex)
	h2 := k.Mirror(ownerB, obj.ID)

	destroyed := false
	destructors := map[Kind]func(*Object){
		KindMutex: func(*Object) { destroyed = true },
	}

	assert.Equal(t, uapi.Ok, k.Close(ownerA, h, destructors))
	assert.False(t, destroyed, "object must survive while a mirrored handle is live")
	assert.Equal(t, uapi.Ok, k.Close(ownerB, h2, destructors))
	assert.True(t, destroyed, "object must be destroyed once its last handle closes")
}

func TestCloseUnknownHandleIsBadHandle(t *testing.T) {
	k, owner := newTestKernel()
	assert.Equal(t, uapi.BadHandle, k.Close(owner, Handle(999), nil))
}

func TestPseudoHandleCannotBeClosed(t *testing.T) {
	k, owner := newTestKernel()
	assert.Equal(t, uapi.Argument, k.Close(owner, HandleCurrentThread, nil))
}

func TestFindObjectScansByNameAndKind(t *testing.T) {
	reg := NewRegistry()
	obj1 := reg.Create(KindServer, "Echo", OwnerRef{}, GlobalAccess, nil)
	_ = reg.Create(KindServer, "Other", OwnerRef{}, GlobalAccess, nil)
	obj3 := reg.Create(KindServer, "Echo", OwnerRef{}, GlobalAccess, nil)

	id, found, code := reg.FindObject("Echo", 0, KindServer)
	require.Equal(t, uapi.Ok, code)
	assert.Equal(t, obj1.ID, id)
	assert.Equal(t, obj1.ID, found.ID)

	id2, found2, code2 := reg.FindObject("Echo", id, KindServer)
	require.Equal(t, uapi.Ok, code2)
	assert.Equal(t, obj3.ID, id2)
	assert.Equal(t, obj3.ID, found2.ID)

	_, _, code3 := reg.FindObject("Echo", id2, KindServer)
	assert.Equal(t, uapi.NotFound, code3)
}

func TestOpenByName(t *testing.T) {
	k, ownerA := newTestKernel()
	_ = k.Create(ownerA, KindServer, "Echo", OwnerRef{}, GlobalAccess, nil)

	ownerB := NewHandleTable()
	h, code := k.OpenByName(ownerB, "Echo", KindServer)
	require.Equal(t, uapi.Ok, code)

	obj, lookupCode := k.Lookup(ownerB, h, KindServer)
	require.Equal(t, uapi.Ok, lookupCode)
	assert.Equal(t, "Echo", obj.Name)
}
