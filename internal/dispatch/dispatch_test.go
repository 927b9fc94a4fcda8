package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/clock"
	"github.com/symkern/kernelcore/internal/ipc"
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

type fakeMemory struct{ buf []byte }

func newFakeMemory() *fakeMemory { return &fakeMemory{buf: make([]byte, 8192)} }

func (m *fakeMemory) Translate(guestAddr uint32) (uintptr, bool) {
	if int(guestAddr) >= len(m.buf) {
		return 0, false
	}
	return uintptr(guestAddr), true
}
func (m *fakeMemory) ReadBytes(hostPtr uintptr, n int) []byte {
	return append([]byte(nil), m.buf[hostPtr:int(hostPtr)+n]...)
}
func (m *fakeMemory) WriteBytes(hostPtr uintptr, data []byte) { copy(m.buf[hostPtr:], data) }
func (m *fakeMemory) ReadRegister(n int) uint32                { return 0 }
func (m *fakeMemory) WriteRegister(n int, v uint32)             {}

type fakeHAL struct{}

func (fakeHAL) DoHal(category, function, a1, a2 uint32) int32 { return int32(category + function) }

func writeGuestDescriptor(t *testing.T, ctx *Context, hostPtr uint32, s string) {
	t.Helper()
	hdr := &uapi.NarrowDescriptorHeader{MaxLength: uint32(len(s)) + 16}
	ctx.Memory.WriteBytes(uintptr(hostPtr), uapi.Marshal(hdr))
	require.NoError(t, uapi.WriteStr8(ctx.Memory, uintptr(hostPtr), s))
}

func newTestContext(t *testing.T) (*Context, *scheduler.Thread) {
	t.Helper()
	ctx := NewContext(newFakeMemory(), fakeHAL{}, nil, clock.NewMockClock(0))

	procObj := ctx.Kernel.Registry.Create(kernelobj.KindProcess, "proc", kernelobj.OwnerRef{}, kernelobj.LocalAccess, nil)
	proc := scheduler.NewProcess(procObj.ID, "proc", "")
	ctx.RegisterProcess(procObj.ID, proc)

	threadObj := ctx.Kernel.Registry.Create(kernelobj.KindThread, "main", kernelobj.OwnerRef{ProcessID: procObj.ID}, kernelobj.LocalAccess, nil)
	th := scheduler.NewThread(threadObj.ID, procObj.ID, "main", 10)
	ctx.RegisterThread(threadObj.ID, th)
	ctx.Scheduler.Resume(th)
	ctx.Scheduler.Next()

	return ctx, th
}

func TestDispatchUnknownOrdinalWarnsAndReturnsNotSupported(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)
	result := table.Dispatch(ctx, th, 0xFFFFFF, [4]uint32{})
	assert.EqualValues(t, uapi.NotSupported, result)
}

func TestDispatchFastPathUTCOffset(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)
	result := table.Dispatch(ctx, th, uapi.FastOrdinalBase|uapi.OrdUTCOffset, [4]uint32{})
	assert.Equal(t, int32(0), result)
}

func TestMinimalRevisionOmitsUnlistedOrdinals(t *testing.T) {
	table := BuildTable(uapi.Revision93)
	_, hasDebugMask := table.Fast[uapi.OrdDebugMask]
	assert.False(t, hasDebugMask, "DebugMask (0x0C) is not in the 9.3 minimal fast subset")
	_, hasDebugMaskIndex := table.Fast[uapi.OrdDebugMaskIndex]
	assert.True(t, hasDebugMaskIndex)
	_, hasObjectNext := table.Slow[uapi.OrdObjectNext]
	assert.True(t, hasObjectNext)
	_, hasChunkBase := table.Slow[uapi.OrdChunkBase]
	assert.False(t, hasChunkBase, "ChunkBase is not part of the 9.3 minimal slow subset")
}

func TestSemaphoreCreateWaitSignalRoundTrip(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	nameHostPtr := uint32(1024)
	writeGuestDescriptor(t, ctx, nameHostPtr, "sem1")

	createResult := table.Dispatch(ctx, th, uapi.OrdSemaphoreCreate, [4]uint32{nameHostPtr, 0, 0, 0})
	require.GreaterOrEqual(t, createResult, int32(0))
	handle := uint32(createResult)

	waitResult := table.Dispatch(ctx, th, uapi.OrdSemaphoreWait, [4]uint32{handle, 0, 0, 0})
	assert.Equal(t, int32(0), waitResult)
	assert.Equal(t, scheduler.StateWaiting, th.State)

	signalResult := table.Dispatch(ctx, th, uapi.OrdSemaphoreSignal, [4]uint32{handle, 0, 0, 0})
	assert.Equal(t, int32(0), signalResult)
	assert.Equal(t, scheduler.StateReady, th.State)
}

// TestSemaphoreWaitDoesNotConsumeStrayRequestSignal guards against
// conflating SemaphoreWait's classical wait with the unrelated
// WaitForAnyRequest/request-semaphore protocol: a stray RequestSignal
// must not be silently eaten by a later SemaphoreWait block, and the
// scheduler's current-thread slot must still clear.
func TestSemaphoreWaitDoesNotConsumeStrayRequestSignal(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	signalResult := table.Dispatch(ctx, th, uapi.OrdRequestSignal, [4]uint32{uapi.HandleCurrentThread, 1, 0, 0})
	require.Equal(t, int32(0), signalResult)
	require.EqualValues(t, 1, th.RequestSemaphore())

	nameHostPtr := uint32(1024)
	writeGuestDescriptor(t, ctx, nameHostPtr, "sem1")
	createResult := table.Dispatch(ctx, th, uapi.OrdSemaphoreCreate, [4]uint32{nameHostPtr, 0, 0, 0})
	require.GreaterOrEqual(t, createResult, int32(0))
	handle := uint32(createResult)

	waitResult := table.Dispatch(ctx, th, uapi.OrdSemaphoreWait, [4]uint32{handle, 0, 0, 0})
	assert.Equal(t, int32(0), waitResult)
	assert.Equal(t, scheduler.StateWaiting, th.State)
	assert.EqualValues(t, 1, th.RequestSemaphore(), "unrelated request-semaphore count must survive the classical wait")
	assert.Nil(t, ctx.Scheduler.Current(), "scheduler must drop the blocked thread as current")
}

// TestMessageIpcCopyTranslatesBothSides guards against treating
// info.TargetPtr as if it were also the client's own argument: the
// client descriptor and the raw target buffer live at distinct guest
// addresses and must both be translated and touched independently.
func TestMessageIpcCopyTranslatesBothSides(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	const clientArgPtr = uint32(2048)
	const targetPtr = uint32(3072)
	const infoPtr = uint32(4096)
	writeGuestDescriptor(t, ctx, clientArgPtr, "payload")

	info := &uapi.MessageIpcCopyInfo{TargetPtr: targetPtr, TargetLen: 16, Flags: 0}
	ctx.Memory.WriteBytes(uintptr(infoPtr), uapi.Marshal(info))

	msg := ipc.NewMessage(nil, th, 1, [4]uint32{clientArgPtr, 0, 0, 0}, 0, nil)
	obj := ctx.Kernel.Registry.Create(kernelobj.KindMessage, "", kernelobj.OwnerRef{ProcessID: th.Process}, kernelobj.LocalAccess, msg)
	msgHandle := callerTable(ctx, th).Install(obj.ID)

	result := table.Dispatch(ctx, th, uapi.OrdMessageIpcCopy, [4]uint32{uint32(msgHandle), infoPtr, 0, 0})
	assert.Equal(t, int32(0), result)
	assert.Equal(t, "payload", string(ctx.Memory.ReadBytes(uintptr(targetPtr), len("payload"))))

	got, err := uapi.ReadStr8(ctx.Memory, uintptr(clientArgPtr))
	require.NoError(t, err)
	assert.Equal(t, "payload", got, "client's own descriptor must be untouched by the copy")
}

// TestMessageIpcCopyExceedsTargetLenReturnsNoMemory exercises the
// TargetLen bounds check dropped when TargetLen was never consulted.
func TestMessageIpcCopyExceedsTargetLenReturnsNoMemory(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	const clientArgPtr = uint32(2048)
	const targetPtr = uint32(3072)
	const infoPtr = uint32(4096)
	writeGuestDescriptor(t, ctx, clientArgPtr, "payload")

	info := &uapi.MessageIpcCopyInfo{TargetPtr: targetPtr, TargetLen: 2, Flags: 0}
	ctx.Memory.WriteBytes(uintptr(infoPtr), uapi.Marshal(info))

	msg := ipc.NewMessage(nil, th, 1, [4]uint32{clientArgPtr, 0, 0, 0}, 0, nil)
	obj := ctx.Kernel.Registry.Create(kernelobj.KindMessage, "", kernelobj.OwnerRef{ProcessID: th.Process}, kernelobj.LocalAccess, msg)
	msgHandle := callerTable(ctx, th).Install(obj.ID)

	result := table.Dispatch(ctx, th, uapi.OrdMessageIpcCopy, [4]uint32{uint32(msgHandle), infoPtr, 0, 0})
	assert.Equal(t, int32(uapi.NoMemory), result)
}

func TestPropertyDefineAttachSetGetInt(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	defineResult := table.Dispatch(ctx, th, uapi.OrdPropertyDefine, [4]uint32{7, 9, uint32(int32(uapi.PropertyTypeInt)), 0})
	require.Equal(t, int32(0), defineResult)

	attachResult := table.Dispatch(ctx, th, uapi.OrdPropertyAttach, [4]uint32{7, 9, 0, 0})
	require.GreaterOrEqual(t, attachResult, int32(0))
	handle := uint32(attachResult)

	setResult := table.Dispatch(ctx, th, uapi.OrdPropertySetInt, [4]uint32{handle, 42, 0, 0})
	require.Equal(t, int32(0), setResult)

	getResult := table.Dispatch(ctx, th, uapi.OrdPropertyGetInt, [4]uint32{handle, 0, 0, 0})
	assert.EqualValues(t, 42, getResult)
}

func TestChunkCreateAndAdjust(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	createResult := table.Dispatch(ctx, th, uapi.OrdChunkCreate, [4]uint32{0, 0, 65536, 0})
	require.GreaterOrEqual(t, createResult, int32(0))
	handle := uint32(createResult)

	adjustResult := table.Dispatch(ctx, th, uapi.OrdChunkAdjust, [4]uint32{handle, uapi.ChunkAdjustNormal, 4096, 0})
	assert.Equal(t, int32(0), adjustResult)

	maxSizeResult := table.Dispatch(ctx, th, uapi.OrdChunkMaxSize, [4]uint32{handle, 0, 0, 0})
	assert.EqualValues(t, 65536, maxSizeResult)
}

func TestThreadCreateInstallsHandle(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	info := uapi.ThreadCreateInfo{Priority: 5}
	hostPtr := uint32(2048)
	ctx.Memory.WriteBytes(uintptr(hostPtr), uapi.Marshal(&info))

	createResult := table.Dispatch(ctx, th, uapi.OrdThreadCreate, [4]uint32{hostPtr, 0, 0, 0})
	assert.GreaterOrEqual(t, createResult, int32(0))
}

func TestHandleCloseUnknownHandleReturnsBadHandle(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)
	result := table.Dispatch(ctx, th, uapi.OrdHandleClose, [4]uint32{999, 0, 0, 0})
	assert.EqualValues(t, uapi.BadHandle, result)
}

func TestObjectNextFindsNamedObject(t *testing.T) {
	ctx, th := newTestContext(t)
	table := BuildTable(uapi.Revision94)

	nameHostPtr := uint32(3000)
	writeGuestDescriptor(t, ctx, nameHostPtr, "sem-findable")
	table.Dispatch(ctx, th, uapi.OrdSemaphoreCreate, [4]uint32{nameHostPtr, 0, 0, 0})

	result := table.Dispatch(ctx, th, uapi.OrdObjectNext, [4]uint32{uint32(kernelobj.KindSemaphore), nameHostPtr, 0, 0})
	assert.Greater(t, result, int32(0))
}
