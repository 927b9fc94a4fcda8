package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func TestServerRoundTrip(t *testing.T) {
	sched := scheduler.New()
	server := NewServer("Echo")
	session := NewSession(server, 1, 0)

	threadA := scheduler.NewThread(1, 1, "A", 1)
	threadB := scheduler.NewThread(2, 1, "B", 1)
	sched.Enqueue(threadA)
	sched.Enqueue(threadB)

	stsA := &scheduler.RequestStatus{}
	var msgSlot *Message
	blocked := server.Receive(threadA, stsA, &msgSlot)
	assert.True(t, blocked, "server has nothing pending yet")

	stsB := &scheduler.RequestStatus{}
	msg := NewMessage(session, threadB, 42, [4]uint32{1, 2, 3, 4}, 0, stsB)
	server.Enqueue(sched, msg)

	require.NotNil(t, msgSlot)
	assert.EqualValues(t, 42, msgSlot.Ordinal)
	assert.Equal(t, [4]uint32{1, 2, 3, 4}, msgSlot.Args)
	v, set := stsA.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Ok, v)

	msgSlot.Complete(sched, 7)
	vb, setb := stsB.Value()
	require.True(t, setb)
	assert.EqualValues(t, 7, vb)
}

func TestServerReceiveDeliversAlreadyPendingMessage(t *testing.T) {
	sched := scheduler.New()
	server := NewServer("Echo")
	session := NewSession(server, 1, 0)

	threadB := scheduler.NewThread(2, 1, "B", 1)
	stsB := &scheduler.RequestStatus{}
	msg := NewMessage(session, threadB, 1, [4]uint32{}, 0, stsB)
	server.Enqueue(sched, msg)

	threadA := scheduler.NewThread(1, 1, "A", 1)
	stsA := &scheduler.RequestStatus{}
	var out *Message
	blocked := server.Receive(threadA, stsA, &out)
	assert.False(t, blocked)
	require.NotNil(t, out)
	assert.EqualValues(t, 1, out.Ordinal)
}

func TestServerCancel(t *testing.T) {
	sched := scheduler.New()
	server := NewServer("Echo")

	threadA := scheduler.NewThread(1, 1, "A", 1)
	stsA := &scheduler.RequestStatus{}
	var out *Message
	server.Receive(threadA, stsA, &out)

	assert.True(t, server.Cancel(sched))
	v, set := stsA.Value()
	require.True(t, set)
	assert.Equal(t, uapi.Cancelled, v)

	assert.False(t, server.Cancel(sched))
}

func TestSessionShare(t *testing.T) {
	server := NewServer("Echo")
	session := NewSession(server, 1, 0)
	assert.Equal(t, SessionLocal, session.Access)

	session.Share(2)
	assert.Equal(t, SessionExplicitAttach, session.Access)

	session.Share(0)
	assert.Equal(t, SessionLocal, session.Access)
}

func TestDescribePanic(t *testing.T) {
	assert.Contains(t, DescribePanic("USER"), "programming error")
	assert.Equal(t, "unrecognized panic category", DescribePanic("BOGUS"))
}

type fakeMem struct{ buf []byte }

func (m *fakeMem) ReadBytes(hostPtr uintptr, n int) []byte {
	return append([]byte(nil), m.buf[hostPtr:int(hostPtr)+n]...)
}
func (m *fakeMem) WriteBytes(hostPtr uintptr, data []byte) { copy(m.buf[hostPtr:], data) }

// TestMessageIpcCopyReadFromClient copies the client's own argument
// descriptor into the caller-supplied raw target buffer (IsWriteToClient
// false): clientHostPtr holds a full descriptor, targetHostPtr is a flat
// buffer with no header of its own.
func TestMessageIpcCopyReadFromClient(t *testing.T) {
	mem := &fakeMem{buf: make([]byte, 128)}
	clientHdr := &uapi.NarrowDescriptorHeader{MaxLength: 16}
	mem.WriteBytes(0, uapi.Marshal(clientHdr))
	_ = uapi.WriteStr8(mem, 0, "payload")

	info := &uapi.MessageIpcCopyInfo{TargetPtr: 64, TargetLen: 16, Flags: 0}
	msg := &Message{Args: [4]uint32{0}}

	code := msg.IpcCopy(mem, 0, info, 0, 64)
	require.Equal(t, uapi.Ok, code)
	assert.Equal(t, "payload", string(mem.ReadBytes(64, len("payload"))))
}

// TestMessageIpcCopyWriteToClient copies the raw target buffer into the
// client's own argument descriptor (IsWriteToClient true).
func TestMessageIpcCopyWriteToClient(t *testing.T) {
	mem := &fakeMem{buf: make([]byte, 128)}
	clientHdr := &uapi.NarrowDescriptorHeader{MaxLength: 16}
	mem.WriteBytes(0, uapi.Marshal(clientHdr))
	mem.WriteBytes(64, []byte("payload"))

	info := &uapi.MessageIpcCopyInfo{TargetPtr: 64, TargetLen: int32(len("payload")), Flags: int32(uapi.IpcCopyFlagWriteClient)}
	msg := &Message{Args: [4]uint32{0}}

	code := msg.IpcCopy(mem, 0, info, 0, 64)
	require.Equal(t, uapi.Ok, code)

	got, err := uapi.ReadStr8(mem, 0)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

// TestMessageIpcCopyExceedsTargetLen exercises the NoMemory bounds check
// when the client descriptor's content no longer fits in TargetLen after
// offset is applied.
func TestMessageIpcCopyExceedsTargetLen(t *testing.T) {
	mem := &fakeMem{buf: make([]byte, 128)}
	clientHdr := &uapi.NarrowDescriptorHeader{MaxLength: 16}
	mem.WriteBytes(0, uapi.Marshal(clientHdr))
	_ = uapi.WriteStr8(mem, 0, "payload")

	info := &uapi.MessageIpcCopyInfo{TargetPtr: 64, TargetLen: 2, Flags: 0}
	msg := &Message{Args: [4]uint32{0}}

	code := msg.IpcCopy(mem, 0, info, 0, 64)
	assert.Equal(t, uapi.NoMemory, code)
}

func TestMessageGetDesLength(t *testing.T) {
	mem := &fakeMem{buf: make([]byte, 32)}
	hdr := &uapi.NarrowDescriptorHeader{MaxLength: 16}
	mem.WriteBytes(0, uapi.Marshal(hdr))
	_ = uapi.WriteStr8(mem, 0, "abc")

	msg := &Message{}
	length, code := msg.GetDesLength(mem, 0)
	require.Equal(t, uapi.Ok, code)
	assert.EqualValues(t, 3, length)

	maxLen, code2 := msg.GetDesMaxLength(mem, 0)
	require.Equal(t, uapi.Ok, code2)
	assert.EqualValues(t, 16, maxLen)
}
