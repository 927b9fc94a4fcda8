package ipc

import (
	"encoding/binary"

	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// Message is one IPC request: an ordinal, four 32-bit arguments plus a
// flag word (lowest 12 bits per-arg type tags, upper bits pin flags),
// the originating session/thread, and the caller's request-status.
type Message struct {
	Ordinal uint32
	Args    [4]uint32
	Flags   uint32

	Session *Session
	Thread  *scheduler.Thread
	status  *scheduler.RequestStatus

	killed bool
}

const argTypeTagMask = 0xFFF

// NewMessage builds a message for SessionSendSync/SessionSend: copies
// the four args and flag word, attaches the caller's request-status.
func NewMessage(session *Session, thread *scheduler.Thread, ordinal uint32, args [4]uint32, flags uint32, status *scheduler.RequestStatus) *Message {
	return &Message{Ordinal: ordinal, Args: args, Flags: flags, Session: session, Thread: thread, status: status}
}

// ArgTypeTag returns the whole per-arg type-tag field, the lowest 12
// bits of the flag word, covering all four arguments.
func (m *Message) ArgTypeTag() uint32 { return m.Flags & argTypeTagMask }

// Complete implements MessageComplete: writes value into the caller's
// request-status and signals the caller's thread.
func (m *Message) Complete(sched *scheduler.Scheduler, value uapi.ErrorCode) {
	if m.status != nil {
		m.status.Complete(value)
	}
	sched.SignalRequest(m.Thread, 1)
}

// PanicInfo describes why a thread was killed via MessageKill/ThreadKill
// with a panic exit type, enriched with a human description for logging.
type PanicInfo struct {
	Category string
	Reason   int32
}

var defaultPanicCategories = map[string]string{
	"USER":    "user-side programming error",
	"KERN-EXEC": "kernel execution fault",
	"E32USER-CBase": "C++ base library misuse",
}

// DescribePanic returns a human-readable description for a recognized
// default panic category, or "unrecognized panic category" otherwise.
func DescribePanic(category string) string {
	if desc, ok := defaultPanicCategories[category]; ok {
		return desc
	}
	return "unrecognized panic category"
}

// Kill implements MessageKill's non-error-returning panic path: it marks
// the originating thread exited via the scheduler's Kill. It does not
// return an error to the killer, per the propagation policy.
func (m *Message) Kill(sched *scheduler.Scheduler) {
	m.killed = true
	sched.Kill(m.Thread)
}

// GuestMemory is the narrow memory surface MessageIpcCopy and the
// descriptor-length queries need, shared with the uapi package's
// descriptor accessor facade.
type GuestMemory = interface {
	ReadBytes(hostPtr uintptr, n int) []byte
	WriteBytes(hostPtr uintptr, data []byte)
}

// ArgPtr returns argument paramIdx's guest pointer, BadDescriptor if the
// index is out of range. The guest-address translation itself is the
// caller's job (internal/dispatch holds the CPU/memory collaborator);
// Message only knows the raw argument word.
func (m *Message) ArgPtr(idx int) (uint32, uapi.ErrorCode) {
	if idx < 0 || idx > 3 {
		return 0, uapi.BadDescriptor
	}
	return m.Args[idx], uapi.Ok
}

// IpcCopy implements MessageIpcCopy: transfers bytes between the
// client's argument paramIdx, a full descriptor (header + buffer) at
// clientHostPtr, and info's target side, a flat raw buffer at
// targetHostPtr bounded by info.TargetLen with no descriptor header of
// its own. offset is applied to the source before the TargetLen bounds
// check, which fails with NoMemory when the source doesn't fit.
func (m *Message) IpcCopy(mem GuestMemory, paramIdx int, info *uapi.MessageIpcCopyInfo, clientHostPtr, targetHostPtr uintptr, offset int) uapi.ErrorCode {
	if _, code := m.ArgPtr(paramIdx); code != uapi.Ok {
		return code
	}
	if info.IsWide() {
		return m.ipcCopyWide(mem, clientHostPtr, targetHostPtr, info, offset)
	}
	return m.ipcCopyNarrow(mem, clientHostPtr, targetHostPtr, info, offset)
}

// ipcCopyNarrow moves 8-bit descriptor data between the client's
// descriptor at clientHostPtr and the raw TargetLen-byte buffer at
// targetHostPtr. WriteToClient copies target -> client (zero-padded up
// to offset); the reverse direction copies client[offset:] -> target and
// requires it fit within TargetLen.
func (m *Message) ipcCopyNarrow(mem GuestMemory, clientHostPtr, targetHostPtr uintptr, info *uapi.MessageIpcCopyInfo, offset int) uapi.ErrorCode {
	if info.IsWriteToClient() {
		content := make([]byte, offset+int(info.TargetLen))
		copy(content[offset:], mem.ReadBytes(targetHostPtr, int(info.TargetLen)))
		if err := uapi.WriteStr8(mem, clientHostPtr, string(content)); err != nil {
			return uapi.NoMemory
		}
		return uapi.Ok
	}
	s, err := uapi.ReadStr8(mem, clientHostPtr)
	if err != nil {
		return uapi.BadDescriptor
	}
	if offset > len(s) {
		return uapi.Argument
	}
	chunk := s[offset:]
	if len(chunk) > int(info.TargetLen) {
		return uapi.NoMemory
	}
	mem.WriteBytes(targetHostPtr, []byte(chunk))
	return uapi.Ok
}

// ipcCopyWide mirrors ipcCopyNarrow for 16-bit descriptors: TargetLen
// counts UTF-16 code units, and the raw target buffer is 2*TargetLen
// bytes.
func (m *Message) ipcCopyWide(mem GuestMemory, clientHostPtr, targetHostPtr uintptr, info *uapi.MessageIpcCopyInfo, offset int) uapi.ErrorCode {
	if info.IsWriteToClient() {
		units := make([]uint16, offset+int(info.TargetLen))
		copy(units[offset:], decodeUnits16(mem.ReadBytes(targetHostPtr, int(info.TargetLen)*2)))
		if err := uapi.WriteStr16(mem, clientHostPtr, units); err != nil {
			return uapi.NoMemory
		}
		return uapi.Ok
	}
	units, err := uapi.ReadStr16(mem, clientHostPtr)
	if err != nil {
		return uapi.BadDescriptor
	}
	if offset > len(units) {
		return uapi.Argument
	}
	chunk := units[offset:]
	if len(chunk) > int(info.TargetLen) {
		return uapi.NoMemory
	}
	mem.WriteBytes(targetHostPtr, encodeUnits16(chunk))
	return uapi.Ok
}

// decodeUnits16/encodeUnits16 convert between a little-endian raw byte
// buffer and UTF-16 code units, for the target side of an IPC copy,
// which carries no descriptor header of its own.
func decodeUnits16(raw []byte) []uint16 {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return units
}

func encodeUnits16(units []uint16) []byte {
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], u)
	}
	return raw
}

// GetDesLength implements MessageGetDesLength: the current length of the
// narrow descriptor whose header is at hostPtr.
func (m *Message) GetDesLength(mem GuestMemory, hostPtr uintptr) (int32, uapi.ErrorCode) {
	var hdr uapi.NarrowDescriptorHeader
	if err := uapi.Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return 0, uapi.BadDescriptor
	}
	return int32(hdr.Length()), uapi.Ok
}

// GetDesMaxLength implements MessageGetDesMaxLength: inspects the raw
// guest descriptor structure to report its capacity.
func (m *Message) GetDesMaxLength(mem GuestMemory, hostPtr uintptr) (int32, uapi.ErrorCode) {
	var hdr uapi.NarrowDescriptorHeader
	if err := uapi.Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return 0, uapi.BadDescriptor
	}
	return int32(hdr.MaxLength), uapi.Ok
}
