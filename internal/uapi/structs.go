package uapi

import "unsafe"

// MessageIpcCopyInfo is the argument struct for MessageIpcCopy, read
// directly out of guest memory. Layout must match the emulated ABI
// exactly (12 bytes): {target_ptr:u32, target_len:i32, flags:i32}.
type MessageIpcCopyInfo struct {
	TargetPtr uint32
	TargetLen int32
	Flags     int32
}

// Compile-time size check - must be exactly 12 bytes.
var _ [12]byte = [unsafe.Sizeof(MessageIpcCopyInfo{})]byte{}

// IsWide reports whether the copy targets a 16-bit (wide) descriptor.
func (i *MessageIpcCopyInfo) IsWide() bool {
	return uint32(i.Flags)&IpcCopyFlagWide != 0
}

// IsWriteToClient reports whether the copy writes into the client's
// descriptor (true) or reads from it (false).
func (i *MessageIpcCopyInfo) IsWriteToClient() bool {
	return uint32(i.Flags)&IpcCopyFlagWriteClient != 0
}

// ThreadCreateInfo is the guest-supplied argument to ThreadCreate. Layout
// must be exactly 64 bytes.
type ThreadCreateInfo struct {
	Handle              uint32
	Type                uint32
	FuncPtr             uint32
	Ptr                 uint32
	SupervisorStack     uint32
	SupervisorStackSize uint32
	UserStack           uint32
	UserStackSize       uint32
	Priority            uint32
	NamePtr             uint32
	TotalSize           uint32
	Allocator           uint32
	HeapInitialSize     uint32
	HeapMaxSize         uint32
	Flags               uint32
	Reserved            uint32
}

// Compile-time size check - must be exactly 64 bytes.
var _ [64]byte = [unsafe.Sizeof(ThreadCreateInfo{})]byte{}

// DescriptorType identifies the Symbian descriptor kind encoded in the top
// bits of a descriptor's length/type header word.
type DescriptorType uint8

const (
	DescriptorTypePtr  DescriptorType = iota // TPtr: pointer + length + max length
	DescriptorTypeBuf                        // TBuf: fixed buffer + length + max length
	DescriptorTypePtrC                       // TPtrC: pointer + length, no buffer
)

const (
	descriptorTypeShift = 28
	descriptorLenMask   = (1 << descriptorTypeShift) - 1
)

// NarrowDescriptorHeader is the 8-bit (TDesC8-family) descriptor header:
// a single length/type word, optionally followed by a max-length word for
// buffer and pointer-buffer variants.
type NarrowDescriptorHeader struct {
	LengthAndType uint32
	MaxLength     uint32
}

// Compile-time size check.
var _ [8]byte = [unsafe.Sizeof(NarrowDescriptorHeader{})]byte{}

// Length returns the descriptor's current used length in characters.
func (h *NarrowDescriptorHeader) Length() uint32 {
	return h.LengthAndType & descriptorLenMask
}

// Type returns the descriptor's type tag.
func (h *NarrowDescriptorHeader) Type() DescriptorType {
	return DescriptorType(h.LengthAndType >> descriptorTypeShift)
}

// WideDescriptorHeader is the 16-bit (TDesC16-family) descriptor header.
// Field widths mirror NarrowDescriptorHeader; length counts UTF-16 code
// units rather than bytes.
type WideDescriptorHeader struct {
	LengthAndType uint32
	MaxLength     uint32
}

// Compile-time size check.
var _ [8]byte = [unsafe.Sizeof(WideDescriptorHeader{})]byte{}

func (h *WideDescriptorHeader) Length() uint32 {
	return h.LengthAndType & descriptorLenMask
}

func (h *WideDescriptorHeader) Type() DescriptorType {
	return DescriptorType(h.LengthAndType >> descriptorTypeShift)
}
