package uapi

import (
	"encoding/binary"
)

// Marshal converts a struct to bytes using little-endian byte order, the
// guest ABI's wire order regardless of host architecture.
func Marshal(v interface{}) []byte {
	switch val := v.(type) {
	case *MessageIpcCopyInfo:
		return marshalIpcCopyInfo(val)
	case *ThreadCreateInfo:
		return marshalThreadCreateInfo(val)
	case *NarrowDescriptorHeader:
		return marshalDescriptorHeader(val.LengthAndType, val.MaxLength)
	case *WideDescriptorHeader:
		return marshalDescriptorHeader(val.LengthAndType, val.MaxLength)
	default:
		return nil
	}
}

// Unmarshal converts bytes back to a struct.
func Unmarshal(data []byte, v interface{}) error {
	switch val := v.(type) {
	case *MessageIpcCopyInfo:
		return unmarshalIpcCopyInfo(data, val)
	case *ThreadCreateInfo:
		return unmarshalThreadCreateInfo(data, val)
	case *NarrowDescriptorHeader:
		return unmarshalDescriptorHeader(data, &val.LengthAndType, &val.MaxLength)
	case *WideDescriptorHeader:
		return unmarshalDescriptorHeader(data, &val.LengthAndType, &val.MaxLength)
	default:
		return ErrInvalidType
	}
}

func marshalIpcCopyInfo(info *MessageIpcCopyInfo) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], info.TargetPtr)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(info.TargetLen))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(info.Flags))
	return buf
}

func unmarshalIpcCopyInfo(data []byte, info *MessageIpcCopyInfo) error {
	if len(data) < 12 {
		return ErrInsufficientData
	}
	info.TargetPtr = binary.LittleEndian.Uint32(data[0:4])
	info.TargetLen = int32(binary.LittleEndian.Uint32(data[4:8]))
	info.Flags = int32(binary.LittleEndian.Uint32(data[8:12]))
	return nil
}

func marshalThreadCreateInfo(info *ThreadCreateInfo) []byte {
	buf := make([]byte, 64)
	fields := []uint32{
		info.Handle, info.Type, info.FuncPtr, info.Ptr,
		info.SupervisorStack, info.SupervisorStackSize,
		info.UserStack, info.UserStackSize,
		info.Priority, info.NamePtr, info.TotalSize, info.Allocator,
		info.HeapInitialSize, info.HeapMaxSize, info.Flags, info.Reserved,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], f)
	}
	return buf
}

func unmarshalThreadCreateInfo(data []byte, info *ThreadCreateInfo) error {
	if len(data) < 64 {
		return ErrInsufficientData
	}
	fields := []*uint32{
		&info.Handle, &info.Type, &info.FuncPtr, &info.Ptr,
		&info.SupervisorStack, &info.SupervisorStackSize,
		&info.UserStack, &info.UserStackSize,
		&info.Priority, &info.NamePtr, &info.TotalSize, &info.Allocator,
		&info.HeapInitialSize, &info.HeapMaxSize, &info.Flags, &info.Reserved,
	}
	for i, f := range fields {
		*f = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return nil
}

func marshalDescriptorHeader(lengthAndType, maxLength uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], lengthAndType)
	binary.LittleEndian.PutUint32(buf[4:8], maxLength)
	return buf
}

func unmarshalDescriptorHeader(data []byte, lengthAndType, maxLength *uint32) error {
	if len(data) < 8 {
		return ErrInsufficientData
	}
	*lengthAndType = binary.LittleEndian.Uint32(data[0:4])
	*maxLength = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

// MarshalError mirrors unmarshalling failures as a comparable string type.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "insufficient data for unmarshaling"
	ErrInvalidType      MarshalError = "invalid type for marshaling"
)

// GuestMemory is the narrow surface the descriptor accessor facade needs
// from the CPU/memory collaborator (see internal/collab.Memory for the
// full interface): read/write raw bytes at a host pointer the caller has
// already translated and validated.
type GuestMemory interface {
	ReadBytes(hostPtr uintptr, n int) []byte
	WriteBytes(hostPtr uintptr, data []byte)
}

// ReadStr8 reads a narrow (8-bit) descriptor's current contents: a header
// at hostPtr, followed immediately by up to MaxLength bytes of data.
func ReadStr8(mem GuestMemory, hostPtr uintptr) (string, error) {
	var hdr NarrowDescriptorHeader
	if err := Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return "", err
	}
	data := mem.ReadBytes(hostPtr+8, int(hdr.Length()))
	return string(data), nil
}

// WriteStr8 writes s into a narrow descriptor's buffer at hostPtr,
// updating its length word. Returns ErrInsufficientData if s does not fit
// within the descriptor's declared max length.
func WriteStr8(mem GuestMemory, hostPtr uintptr, s string) error {
	var hdr NarrowDescriptorHeader
	if err := Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return err
	}
	if uint32(len(s)) > hdr.MaxLength {
		return ErrInsufficientData
	}
	hdr.LengthAndType = (hdr.LengthAndType &^ descriptorLenMask) | uint32(len(s))
	mem.WriteBytes(hostPtr, Marshal(&hdr))
	mem.WriteBytes(hostPtr+8, []byte(s))
	return nil
}

// ReadStr16 reads a wide (16-bit) descriptor's contents as a UTF-16LE
// decoded string's raw code units, left to the caller to decode.
func ReadStr16(mem GuestMemory, hostPtr uintptr) ([]uint16, error) {
	var hdr WideDescriptorHeader
	if err := Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return nil, err
	}
	n := int(hdr.Length())
	raw := mem.ReadBytes(hostPtr+8, n*2)
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return units, nil
}

// WriteStr16 writes units into a wide descriptor's buffer at hostPtr,
// updating its length word.
func WriteStr16(mem GuestMemory, hostPtr uintptr, units []uint16) error {
	var hdr WideDescriptorHeader
	if err := Unmarshal(mem.ReadBytes(hostPtr, 8), &hdr); err != nil {
		return err
	}
	if uint32(len(units)) > hdr.MaxLength {
		return ErrInsufficientData
	}
	hdr.LengthAndType = (hdr.LengthAndType &^ descriptorLenMask) | uint32(len(units))
	mem.WriteBytes(hostPtr, Marshal(&hdr))
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], u)
	}
	mem.WriteBytes(hostPtr+8, raw)
	return nil
}
