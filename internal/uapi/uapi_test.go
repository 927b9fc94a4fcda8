package uapi

import (
	"testing"
	"unsafe"
)

func TestStructSizes(t *testing.T) {
	tests := []struct {
		name     string
		size     uintptr
		expected int
	}{
		{"MessageIpcCopyInfo", unsafe.Sizeof(MessageIpcCopyInfo{}), 12},
		{"ThreadCreateInfo", unsafe.Sizeof(ThreadCreateInfo{}), 64},
		{"NarrowDescriptorHeader", unsafe.Sizeof(NarrowDescriptorHeader{}), 8},
		{"WideDescriptorHeader", unsafe.Sizeof(WideDescriptorHeader{}), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.size) != tt.expected {
				t.Errorf("%s size = %d, want %d", tt.name, tt.size, tt.expected)
			}
		})
	}
}

func TestIpcCopyInfoFlags(t *testing.T) {
	flags := IpcCopyFlagWide | IpcCopyFlagWriteClient
	info := &MessageIpcCopyInfo{Flags: int32(flags)}
	if !info.IsWide() {
		t.Error("expected IsWide() true")
	}
	if !info.IsWriteToClient() {
		t.Error("expected IsWriteToClient() true")
	}

	narrow := &MessageIpcCopyInfo{Flags: 0}
	if narrow.IsWide() || narrow.IsWriteToClient() {
		t.Error("expected both false for zero flags")
	}
}

func TestIpcCopyInfoMarshalRoundTrip(t *testing.T) {
	wide := IpcCopyFlagWide
	in := &MessageIpcCopyInfo{TargetPtr: 0x1000, TargetLen: 42, Flags: int32(wide)}
	buf := Marshal(in)
	if len(buf) != 12 {
		t.Fatalf("marshal length = %d, want 12", len(buf))
	}

	var out MessageIpcCopyInfo
	if err := Unmarshal(buf, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if out != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, *in)
	}
}

func TestThreadCreateInfoMarshalRoundTrip(t *testing.T) {
	in := &ThreadCreateInfo{
		Handle: 1, Type: 2, FuncPtr: 0x8000, Priority: 3,
		HeapInitialSize: 0x1000, HeapMaxSize: 0x100000,
	}
	buf := Marshal(in)
	if len(buf) != 64 {
		t.Fatalf("marshal length = %d, want 64", len(buf))
	}

	var out ThreadCreateInfo
	if err := Unmarshal(buf, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if out != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, *in)
	}
}

func TestUnmarshalInsufficientData(t *testing.T) {
	var info MessageIpcCopyInfo
	if err := Unmarshal([]byte{1, 2, 3}, &info); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

type fakeGuestMemory struct {
	buf []byte
}

func (m *fakeGuestMemory) ReadBytes(hostPtr uintptr, n int) []byte {
	return append([]byte(nil), m.buf[hostPtr:int(hostPtr)+n]...)
}

func (m *fakeGuestMemory) WriteBytes(hostPtr uintptr, data []byte) {
	copy(m.buf[hostPtr:], data)
}

func TestDescriptorAccessorFacadeNarrow(t *testing.T) {
	mem := &fakeGuestMemory{buf: make([]byte, 64)}
	hdr := &NarrowDescriptorHeader{LengthAndType: 0, MaxLength: 16}
	mem.WriteBytes(0, Marshal(hdr))

	if err := WriteStr8(mem, 0, "hello"); err != nil {
		t.Fatalf("WriteStr8 error: %v", err)
	}
	got, err := ReadStr8(mem, 0)
	if err != nil {
		t.Fatalf("ReadStr8 error: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadStr8 = %q, want %q", got, "hello")
	}
}

func TestDescriptorAccessorFacadeNarrowTooLong(t *testing.T) {
	mem := &fakeGuestMemory{buf: make([]byte, 16)}
	hdr := &NarrowDescriptorHeader{LengthAndType: 0, MaxLength: 4}
	mem.WriteBytes(0, Marshal(hdr))

	if err := WriteStr8(mem, 0, "toolong"); err == nil {
		t.Fatal("expected error writing string longer than MaxLength")
	}
}

func TestDescriptorAccessorFacadeWide(t *testing.T) {
	mem := &fakeGuestMemory{buf: make([]byte, 64)}
	hdr := &WideDescriptorHeader{LengthAndType: 0, MaxLength: 16}
	mem.WriteBytes(0, Marshal(hdr))

	units := []uint16{'h', 'i'}
	if err := WriteStr16(mem, 0, units); err != nil {
		t.Fatalf("WriteStr16 error: %v", err)
	}
	got, err := ReadStr16(mem, 0)
	if err != nil {
		t.Fatalf("ReadStr16 error: %v", err)
	}
	if len(got) != 2 || got[0] != 'h' || got[1] != 'i' {
		t.Errorf("ReadStr16 = %v, want [h i]", got)
	}
}
