package kernelcore

import (
	"sync"

	"github.com/symkern/kernelcore/internal/clock"
)

// StubMemory is a byte-slice-backed fake of collab.Memory for unit tests
// and the demo CLI: a fully in-memory stand-in for the real
// collaborators, with no host syscalls, call-count tracking for test
// assertions, and cheap construction for reuse across test cases.
type StubMemory struct {
	mu   sync.Mutex
	buf  []byte
	regs [8]uint32

	translateCalls int
	readCalls      int
	writeCalls     int
}

// NewStubMemory allocates a StubMemory backed by size bytes of guest
// address space starting at guest address 0.
func NewStubMemory(size int) *StubMemory {
	return &StubMemory{buf: make([]byte, size)}
}

// Translate implements collab.Memory: guest addresses map 1:1 onto the
// backing buffer's offsets.
func (m *StubMemory) Translate(guestAddr uint32) (uintptr, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translateCalls++
	if int(guestAddr) >= len(m.buf) {
		return 0, false
	}
	return uintptr(guestAddr), true
}

func (m *StubMemory) ReadBytes(hostPtr uintptr, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	end := int(hostPtr) + n
	if end > len(m.buf) {
		end = len(m.buf)
	}
	return append([]byte(nil), m.buf[hostPtr:end]...)
}

func (m *StubMemory) WriteBytes(hostPtr uintptr, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	copy(m.buf[hostPtr:], data)
}

func (m *StubMemory) ReadRegister(n int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.regs) {
		return 0
	}
	return m.regs[n]
}

func (m *StubMemory) WriteRegister(n int, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.regs) {
		return
	}
	m.regs[n] = v
}

// CallCounts reports how many times each StubMemory operation has been
// invoked, for test assertions that care about access patterns.
func (m *StubMemory) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"translate": m.translateCalls,
		"read":      m.readCalls,
		"write":     m.writeCalls,
	}
}

// StubCPU is an alias for StubMemory: in this design the CPU/register
// collaborator and the guest-memory collaborator are the same narrow
// interface (collab.Memory bundles address translation with register
// access), so one fake satisfies both roles the ambient test tooling
// names.
type StubCPU = StubMemory

// NewStubCPU is an alias for NewStubMemory, named for call sites that use
// a StubMemory purely for its register-file behavior.
func NewStubCPU(size int) *StubCPU { return NewStubMemory(size) }

// StubHAL is a configurable fake of collab.HAL: tests register a response
// for a given (category, function) pair and assert on what was called.
type StubHAL struct {
	mu        sync.Mutex
	responses map[[2]uint32]int32
	calls     []HALCall
}

// HALCall records one DoHal invocation for later assertions.
type HALCall struct {
	Category, Function, A1, A2 uint32
}

// NewStubHAL constructs an empty StubHAL; unconfigured categories/
// functions answer NotSupported (-5), matching HostHAL's fallback.
func NewStubHAL() *StubHAL {
	return &StubHAL{responses: make(map[[2]uint32]int32)}
}

// SetResponse configures the value DoHal returns for (category, function).
func (h *StubHAL) SetResponse(category, function uint32, value int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses[[2]uint32{category, function}] = value
}

// DoHal implements collab.HAL.
func (h *StubHAL) DoHal(category, function, a1, a2 uint32) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, HALCall{category, function, a1, a2})
	if v, ok := h.responses[[2]uint32{category, function}]; ok {
		return v
	}
	return -5
}

// Calls returns every DoHal invocation recorded so far.
func (h *StubHAL) Calls() []HALCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HALCall(nil), h.calls...)
}

// StubClock is the kernel's mockable clock, re-exported here so test code
// doesn't need a separate import for the ambient test-tooling surface.
type StubClock = clock.MockClock

// NewStubClock constructs a StubClock starting at startMicros.
func NewStubClock(startMicros int64) *StubClock {
	return clock.NewMockClock(startMicros)
}
