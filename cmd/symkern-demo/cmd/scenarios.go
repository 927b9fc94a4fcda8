package cmd

import (
	"fmt"

	kernelcore "github.com/symkern/kernelcore"
	"github.com/symkern/kernelcore/internal/config"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// scenarioFunc boots its own kernel, drives one scripted scenario to
// completion, and returns a human-readable dispatch trace.
type scenarioFunc func(cfg *config.Config) ([]string, error)

var scenarios = map[string]scenarioFunc{
	"server-roundtrip": serverRoundTrip,
	"property-pubsub":  propertyPubSub,
}

// newDemoKernel boots a kernel over a fresh, generously sized guest
// address space, the way the demo's scripted scenarios need: no real
// guest binary is loaded, so every guest pointer below is a literal
// offset the scenario itself allocates.
func newDemoKernel(cfg *config.Config) (*kernelcore.Kernel, *kernelcore.StubMemory, error) {
	mem := kernelcore.NewStubMemory(64 * 1024)
	params := kernelcore.DefaultKernelParams(mem)
	params.Revision = uapi.Revision(cfg.Revision)
	k, err := kernelcore.NewKernel(params)
	return k, mem, err
}

// writeDesc8 writes s as a narrow (TDesC8-style) descriptor at guestAddr:
// an 8-byte length/max-length header immediately followed by the bytes.
func writeDesc8(mem *kernelcore.StubMemory, guestAddr uint32, s string) error {
	hostPtr, ok := mem.Translate(guestAddr)
	if !ok {
		return fmt.Errorf("descriptor address 0x%x out of range", guestAddr)
	}
	hdr := &uapi.NarrowDescriptorHeader{LengthAndType: uint32(len(s)), MaxLength: uint32(len(s))}
	mem.WriteBytes(hostPtr, uapi.Marshal(hdr))
	mem.WriteBytes(hostPtr+8, []byte(s))
	return nil
}

func readGuestUint32(mem *kernelcore.StubMemory, guestAddr uint32) uint32 {
	hostPtr, ok := mem.Translate(guestAddr)
	if !ok {
		return 0
	}
	b := mem.ReadBytes(hostPtr, 4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func traceDispatch(trace *[]string, th *scheduler.Thread, op string, ordinal uint32, args [4]uint32, result int32) {
	*trace = append(*trace, fmt.Sprintf(
		"  %-7s %-18s ordinal=0x%02x args=%v -> %d (state=%s)",
		th.Name, op, ordinal, args, result, th.State))
}

// serverRoundTrip implements spec scenario 1: a server/session/message
// round trip between two threads. The send happens before the receive so
// the demo exercises ServerReceive's non-blocking fast path end to end
// (the blocking path leaves the delivered message for the scheduler to
// wake the receiver into on its next turn, which this single-step script
// does not simulate).
func serverRoundTrip(cfg *config.Config) ([]string, error) {
	var trace []string

	k, mem, err := newDemoKernel(cfg)
	if err != nil {
		return nil, err
	}

	_, thA := k.BootProcess("echo-server", "server.exe", 10)
	_, thB := k.BootProcess("echo-client", "client.exe", 10)

	const (
		nameAddr   uint32 = 0x100
		msgSlotPtr uint32 = 0x200
		stsAPtr    uint32 = 0x204
		stsBPtr    uint32 = 0x208
	)
	if err := writeDesc8(mem, nameAddr, "Echo"); err != nil {
		return trace, err
	}

	r := k.Dispatch(thA, uapi.OrdServerCreate, [4]uint32{nameAddr, 0, 0, 0})
	traceDispatch(&trace, thA, "ServerCreate", uapi.OrdServerCreate, [4]uint32{nameAddr, 0, 0, 0}, r)
	if r < 0 {
		return trace, fmt.Errorf("ServerCreate failed: %s", uapi.ErrorCode(r))
	}
	serverHandle := uint32(r)

	r = k.Dispatch(thB, uapi.OrdSessionCreate, [4]uint32{nameAddr, 1, 0, 0})
	traceDispatch(&trace, thB, "SessionCreate", uapi.OrdSessionCreate, [4]uint32{nameAddr, 1, 0, 0}, r)
	if r < 0 {
		return trace, fmt.Errorf("SessionCreate failed: %s", uapi.ErrorCode(r))
	}
	sessionHandle := uint32(r)

	const function, arg = 42, 7
	sendArgs := [4]uint32{sessionHandle, function, arg, stsBPtr}
	r = k.Dispatch(thB, uapi.OrdSessionSendSync, sendArgs)
	traceDispatch(&trace, thB, "SessionSendSync", uapi.OrdSessionSendSync, sendArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("SessionSendSync failed: %s", uapi.ErrorCode(r))
	}
	if thB.State != scheduler.StateWaiting {
		return trace, fmt.Errorf("expected client thread to block awaiting completion, got state %s", thB.State)
	}

	recvArgs := [4]uint32{serverHandle, msgSlotPtr, stsAPtr, 0}
	r = k.Dispatch(thA, uapi.OrdServerReceive, recvArgs)
	traceDispatch(&trace, thA, "ServerReceive", uapi.OrdServerReceive, recvArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("ServerReceive failed: %s", uapi.ErrorCode(r))
	}
	messageHandle := uint32(r)
	if delivered := readGuestUint32(mem, msgSlotPtr); delivered != messageHandle {
		return trace, fmt.Errorf("message slot holds handle %d, dispatch returned %d", delivered, messageHandle)
	}

	const completionValue = 7
	completeArgs := [4]uint32{messageHandle, completionValue, 0, 0}
	r = k.Dispatch(thA, uapi.OrdMessageComplete, completeArgs)
	traceDispatch(&trace, thA, "MessageComplete", uapi.OrdMessageComplete, completeArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("MessageComplete failed: %s", uapi.ErrorCode(r))
	}
	if thB.State != scheduler.StateReady {
		return trace, fmt.Errorf("expected client thread woken after MessageComplete, got state %s", thB.State)
	}

	trace = append(trace, fmt.Sprintf("  client thread woken: state=%s", thB.State))
	return trace, nil
}

// propertyPubSub implements spec scenario 2: a subscriber blocks on a
// property, a second thread sets it by (category, key) without ever
// attaching, and the subscriber is woken with the new value visible.
func propertyPubSub(cfg *config.Config) ([]string, error) {
	var trace []string

	k, _, err := newDemoKernel(cfg)
	if err != nil {
		return nil, err
	}

	_, thT := k.BootProcess("subscriber", "sub.exe", 10)
	_, thU := k.BootProcess("publisher", "pub.exe", 10)

	const category, key uint32 = 0x10, 0x20

	defineArgs := [4]uint32{category, key, uint32(uapi.PropertyTypeInt), 4}
	r := k.Dispatch(thT, uapi.OrdPropertyDefine, defineArgs)
	traceDispatch(&trace, thT, "PropertyDefine", uapi.OrdPropertyDefine, defineArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("PropertyDefine failed: %s", uapi.ErrorCode(r))
	}

	attachArgs := [4]uint32{category, key, 0, 0}
	r = k.Dispatch(thT, uapi.OrdPropertyAttach, attachArgs)
	traceDispatch(&trace, thT, "PropertyAttach", uapi.OrdPropertyAttach, attachArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("PropertyAttach failed: %s", uapi.ErrorCode(r))
	}
	propertyHandle := uint32(r)

	const statusAddr uint32 = 0x300
	subArgs := [4]uint32{propertyHandle, statusAddr, 0, 0}
	r = k.Dispatch(thT, uapi.OrdPropertySubscribe, subArgs)
	traceDispatch(&trace, thT, "PropertySubscribe", uapi.OrdPropertySubscribe, subArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("PropertySubscribe failed: %s", uapi.ErrorCode(r))
	}

	waitArgs := [4]uint32{}
	r = k.Dispatch(thT, uapi.FastOrdinalBase|uapi.OrdWaitForAnyRequest, waitArgs)
	traceDispatch(&trace, thT, "WaitForAnyRequest", uapi.FastOrdinalBase|uapi.OrdWaitForAnyRequest, waitArgs, r)
	if thT.State != scheduler.StateWaiting {
		return trace, fmt.Errorf("expected subscriber to block, got state %s", thT.State)
	}

	const value = 99
	setArgs := [4]uint32{category, key, value, 0}
	r = k.Dispatch(thU, uapi.OrdPropertyFindSetInt, setArgs)
	traceDispatch(&trace, thU, "PropertyFindSetInt", uapi.OrdPropertyFindSetInt, setArgs, r)
	if r < 0 {
		return trace, fmt.Errorf("PropertyFindSetInt failed: %s", uapi.ErrorCode(r))
	}
	if thT.State != scheduler.StateReady {
		return trace, fmt.Errorf("expected subscriber woken after publish, got state %s", thT.State)
	}

	getArgs := [4]uint32{propertyHandle, 0, 0, 0}
	r = k.Dispatch(thT, uapi.OrdPropertyGetInt, getArgs)
	traceDispatch(&trace, thT, "PropertyGetInt", uapi.OrdPropertyGetInt, getArgs, r)
	if r != value {
		return trace, fmt.Errorf("PropertyGetInt returned %d, want %d", r, value)
	}

	return trace, nil
}
