package dispatch

import (
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// handleWaitForAnyRequest implements the fast-path WaitForAnyRequest
// suspension point directly against the scheduler.
func handleWaitForAnyRequest(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	ctx.Scheduler.WaitForAnyRequest(caller)
	return Ok(int32(0))
}

func handleHeap(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(caller.HeapPtr))
}

// handleHeapSwitch swaps the caller's current heap pointer for a new one,
// returning the previous value, per TLS/heap-pointer swap SVCs.
func handleHeapSwitch(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	prev := caller.HeapPtr
	caller.HeapPtr = args[0]
	return Ok(int32(prev))
}

func handleActiveScheduler(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(caller.ActiveSchedulerPtr))
}

func handleSetActiveScheduler(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	caller.ActiveSchedulerPtr = args[0]
	return Ok(int32(0))
}

func handleTrapHandler(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(caller.TrapHandlerPtr))
}

func handleSetTrapHandler(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	caller.TrapHandlerPtr = args[0]
	return Ok(int32(0))
}

// handleLeaveStart implements LeaveStart/TRAP entry: increments the
// caller's leave depth and installs the new trap handler, returning the
// previously installed one.
func handleLeaveStart(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	prev := caller.LeaveStart(args[0])
	return Ok(int32(prev))
}

// handleLeaveEnd implements LeaveEnd: decrements the leave depth and
// returns the new depth. A negative result is a fatal consistency error
// in the guest's TRAP bookkeeping: it is logged critical, the counter is
// left at its negative value, and the handler returns General.
func handleLeaveEnd(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	depth := caller.LeaveEnd()
	if depth < 0 {
		ctx.Log.Critical("leave depth went negative", "thread", caller.ID, "depth", depth)
		return Err[int32](uapi.General)
	}
	return Ok(int32(depth))
}

// handleDebugMask/handleDebugMaskIndex implement the two fast-path debug
// mask accessors. Per the resolved open question, the emulator carries no
// live debug trace categories: both always report a zero mask.
func handleDebugMask(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(0))
}

func handleDebugMaskIndex(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(0))
}

// handleUTCOffset implements the fast-path UTCOffset: the live host UTC
// offset in seconds, per the resolved open question.
func handleUTCOffset(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(ctx.Clock.UTCOffsetSeconds())
}

// handleTimeNow implements TimeNow: the absolute Gregorian-microsecond
// guest time, truncated to the low 32 bits the guest register can carry;
// callers needing the full 64-bit value use TimeNow64 semantics through
// ctx.Clock directly.
func handleTimeNow(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(ctx.Clock.NowMicros()))
}

// handleSafeInc32 implements SafeInc32: the guest memory cell at args[0]
// is incremented by one if it holds a positive value and left unchanged
// otherwise; the cell's previous value is returned. Per the resolved open
// question, the guest cell is mutated rather than a host pointer.
func handleSafeInc32(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	hostPtr, ok := ctx.Memory.Translate(args[0])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	cur := int32(readUint32(ctx.Memory.ReadBytes(hostPtr, 4)))
	if cur > 0 {
		writeGuestUint32(ctx, args[0], uint32(cur+1))
	}
	return Ok(cur)
}

func readUint32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func handleHalFunction(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(ctx.HAL.DoHal(args[0], args[1], args[2], args[3]))
}

func handleDebugPrint(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	s, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Log.Debug("guest debug print", "thread", caller.ID, "text", s)
	return Ok(int32(0))
}

// handleUserSvrRomHeaderAddress/handleGetGlobalUserData return guest
// addresses this core has no real ROM/global-data image for; both report
// NotSupported rather than a fabricated address.
func handleUserSvrRomHeaderAddress(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleGetGlobalUserData(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

// The following ordinals are named in the guest ABI table but this core
// has no modeled semantics for them (library loading, platform security
// diagnostics, and legacy DLL locking are out of scope); each reports
// NotSupported rather than being silently absent from the dispatch table,
// preserving bit-exact ordinal coverage.
func handleStaticCallList(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handlePlatSecDiagnostic(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleExceptionDescriptor(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleProcessSecurityInfo(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleThreadSecurityInfo(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleMessageSecurityInfo(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleLibraryLookup(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleLibraryAttach(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleLibraryAttached(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

func handleDllFileName(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Err[int32](uapi.NotSupported)
}

// handleWaitDllLock/handleReleaseDllLock operate the process's single DLL
// lock mutex, lazily constructed on first use.
func handleWaitDllLock(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := ctx.Process(caller.Process)
	if p == nil {
		return Err[int32](uapi.BadHandle)
	}
	if p.DLLLock == nil {
		p.DLLLock = scheduler.NewMutex()
	}
	status := &scheduler.RequestStatus{}
	if p.DLLLock.Wait(caller, status) {
		ctx.Scheduler.Park(caller)
	}
	return Ok(int32(0))
}

func handleReleaseDllLock(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := ctx.Process(caller.Process)
	if p == nil {
		return Err[int32](uapi.BadHandle)
	}
	if p.DLLLock == nil {
		return Ok(int32(0))
	}
	p.DLLLock.Signal(ctx.Scheduler)
	return Ok(int32(0))
}
