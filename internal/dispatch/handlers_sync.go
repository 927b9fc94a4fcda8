package dispatch

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func handleSemaphoreCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	sem := scheduler.NewSemaphore(int32(args[1]))
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindSemaphore, name, kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, sem)
	return Ok(int32(h))
}

func resolveSemaphore(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*scheduler.Semaphore, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindSemaphore)
	if code != uapi.Ok {
		return nil, code
	}
	sem, ok := obj.Payload.(*scheduler.Semaphore)
	if !ok {
		return nil, uapi.BadHandle
	}
	return sem, uapi.Ok
}

// handleSemaphoreWait implements SemaphoreWait. The accepted timeout
// argument (args[1]) is intentionally ignored: this core warns rather
// than honoring it.
//
// Semaphore.Wait is a classical wait: it owns the thread's State
// transition and its own wait queue independently of the
// WaitForAnyRequest/request-semaphore protocol. When it blocks, the
// caller only needs to clear the scheduler's current-thread slot via
// Park; routing through WaitForAnyRequest here would consume the
// thread's unrelated request-semaphore counter instead.
func handleSemaphoreWait(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	sem, code := resolveSemaphore(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	if args[1] != 0 {
		ctx.Log.Warn("SemaphoreWait timeout ignored", "handle", args[0], "timeout", args[1])
	}
	status := &scheduler.RequestStatus{}
	if sem.Wait(caller, status) {
		ctx.Scheduler.Park(caller)
	}
	return Ok(int32(0))
}

func handleSemaphoreSignal(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	sem, code := resolveSemaphore(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	sem.Signal(ctx.Scheduler)
	return Ok(int32(0))
}

func handleSemaphoreSignalN(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	sem, code := resolveSemaphore(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	sem.SignalN(ctx.Scheduler, int32(args[1]))
	return Ok(int32(0))
}

func handleMutexCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	mu := scheduler.NewMutex()
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindMutex, name, kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, mu)
	return Ok(int32(h))
}
