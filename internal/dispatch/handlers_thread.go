package dispatch

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func resolveThread(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*scheduler.Thread, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindThread)
	if code != uapi.Ok {
		return nil, code
	}
	th := ctx.Thread(obj.ID)
	if th == nil {
		return nil, uapi.BadHandle
	}
	return th, uapi.Ok
}

func handleThreadID(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(th.ID))
}

func handleThreadResume(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(ctx.Scheduler.Resume(th)))
}

func handleThreadSuspend(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Scheduler.Suspend(th)
	return Ok(int32(0))
}

func handleThreadSetPriority(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	th.Priority = int(int32(args[1]))
	return Ok(int32(0))
}

func handleThreadSetFlags(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	_, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

// handleThreadKill implements ThreadKill: kills the target thread. A
// panic exit type does not return an error to the killer, per the
// propagation policy; non-panic kill returns Ok once the thread is
// marked dead.
func handleThreadKill(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Scheduler.Kill(th)
	return Ok(int32(0))
}

func handleThreadLogon(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	th.LogonWaiters = append(th.LogonWaiters, status)
	return Ok(int32(0))
}

func handleThreadLogonCancel(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	for _, s := range th.LogonWaiters {
		s.Complete(uapi.Cancelled)
	}
	th.LogonWaiters = nil
	return Ok(int32(0))
}

func handleThreadRename(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	name, nameCode := readGuestString(ctx, args[1])
	if nameCode != uapi.Ok {
		return Err[int32](nameCode)
	}
	th.Name = name
	return Ok(int32(0))
}

func handleThreadProcess(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(th.Process))
}

// handleThreadCreate implements ThreadCreate: reads a ThreadCreateInfo
// struct from guest memory, allocates a new thread object and installs
// its handle in the caller's table.
func handleThreadCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	hostPtr, ok := ctx.Memory.Translate(args[0])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	var info uapi.ThreadCreateInfo
	if err := uapi.Unmarshal(ctx.Memory.ReadBytes(hostPtr, 64), &info); err != nil {
		return Err[int32](uapi.Argument)
	}

	id := ctx.Kernel.Registry.Create(kernelobj.KindThread, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, nil).ID
	th := scheduler.NewThread(id, caller.Process, "", int(info.Priority))
	th.HeapPtr = info.FuncPtr
	ctx.RegisterThread(id, th)
	ctx.Scheduler.Resume(th)

	h := callerTable(ctx, caller).Install(id)
	return Ok(int32(h))
}

func handleDllTls(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	key := scheduler.TLSKey{LibraryHandle: kernelobj.Handle(args[0]), DllUID: args[1]}
	v, ok := caller.TLS[key]
	if !ok {
		return Err[int32](uapi.NotFound)
	}
	return Ok(int32(v))
}

func handleDllSetTls(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	key := scheduler.TLSKey{LibraryHandle: kernelobj.Handle(args[0]), DllUID: args[1]}
	caller.TLS[key] = args[2]
	return Ok(int32(0))
}

func handleDllFreeTLS(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	key := scheduler.TLSKey{LibraryHandle: kernelobj.Handle(args[0]), DllUID: args[1]}
	delete(caller.TLS, key)
	return Ok(int32(0))
}

// handleLastThreadHandle implements LastThreadHandle: returns the
// caller's own "last handle" bookkeeping field.
func handleLastThreadHandle(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	return Ok(int32(caller.LastHandle))
}

// handleThreadRequestSignal and handleRequestSignal both implement
// signal_request(n): ThreadRequestSignal (DD) signals the calling thread
// with n=1 implicitly, while RequestSignal (3B) signals the thread named
// by the handle in args[0] with an explicit count in args[1].
func handleThreadRequestSignal(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	ctx.Scheduler.SignalRequest(caller, 1)
	return Ok(int32(0))
}

func handleRequestSignal(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	th, code := resolveThread(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Scheduler.SignalRequest(th, int32(args[1]))
	return Ok(int32(0))
}
