package dispatch

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func resolveProcess(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*scheduler.Process, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindProcess)
	if code != uapi.Ok {
		return nil, code
	}
	p := ctx.Process(obj.ID)
	if p == nil {
		return nil, uapi.BadHandle
	}
	return p, uapi.Ok
}

func handleProcessGetId(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(p.ID))
}

func handleProcessResume(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	for _, th := range p.Threads {
		ctx.Scheduler.Resume(th)
	}
	return Ok(int32(0))
}

func handleProcessFilename(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	if err := uapi.WriteStr8(ctx.Memory, hostPtr, p.Name); err != nil {
		return Err[int32](uapi.NoMemory)
	}
	return Ok(int32(len(p.Name)))
}

func handleProcessCommandLine(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	if err := uapi.WriteStr8(ctx.Memory, hostPtr, p.CommandLine); err != nil {
		return Err[int32](uapi.NoMemory)
	}
	return Ok(int32(len(p.CommandLine)))
}

func handleProcessCommandLineLength(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(len(p.CommandLine)))
}

func handleProcessExitType(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(p.ExitType))
}

func handleProcessSetPriority(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	p.Priority = int(int32(args[1]))
	return Ok(int32(0))
}

func handleProcessSetFlags(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	p.Flags = args[1]
	return Ok(int32(0))
}

func handleProcessType(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	_, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

// handleProcessRendezvous implements ProcessRendezvous: appends a
// rendezvous waiter to the process's waiter list and returns Ok without
// completing it. The only handler that completes listed waiters is
// ProcessLogonCancel, which completes them with Cancelled.
func handleProcessRendezvous(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	p.RendezvousWaiters = append(p.RendezvousWaiters, status)
	return Ok(int32(0))
}

func handleProcessLogon(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	p.RendezvousWaiters = append(p.RendezvousWaiters, status)
	return Ok(int32(0))
}

func handleProcessLogonCancel(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	if len(p.RendezvousWaiters) == 0 {
		return Ok(int32(0))
	}
	for _, s := range p.RendezvousWaiters {
		s.Complete(uapi.Cancelled)
	}
	p.RendezvousWaiters = nil
	return Ok(int32(0))
}

// handleProcessSetDataParameter/handleProcessGetDataParameter/
// handleProcessDataParameterLength implement the 16-slot argument-
// parameter array described in §3: each slot is set at most once
// before being read.
func handleProcessSetDataParameter(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	slot := int(args[1])
	hostPtr, ok := ctx.Memory.Translate(args[2])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	data := ctx.Memory.ReadBytes(hostPtr, int(args[3]))
	if !p.SetArgSlot(slot, data) {
		return Err[int32](uapi.InUse)
	}
	return Ok(int32(0))
}

func handleProcessGetDataParameter(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	slot := int(args[1])
	if slot < 0 || slot >= len(p.ArgSlots) || !p.ArgSlots[slot].Used {
		return Err[int32](uapi.NotFound)
	}
	hostPtr, ok := ctx.Memory.Translate(args[2])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	ctx.Memory.WriteBytes(hostPtr, p.ArgSlots[slot].Data)
	return Ok(int32(len(p.ArgSlots[slot].Data)))
}

func handleProcessDataParameterLength(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProcess(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	slot := int(args[1])
	if slot < 0 || slot >= len(p.ArgSlots) || !p.ArgSlots[slot].Used {
		return Err[int32](uapi.NotFound)
	}
	return Ok(int32(len(p.ArgSlots[slot].Data)))
}
