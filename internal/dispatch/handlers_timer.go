package dispatch

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/timer"
	"github.com/symkern/kernelcore/internal/uapi"
)

// timerSlot is the kernel object backing an RTimer handle: TimerCreate
// allocates the slot unscheduled; TimerAfter/TimerAtUtc populate it with a
// live timer.Timer, and TimerCancel clears it.
type timerSlot struct {
	scheduled *timer.Timer
}

func handleTimerCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	slot := &timerSlot{}
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindTimer, name, kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, slot)
	return Ok(int32(h))
}

func resolveTimerSlot(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*timerSlot, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindTimer)
	if code != uapi.Ok {
		return nil, code
	}
	slot, ok := obj.Payload.(*timerSlot)
	if !ok {
		return nil, uapi.BadHandle
	}
	return slot, uapi.Ok
}

func handleTimerAfter(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	slot, code := resolveTimerSlot(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[2]}
	dt := int64(int32(args[1]))
	slot.scheduled = ctx.Timers.After(caller, status, dt)
	return Ok(int32(0))
}

func handleTimerAtUtc(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	slot, code := resolveTimerSlot(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[2]}
	gregorianMicros := int64(args[1])
	slot.scheduled = ctx.Timers.AtUtc(caller, status, gregorianMicros)
	return Ok(int32(0))
}

func handleTimerCancel(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	slot, code := resolveTimerSlot(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	if slot.scheduled != nil {
		ctx.Timers.Cancel(ctx.Scheduler, slot.scheduled)
		slot.scheduled = nil
	}
	return Ok(int32(0))
}

// handleAfter implements the generic "After" ordinal: the calling thread
// sleeps for dt microseconds without a handle-backed timer object.
func handleAfter(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	ctx.Timers.After(caller, status, int64(int32(args[0])))
	ctx.Scheduler.WaitForAnyRequest(caller)
	return Ok(int32(0))
}

func handleChangeNotifierCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	cn := timer.NewChangeNotifier()
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindChangeNotifier, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, cn)
	return Ok(int32(h))
}

func resolveChangeNotifier(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*timer.ChangeNotifier, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindChangeNotifier)
	if code != uapi.Ok {
		return nil, code
	}
	cn, ok := obj.Payload.(*timer.ChangeNotifier)
	if !ok {
		return nil, uapi.BadHandle
	}
	return cn, uapi.Ok
}

func handleChangeNotifierLogon(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	cn, code := resolveChangeNotifier(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	cn.Logon(caller, status)
	return Ok(int32(0))
}
