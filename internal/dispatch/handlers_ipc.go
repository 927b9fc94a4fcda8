package dispatch

import (
	"github.com/symkern/kernelcore/internal/ipc"
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func resolveServer(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*ipc.Server, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindServer)
	if code != uapi.Ok {
		return nil, code
	}
	srv, ok := obj.Payload.(*ipc.Server)
	if !ok {
		return nil, uapi.BadHandle
	}
	return srv, uapi.Ok
}

func resolveSession(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*ipc.Session, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindSession)
	if code != uapi.Ok {
		return nil, code
	}
	sess, ok := obj.Payload.(*ipc.Session)
	if !ok {
		return nil, uapi.BadHandle
	}
	return sess, uapi.Ok
}

func resolveMessage(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*ipc.Message, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindMessage)
	if code != uapi.Ok {
		return nil, code
	}
	msg, ok := obj.Payload.(*ipc.Message)
	if !ok {
		return nil, uapi.BadHandle
	}
	return msg, uapi.Ok
}

func handleServerCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	srv := ipc.NewServer(name)
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindServer, name, kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, srv)
	return Ok(int32(h))
}

// handleServerReceive implements ServerReceive: dequeues the next pending
// message if one is available, else parks the caller via the scheduler's
// request-wait protocol. args[1] is the guest cell the delivered message
// handle is written into, args[2] the request-status guest cell.
func handleServerReceive(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	srv, code := resolveServer(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[2]}
	var msg *ipc.Message
	if blocked := srv.Receive(caller, status, &msg); blocked {
		ctx.Scheduler.WaitForAnyRequest(caller)
		return Ok(int32(0))
	}
	obj := ctx.Kernel.Registry.Create(kernelobj.KindMessage, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, msg)
	h := callerTable(ctx, caller).Install(obj.ID)
	if wc := writeGuestUint32(ctx, args[1], uint32(h)); wc != uapi.Ok {
		return Err[int32](wc)
	}
	return Ok(int32(h))
}

func handleServerCancel(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	srv, code := resolveServer(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	srv.Cancel(ctx.Scheduler)
	return Ok(int32(0))
}

// handleSetSessionPtr implements SetSessionPtr: stashes a guest cookie
// pointer on the session for the client's own bookkeeping.
func handleSetSessionPtr(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	sess, code := resolveSession(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	sess.GuestCookie = args[1]
	return Ok(int32(0))
}

// handleSessionCreate implements SessionCreate: opens a session against a
// server resolved by name, per the common "connect by server name" form.
func handleSessionCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[0])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	serverID, _, findCode := ctx.Kernel.Registry.FindObject(name, 0, kernelobj.KindServer)
	if findCode != uapi.Ok {
		return Err[int32](findCode)
	}
	srv := ctx.Kernel.Registry.Get(serverID).Payload.(*ipc.Server)
	sess := ipc.NewSession(srv, int(args[1]), int(args[2]))
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindSession, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, sess)
	return Ok(int32(h))
}

// handleSessionShare implements SessionShare: mirrors the session handle
// into the owning process's table under the new access mode, then closes
// the caller's original handle, per the resolved open question.
func handleSessionShare(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	h := kernelobj.Handle(args[0])
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindSession)
	if code != uapi.Ok {
		return Err[int32](code)
	}
	sess := obj.Payload.(*ipc.Session)
	sess.Share(int(args[1]))
	newHandle := ctx.Kernel.Mirror(ctx.HandleTableFor(caller.Process), obj.ID)
	ctx.Kernel.Close(callerTable(ctx, caller), h, ctx.destructors)
	return Ok(int32(newHandle))
}

func sendMessage(ctx *Context, caller *scheduler.Thread, args [4]uint32) (*scheduler.RequestStatus, uapi.ErrorCode) {
	sess, code := resolveSession(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return nil, code
	}
	status := &scheduler.RequestStatus{GuestPtr: args[3]}
	msgArgs := [4]uint32{args[1], args[2], 0, 0}
	msg := ipc.NewMessage(sess, caller, args[1], msgArgs, args[2], status)
	sess.Server.Enqueue(ctx.Scheduler, msg)
	return status, uapi.Ok
}

// handleSessionSend implements SessionSend: enqueues the message
// asynchronously without blocking the caller.
func handleSessionSend(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	if _, code := sendMessage(ctx, caller, args); code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

// handleSessionSendSync implements SessionSendSync: enqueues the message
// and blocks the caller until MessageComplete signals it.
func handleSessionSendSync(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	if _, code := sendMessage(ctx, caller, args); code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Scheduler.WaitForAnyRequest(caller)
	return Ok(int32(0))
}

func handleMessageComplete(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	msg, code := resolveMessage(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	msg.Complete(ctx.Scheduler, uapi.ErrorCode(int32(args[1])))
	return Ok(int32(0))
}

// handleMessageKill implements MessageKill: kills the originating thread
// without returning an error to the caller.
func handleMessageKill(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	msg, code := resolveMessage(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	msg.Kill(ctx.Scheduler)
	return Ok(int32(0))
}

// handleMessageIpcCopy implements MessageIpcCopy: copies bytes between
// the client's own argument paramIdx (a full descriptor, resolved from
// msg.Args) and info's target side, a separate flat buffer the caller
// supplies. Both guest pointers need their own translation: the client's
// argument pointer is never the same address as info.TargetPtr.
func handleMessageIpcCopy(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	msg, code := resolveMessage(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostInfoPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	var info uapi.MessageIpcCopyInfo
	if err := uapi.Unmarshal(ctx.Memory.ReadBytes(hostInfoPtr, 12), &info); err != nil {
		return Err[int32](uapi.Argument)
	}
	paramIdx := int(args[2])
	offset := int(args[3])

	clientPtr, code := msg.ArgPtr(paramIdx)
	if code != uapi.Ok {
		return Err[int32](code)
	}
	clientHostPtr, ok := ctx.Memory.Translate(clientPtr)
	if !ok {
		return Err[int32](uapi.Argument)
	}
	targetHostPtr, ok := ctx.Memory.Translate(info.TargetPtr)
	if !ok {
		return Err[int32](uapi.Argument)
	}
	if copyCode := msg.IpcCopy(ctx.Memory, paramIdx, &info, clientHostPtr, targetHostPtr, offset); copyCode != uapi.Ok {
		return Err[int32](copyCode)
	}
	return Ok(int32(0))
}

func handleMessageGetDesLength(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	msg, code := resolveMessage(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	n, lenCode := msg.GetDesLength(ctx.Memory, hostPtr)
	if lenCode != uapi.Ok {
		return Err[int32](lenCode)
	}
	return Ok(n)
}

func handleMessageGetDesMaxLength(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	msg, code := resolveMessage(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	n, lenCode := msg.GetDesMaxLength(ctx.Memory, hostPtr)
	if lenCode != uapi.Ok {
		return Err[int32](lenCode)
	}
	return Ok(n)
}
