package dispatch

import (
	"encoding/binary"

	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

// writeGuestUint32 writes v as a little-endian word at guestAddr, the
// common shape for "write a handle/length back to the caller" outputs.
func writeGuestUint32(ctx *Context, guestAddr uint32, v uint32) uapi.ErrorCode {
	if guestAddr == 0 {
		return uapi.Ok
	}
	hostPtr, ok := ctx.Memory.Translate(guestAddr)
	if !ok {
		return uapi.Argument
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	ctx.Memory.WriteBytes(hostPtr, buf[:])
	return uapi.Ok
}

// callerTable returns the handle table a caller's handles are resolved
// against: the table of the caller's owning process. Every handler
// installs and resolves handles through this process table.
func callerTable(ctx *Context, caller *scheduler.Thread) *kernelobj.HandleTable {
	return ctx.HandleTableFor(caller.Process)
}

func readGuestString(ctx *Context, guestPtr uint32) (string, uapi.ErrorCode) {
	if guestPtr == 0 {
		return "", uapi.Argument
	}
	hostPtr, ok := ctx.Memory.Translate(guestPtr)
	if !ok {
		return "", uapi.Argument
	}
	s, err := uapi.ReadStr8(ctx.Memory, hostPtr)
	if err != nil {
		return "", uapi.BadDescriptor
	}
	return s, uapi.Ok
}

// handleObjectNext implements ObjectNext (find_object): args[0] is the
// kind tag, args[1] the guest pointer to the name descriptor, args[2]
// the start index.
func handleObjectNext(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[1])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	kind := kernelobj.Kind(args[0])
	id, _, findCode := ctx.Kernel.Registry.FindObject(name, kernelobj.ObjectID(args[2]), kind)
	if findCode != uapi.Ok {
		return Err[int32](findCode)
	}
	return Ok(int32(id))
}

// handleHandleClose implements HandleClose.
func handleHandleClose(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	h := kernelobj.Handle(args[0])
	code := ctx.Kernel.Close(callerTable(ctx, caller), h, ctx.destructors)
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

// handleHandleDuplicate implements HandleDuplicate: mirrors a handle
// from the named process scope into the caller's table.
func handleHandleDuplicate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	srcTable := ctx.HandleTableFor(kernelobj.ObjectID(args[0]))
	src := kernelobj.Handle(args[1])
	id, ok := srcTable.Resolve(src)
	if !ok {
		return Err[int32](uapi.BadHandle)
	}
	h := ctx.Kernel.Mirror(callerTable(ctx, caller), id)
	return Ok(int32(h))
}

// handleHandleOpenObject implements HandleOpenObject: find + mirror by
// name, per open_by_name.
func handleHandleOpenObject(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	name, code := readGuestString(ctx, args[1])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	kind := kernelobj.Kind(args[0])
	h, openCode := ctx.Kernel.OpenByName(callerTable(ctx, caller), name, kind)
	if openCode != uapi.Ok {
		return Err[int32](openCode)
	}
	return Ok(int32(h))
}

// handleHandleName implements HandleName: returns the length of the
// object's name, a length-style query like MessageGetDesLength.
func handleHandleName(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	h := kernelobj.Handle(args[0])
	id, ok := callerTable(ctx, caller).Resolve(h)
	if !ok {
		if h == kernelobj.HandleCurrentThread {
			id = ctx.Kernel.CurrentThread
		} else if h == kernelobj.HandleCurrentProcess {
			id = ctx.Kernel.CurrentProcess
		} else {
			return Err[int32](uapi.BadHandle)
		}
	}
	obj := ctx.Kernel.Registry.Get(id)
	if obj == nil {
		return Err[int32](uapi.BadHandle)
	}
	return Ok(int32(len(obj.Name)))
}
