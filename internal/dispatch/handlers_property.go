package dispatch

import (
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/property"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

func propertyValueType(declared uapi.ErrorCode) property.ValueType {
	switch declared {
	case uapi.PropertyTypeInt:
		return property.TypeInt
	case uapi.PropertyTypeBin:
		return property.TypeBin
	}
	return property.TypeUndefined
}

func handlePropertyDefine(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	key := property.Key{Category: args[0], Key: args[1]}
	typ := propertyValueType(uapi.ErrorCode(int32(args[2])))
	code := ctx.Properties.Define(key, typ, args[3])
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

func resolveProperty(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*property.Property, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindProperty)
	if code != uapi.Ok {
		return nil, code
	}
	p, ok := obj.Payload.(*property.Property)
	if !ok {
		return nil, uapi.BadHandle
	}
	return p, uapi.Ok
}

// handlePropertyAttach implements PropertyAttach: installs a handle onto
// the (possibly undefined) property for (category, key).
func handlePropertyAttach(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	key := property.Key{Category: args[0], Key: args[1]}
	p := ctx.Properties.Attach(key)
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindProperty, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, p)
	return Ok(int32(h))
}

func handlePropertySubscribe(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	status := &scheduler.RequestStatus{GuestPtr: args[1]}
	p.Subscribe(caller, status)
	return Ok(int32(0))
}

func handlePropertyCancel(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	p.Cancel(ctx.Scheduler, caller)
	return Ok(int32(0))
}

func handlePropertyGetInt(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	v, getCode := p.GetInt()
	if getCode != uapi.Ok {
		return Err[int32](getCode)
	}
	return Ok(v)
}

func handlePropertySetInt(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	if setCode := p.SetInt(ctx.Scheduler, int32(args[1])); setCode != uapi.Ok {
		return Err[int32](setCode)
	}
	return Ok(int32(0))
}

func handlePropertyGetBin(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	data, getCode := p.GetBin(int(args[2]))
	if getCode != uapi.Ok {
		return Err[int32](getCode)
	}
	ctx.Memory.WriteBytes(hostPtr, data)
	return Ok(int32(len(data)))
}

func handlePropertySetBin(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p, code := resolveProperty(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	hostPtr, ok := ctx.Memory.Translate(args[1])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	data := ctx.Memory.ReadBytes(hostPtr, int(args[2]))
	if setCode := p.SetBin(ctx.Scheduler, data); setCode != uapi.Ok {
		return Err[int32](setCode)
	}
	return Ok(int32(0))
}

// findProperty resolves a (category, key) pair directly rather than
// through a handle, implementing the FindGet*/FindSet* ordinal family's
// "no attach needed" shortcut.
func findProperty(ctx *Context, args [4]uint32) *property.Property {
	key := property.Key{Category: args[0], Key: args[1]}
	return ctx.Properties.Attach(key)
}

func handlePropertyFindGetInt(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := findProperty(ctx, args)
	v, code := p.GetInt()
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(v)
}

func handlePropertyFindSetInt(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := findProperty(ctx, args)
	if code := p.SetInt(ctx.Scheduler, int32(args[2])); code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}

func handlePropertyFindGetBin(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := findProperty(ctx, args)
	hostPtr, ok := ctx.Memory.Translate(args[2])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	data, code := p.GetBin(int(args[3]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	ctx.Memory.WriteBytes(hostPtr, data)
	return Ok(int32(len(data)))
}

func handlePropertyFindSetBin(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	p := findProperty(ctx, args)
	hostPtr, ok := ctx.Memory.Translate(args[2])
	if !ok {
		return Err[int32](uapi.Argument)
	}
	data := ctx.Memory.ReadBytes(hostPtr, int(args[3]))
	if code := p.SetBin(ctx.Scheduler, data); code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(0))
}
