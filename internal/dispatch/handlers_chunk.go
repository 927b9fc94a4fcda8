package dispatch

import (
	"github.com/symkern/kernelcore/internal/chunk"
	"github.com/symkern/kernelcore/internal/kernelobj"
	"github.com/symkern/kernelcore/internal/scheduler"
	"github.com/symkern/kernelcore/internal/uapi"
)

const (
	chunkFlagGlobal    uint32 = 1 << 0
	chunkFlagAnonymous uint32 = 1 << 1
)

// handleChunkCreate implements ChunkCreate: args[0] selects the variant
// (normal/double_ended/disconnected), args[1] the initial committed size
// (top for normal, bottom for double_ended, unused for disconnected),
// args[2] the reserved max size, args[3] the access/attribute flag bits.
// The chunk's guest base address is left at zero until the memory
// collaborator maps it; ChunkBase reports whatever was mapped.
func handleChunkCreate(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	typ := chunk.Type(args[0])
	access := chunk.LocalAccess
	if args[3]&chunkFlagGlobal != 0 {
		access = chunk.GlobalAccess
	}
	attr := chunk.AttributeNone
	if args[3]&chunkFlagAnonymous != 0 {
		attr = chunk.AttributeAnonymous
	}

	var initBottom, initTop uint32
	switch typ {
	case chunk.TypeNormal:
		initTop = args[1]
	case chunk.TypeDoubleEnded:
		initBottom = args[1]
		initTop = args[1]
	}

	c := chunk.New(0, initBottom, initTop, args[2], typ, access, attr)
	h := ctx.Kernel.Create(callerTable(ctx, caller), kernelobj.KindChunk, "", kernelobj.OwnerRef{ProcessID: caller.Process}, kernelobj.LocalAccess, c)
	return Ok(int32(h))
}

func resolveChunk(ctx *Context, caller *scheduler.Thread, h kernelobj.Handle) (*chunk.Chunk, uapi.ErrorCode) {
	obj, code := ctx.Kernel.Lookup(callerTable(ctx, caller), h, kernelobj.KindChunk)
	if code != uapi.Ok {
		return nil, code
	}
	c, ok := obj.Payload.(*chunk.Chunk)
	if !ok {
		return nil, uapi.BadHandle
	}
	return c, uapi.Ok
}

func handleChunkBase(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	c, code := resolveChunk(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(c.BaseAddr))
}

func handleChunkMaxSize(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	c, code := resolveChunk(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	return Ok(int32(c.MaxSize))
}

func handleChunkAdjust(ctx *Context, caller *scheduler.Thread, args [4]uint32) Result[int32] {
	c, code := resolveChunk(ctx, caller, kernelobj.Handle(args[0]))
	if code != uapi.Ok {
		return Err[int32](code)
	}
	if adjustCode := c.AdjustByTypeCode(args[1], args[2], args[3]); adjustCode != uapi.Ok {
		return Err[int32](adjustCode)
	}
	return Ok(int32(0))
}
