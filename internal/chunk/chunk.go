// Package chunk implements the guest-visible virtual memory region
// manager: normal, double-ended, and disconnected chunk variants over a
// single host-backed byte slice per chunk, with page-rounded commit and
// decommit.
package chunk

import "github.com/symkern/kernelcore/internal/uapi"

// Type is the chunk variant.
type Type int

const (
	TypeNormal Type = iota
	TypeDoubleEnded
	TypeDisconnected
)

// Access mirrors kernelobj.Access without importing it, since a chunk's
// access scope is orthogonal to its handle-table entry.
type Access int

const (
	LocalAccess Access = iota
	GlobalAccess
)

// Attribute marks whether a chunk's storage is anonymous (not backed by
// a named mapping) or the default.
type Attribute int

const (
	AttributeNone Attribute = iota
	AttributeAnonymous
)

const pageSize = 4096

func roundUpPage(n uint32) uint32 {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// Chunk is a guest-visible virtual memory region backed by one
// host-allocated byte slice sized to MaxSize; committed/decommitted
// ranges are tracked as page-granular bitmaps rather than via real
// host mprotect, since the kernel core never touches host page tables
// directly (page-fault translation is the CPU/memory collaborator's job).
type Chunk struct {
	BaseAddr  uint32
	MaxSize   uint32
	Type      Type
	Access    Access
	Attribute Attribute

	bottom uint32 // committed low-water mark (double_ended)
	top    uint32 // committed high-water mark (normal, double_ended)

	committedPages []bool // disconnected variant: per-page commit bitmap

	storage []byte
}

// New constructs a chunk with storage pre-allocated for MaxSize bytes.
// initBottom/initTop seed the normal/double_ended committed window.
func New(baseAddr, initBottom, initTop, maxSize uint32, typ Type, access Access, attr Attribute) *Chunk {
	return &Chunk{
		BaseAddr:       baseAddr,
		MaxSize:        maxSize,
		Type:           typ,
		Access:         access,
		Attribute:      attr,
		bottom:         initBottom,
		top:            initTop,
		committedPages: make([]bool, (maxSize+pageSize-1)/pageSize),
		storage:        make([]byte, maxSize),
	}
}

// Top returns the current committed high-water mark.
func (c *Chunk) Top() uint32 { return c.top }

// Bottom returns the current committed low-water mark (double_ended).
func (c *Chunk) Bottom() uint32 { return c.bottom }

// Storage returns the chunk's backing bytes, for the memory collaborator
// to translate guest addresses within [BaseAddr, BaseAddr+MaxSize) into.
func (c *Chunk) Storage() []byte { return c.storage }

// Adjust implements the normal variant's adjust(newTop).
func (c *Chunk) Adjust(newTop uint32) uapi.ErrorCode {
	if c.Type != TypeNormal || newTop > c.MaxSize {
		return uapi.General
	}
	c.top = newTop
	return uapi.Ok
}

// AdjustDoubleEnded implements the double_ended variant's
// adjust_de(bottom, top), enforcing 0 ≤ bottom ≤ top ≤ max_size.
func (c *Chunk) AdjustDoubleEnded(bottom, top uint32) uapi.ErrorCode {
	if c.Type != TypeDoubleEnded || bottom > top || top > c.MaxSize {
		return uapi.General
	}
	c.bottom, c.top = bottom, top
	return uapi.Ok
}

// Commit implements the disconnected variant's commit(offset, size) on
// page granularity.
func (c *Chunk) Commit(offset, size uint32) uapi.ErrorCode {
	if c.Type != TypeDisconnected {
		return uapi.General
	}
	return c.setPages(offset, size, true)
}

// Decommit implements the disconnected variant's decommit(offset, size).
func (c *Chunk) Decommit(offset, size uint32) uapi.ErrorCode {
	if c.Type != TypeDisconnected {
		return uapi.General
	}
	return c.setPages(offset, size, false)
}

func (c *Chunk) setPages(offset, size uint32, committed bool) uapi.ErrorCode {
	if offset+size > c.MaxSize || offset+size < offset {
		return uapi.General
	}
	start := offset / pageSize
	end := (offset + size + pageSize - 1) / pageSize
	for p := start; p < end; p++ {
		c.committedPages[p] = committed
	}
	return uapi.Ok
}

// Allocate implements the disconnected variant's allocate(size): finds
// and commits the lowest free run of size bytes, returning its offset.
func (c *Chunk) Allocate(size uint32) (offset uint32, code uapi.ErrorCode) {
	if c.Type != TypeDisconnected {
		return 0, uapi.General
	}
	needed := int(roundUpPage(size) / pageSize)
	run := 0
	for p, committed := range c.committedPages {
		if committed {
			run = 0
			continue
		}
		run++
		if run == needed {
			start := p - needed + 1
			for i := start; i <= p; i++ {
				c.committedPages[i] = true
			}
			return uint32(start) * pageSize, uapi.Ok
		}
	}
	return 0, uapi.NoMemory
}

// AdjustByTypeCode implements ChunkAdjust's type_code dispatch: 0 adjust,
// 1 adjust_de, 2 commit, 3 decommit, 4 allocate, 5/6 no-op success.
func (c *Chunk) AdjustByTypeCode(typeCode uint32, a1, a2 uint32) uapi.ErrorCode {
	switch typeCode {
	case uapi.ChunkAdjustNormal:
		return c.Adjust(a1)
	case uapi.ChunkAdjustDoubleEnded:
		return c.AdjustDoubleEnded(a1, a2)
	case uapi.ChunkAdjustCommit:
		return c.Commit(a1, a2)
	case uapi.ChunkAdjustDecommit:
		return c.Decommit(a1, a2)
	case uapi.ChunkAdjustAllocate:
		_, code := c.Allocate(a1)
		return code
	case uapi.ChunkAdjustNoOp1, uapi.ChunkAdjustNoOp2:
		return uapi.Ok
	default:
		return uapi.General
	}
}
