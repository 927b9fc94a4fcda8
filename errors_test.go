package kernelcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/symkern/kernelcore/internal/uapi"
)

func TestStructuredError(t *testing.T) {
	err := NewError("ThreadCreate", uapi.Argument, "bad priority")

	assert.Equal(t, "ThreadCreate", err.Op)
	assert.Equal(t, uapi.Argument, err.Code)
	assert.Equal(t, "kernelcore: bad priority (op=ThreadCreate)", err.Error())
}

func TestNewDispatchError(t *testing.T) {
	err := NewDispatchError("SessionSend", uapi.OrdSessionSend, 7, uapi.BadHandle)

	assert.Equal(t, uint32(uapi.OrdSessionSend), err.Ordinal)
	assert.EqualValues(t, 7, err.Handle)
	assert.Equal(t, uapi.BadHandle, err.Code)
	assert.Contains(t, err.Error(), "op=SessionSend")
}

func TestWrapError(t *testing.T) {
	inner := errors.New("translate failed")
	err := WrapError("ChunkAdjust", inner)

	assert.Equal(t, uapi.General, err.Code)
	assert.ErrorIs(t, err, inner)
}

func TestWrapErrorPreservesStructuredInner(t *testing.T) {
	inner := NewDispatchError("ChunkCreate", uapi.OrdChunkCreate, 3, uapi.NoMemory)
	wrapped := WrapError("Retry", inner)

	assert.Equal(t, uapi.NoMemory, wrapped.Code)
	assert.EqualValues(t, 3, wrapped.Handle)
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewError("A", uapi.BadHandle, "")
	b := &Error{Code: uapi.BadHandle}

	assert.True(t, errors.Is(a, b))
}

func TestIsCode(t *testing.T) {
	err := NewError("Test", uapi.Cancelled, "operation cancelled")

	assert.True(t, IsCode(err, uapi.Cancelled))
	assert.False(t, IsCode(err, uapi.NoMemory))
	assert.False(t, IsCode(nil, uapi.Cancelled))
}
