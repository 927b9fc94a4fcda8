// Package dispatch implements the SVC ordinal dispatch table and
// argument marshalling. It is the only place that flattens a handler's
// Result[T] to the legacy signed int32 the guest ABI requires, per the
// Design Note on the signed error-code convention vs. sum types.
package dispatch

import "github.com/symkern/kernelcore/internal/uapi"

// Result is the internal handler return type: either a value of type T
// (Code == uapi.Ok) or an error code with T left at its zero value.
type Result[T any] struct {
	Value T
	Code  uapi.ErrorCode
}

// Ok constructs a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v, Code: uapi.Ok} }

// Err constructs a failed Result.
func Err[T any](code uapi.ErrorCode) Result[T] { return Result[T]{Code: code} }

// FlattenInt32 adapts a Result[int32] to the guest's signed return
// register convention: on success, returns Value (a handle or length);
// on failure, returns the negative error code.
func FlattenInt32(r Result[int32]) int32 {
	if r.Code != uapi.Ok {
		return int32(r.Code)
	}
	return r.Value
}
