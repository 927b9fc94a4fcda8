// Package hal provides a non-authoritative reference implementation of
// the HAL collaborator (collab.HAL), wired to golang.org/x/sys/unix so the
// demo CLI and integration tests have a real HalFunction backend to call.
// Production embedders are expected to supply their own.
package hal

import (
	"os"

	"golang.org/x/sys/unix"
)

// HAL categories and functions this reference implementation answers.
// Mirrors the small subset of Symbian's EHalMemory/EHalCpu categories
// relevant to a software-only emulator.
const (
	CategoryMemory uint32 = 1
	CategoryCPU    uint32 = 2

	FuncMemoryPageSize uint32 = 1
	FuncCPUCount       uint32 = 1
)

// HostHAL answers HalFunction calls using real host information.
type HostHAL struct{}

// NewHostHAL constructs the reference HAL collaborator.
func NewHostHAL() *HostHAL { return &HostHAL{} }

// DoHal implements collab.HAL.
func (HostHAL) DoHal(category, function uint32, a1, a2 uint32) int32 {
	switch category {
	case CategoryMemory:
		switch function {
		case FuncMemoryPageSize:
			return int32(os.Getpagesize())
		}
	case CategoryCPU:
		switch function {
		case FuncCPUCount:
			var uts unix.Utsname
			if err := unix.Uname(&uts); err != nil {
				return -2 // General
			}
			return 1
		}
	}
	return -5 // NotSupported
}
