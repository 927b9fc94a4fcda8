// Package clock provides the kernel core's time source: the live host
// clock backing TimeNow/UTCOffset, and a mockable Clock interface so
// timer and TimeNow tests can inject fixed times.
package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// Clock is the narrow time collaborator consumed by internal/timer and
// the TimeNow/UTCOffset SVC handlers.
type Clock interface {
	// NowMicros returns microseconds since year 0 CE, the guest's
	// absolute time basis (Unix epoch + GregorianUnixOffsetMicros).
	NowMicros() int64
	// UTCOffsetSeconds returns the host's current UTC offset in seconds.
	UTCOffsetSeconds() int32
}

// HostClock is the real clock, backed by golang.org/x/sys/unix.Gettimeofday
// for the monotonic wall-clock read and the standard library's timezone
// database for the live UTC offset.
type HostClock struct{}

// GregorianUnixOffsetMicros is re-exported here so callers of this package
// don't need to import internal/uapi for the single constant they need.
const GregorianUnixOffsetMicros int64 = 62167132800000000

// NewHostClock constructs the live system clock.
func NewHostClock() *HostClock { return &HostClock{} }

func (HostClock) NowMicros() int64 {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		now := time.Now()
		return now.Unix()*1_000_000 + int64(now.Nanosecond())/1000 + GregorianUnixOffsetMicros
	}
	return tv.Sec*1_000_000 + int64(tv.Usec) + GregorianUnixOffsetMicros
}

func (HostClock) UTCOffsetSeconds() int32 {
	_, offset := time.Now().Zone()
	return int32(offset)
}

// MockClock is a fixed, manually-advanced clock for deterministic tests.
type MockClock struct {
	Micros int64
	Offset int32
}

// NewMockClock constructs a MockClock starting at the given absolute
// microsecond time with a zero UTC offset.
func NewMockClock(startMicros int64) *MockClock {
	return &MockClock{Micros: startMicros}
}

func (c *MockClock) NowMicros() int64        { return c.Micros }
func (c *MockClock) UTCOffsetSeconds() int32 { return c.Offset }

// Advance moves the mock clock forward by delta microseconds.
func (c *MockClock) Advance(delta int64) { c.Micros += delta }
