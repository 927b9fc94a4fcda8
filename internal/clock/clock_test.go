package clock

import "testing"

func TestMockClockAdvance(t *testing.T) {
	c := NewMockClock(1000)
	if c.NowMicros() != 1000 {
		t.Fatalf("NowMicros() = %d, want 1000", c.NowMicros())
	}
	c.Advance(500)
	if c.NowMicros() != 1500 {
		t.Fatalf("NowMicros() after advance = %d, want 1500", c.NowMicros())
	}
}

func TestMockClockUTCOffset(t *testing.T) {
	c := NewMockClock(0)
	c.Offset = -14400
	if c.UTCOffsetSeconds() != -14400 {
		t.Fatalf("UTCOffsetSeconds() = %d, want -14400", c.UTCOffsetSeconds())
	}
}

func TestHostClockNowMicrosIsPositiveAndOffset(t *testing.T) {
	hc := NewHostClock()
	now := hc.NowMicros()
	if now <= GregorianUnixOffsetMicros {
		t.Fatalf("expected NowMicros() to be offset from year-0 basis, got %d", now)
	}
}
