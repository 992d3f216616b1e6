package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	t.Parallel()

	var c Clock = RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since returned negative duration")
	}
}

func TestMockClock_Advance(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(base)
	if !c.Now().Equal(base) {
		t.Fatalf("Now() = %v, want %v", c.Now(), base)
	}
	c.Advance(3 * time.Second)
	if got := c.Since(base); got != 3*time.Second {
		t.Errorf("Since() = %v, want 3s", got)
	}
}

func TestMockClock_Stepping(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSteppingClock(base, time.Second)
	start := c.Now()
	if !start.Equal(base) {
		t.Fatalf("first Now() = %v, want %v", start, base)
	}
	if got := c.Since(start); got != time.Second {
		t.Errorf("Since() = %v, want 1s", got)
	}
	c.Now()
	if got := c.Since(start); got != 2*time.Second {
		t.Errorf("Since() after second Now = %v, want 2s", got)
	}
}
