package clock_test

import (
	"testing"
	"time"

	"cache2mp4/internal/clock"
)

func TestFakeClockAdvancesOnAfter(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := clock.Fake(start)

	got := <-fake.After(3 * time.Minute)
	if want := start.Add(3 * time.Minute); !got.Equal(want) {
		t.Fatalf("After delivered %v, want %v", got, want)
	}
	<-fake.After(0)
	if !fake.Now().Equal(start.Add(3 * time.Minute)) {
		t.Fatalf("zero wait should not advance the clock, now=%v", fake.Now())
	}

	waits := fake.Waits()
	if len(waits) != 2 || waits[0] != 3*time.Minute || waits[1] != 0 {
		t.Fatalf("unexpected recorded waits: %v", waits)
	}
}

func TestRealClockAfterZeroFires(t *testing.T) {
	select {
	case <-clock.Real().After(0):
	case <-time.After(time.Second):
		t.Fatal("real clock did not fire for zero duration")
	}
}
