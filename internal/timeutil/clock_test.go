package timeutil

import (
	"testing"
	"time"
)

func TestMockClockAdvanceFiresTimer(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	timer := clock.NewTimer(100 * time.Millisecond)

	select {
	case <-timer.C():
		t.Fatal("timer fired before deadline")
	default:
	}

	clock.Advance(100 * time.Millisecond)

	select {
	case ts := <-timer.C():
		if !ts.Equal(start.Add(100 * time.Millisecond)) {
			t.Errorf("unexpected fire time %v", ts)
		}
	default:
		t.Fatal("timer did not fire after advance")
	}
}

func TestMockClockStoppedTimerDoesNotFire(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)
	if !timer.Stop() {
		t.Fatal("Stop on active timer should report true")
	}
	clock.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestMockClockTickerRepeats(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d missing", i)
		}
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	clock.Sleep(time.Second)
	clock.Sleep(5 * time.Second)
	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[1] != 5*time.Second {
		t.Fatalf("unexpected sleeps: %v", sleeps)
	}
}
