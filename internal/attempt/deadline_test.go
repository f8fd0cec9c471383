package attempt

import (
	"testing"
	"time"
)

func TestDeadlinePicksEarlier(t *testing.T) {
	startedAt := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)

	// Duration expires before the window closes.
	windowEnd := startedAt.Add(2 * time.Hour)
	got := Deadline(startedAt, 60, windowEnd)
	if want := startedAt.Add(time.Hour); !got.Equal(want) {
		t.Errorf("Deadline = %v, want duration expiry %v", got, want)
	}

	// Attempt started near the boundary: window closes first.
	windowEnd = startedAt.Add(10 * time.Minute)
	got = Deadline(startedAt, 60, windowEnd)
	if !got.Equal(windowEnd) {
		t.Errorf("Deadline = %v, want window end %v", got, windowEnd)
	}
}

func TestRemainingSecondsClampsAtZero(t *testing.T) {
	deadline := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)

	if got := RemainingSeconds(deadline.Add(-90*time.Second), deadline); got != 90 {
		t.Errorf("RemainingSeconds = %v, want 90", got)
	}
	if got := RemainingSeconds(deadline.Add(time.Minute), deadline); got != 0 {
		t.Errorf("RemainingSeconds past deadline = %v, want 0", got)
	}
}
