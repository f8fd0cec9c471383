package attempt

import "time"

// Deadline returns the moment an attempt must be submitted: the earlier of
// duration expiry (seeded when the attempt entered STARTED) and the session
// window end. Whichever fires first wins; both paths converge on the same
// auto-submit action.
func Deadline(startedAt time.Time, durationMinutes int, windowEnd time.Time) time.Time {
	byDuration := startedAt.Add(time.Duration(durationMinutes) * time.Minute)
	if windowEnd.Before(byDuration) {
		return windowEnd
	}
	return byDuration
}

// RemainingSeconds returns seconds until the deadline, clamped at zero.
func RemainingSeconds(now, deadline time.Time) float64 {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining.Seconds()
}
