package attempt

import (
	"errors"
	"time"

	"github.com/quizhall/quizhall-backend/internal/model"
)

// Window validation errors. Callers branch on these to pick the user-facing
// reason; no state is mutated on any of them.
var (
	ErrWrongDate     = errors.New("session is not scheduled for today")
	ErrWindowNotOpen = errors.New("session has not opened yet")
	ErrWindowClosed  = errors.New("session window has expired")
)

// CheckWindow reports whether now falls inside the session's attempt window.
// The calendar-date comparison happens in the session start's location, so a
// student in another timezone is still held to the teacher's intended day.
func CheckWindow(now time.Time, session *model.ExamSession) error {
	local := now.In(session.StartAt.Location())

	y1, m1, d1 := local.Date()
	y2, m2, d2 := session.StartAt.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return ErrWrongDate
	}

	if now.Before(session.StartAt) {
		return ErrWindowNotOpen
	}
	if now.After(session.EndAt) {
		return ErrWindowClosed
	}
	return nil
}
