package attempt

import (
	"testing"
	"time"

	"github.com/quizhall/quizhall-backend/internal/model"
)

func testSession(t *testing.T) *model.ExamSession {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Date(2024, 3, 18, 0, 0, 0, 0, loc)
	return &model.ExamSession{
		SessionDate: day,
		StartAt:     time.Date(2024, 3, 18, 10, 0, 0, 0, loc),
		EndAt:       time.Date(2024, 3, 18, 11, 0, 0, 0, loc),
	}
}

func TestCheckWindow(t *testing.T) {
	session := testSession(t)
	loc := session.StartAt.Location()

	tests := []struct {
		name string
		now  time.Time
		want error
	}{
		{"before start same day", time.Date(2024, 3, 18, 9, 59, 0, 0, loc), ErrWindowNotOpen},
		{"at start", time.Date(2024, 3, 18, 10, 0, 0, 0, loc), nil},
		{"inside window", time.Date(2024, 3, 18, 10, 30, 0, 0, loc), nil},
		{"at end", time.Date(2024, 3, 18, 11, 0, 0, 0, loc), nil},
		{"past end same day", time.Date(2024, 3, 18, 11, 1, 0, 0, loc), ErrWindowClosed},
		{"next day", time.Date(2024, 3, 19, 10, 30, 0, 0, loc), ErrWrongDate},
		{"previous day", time.Date(2024, 3, 17, 10, 30, 0, 0, loc), ErrWrongDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckWindow(tt.now, session); got != tt.want {
				t.Errorf("CheckWindow(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestCheckWindowCrossTimezone(t *testing.T) {
	session := testSession(t)

	// 10:30 Jakarta time expressed in UTC is still inside the window and on
	// the session's calendar day, even though in UTC it is 03:30.
	now := time.Date(2024, 3, 18, 3, 30, 0, 0, time.UTC)
	if err := CheckWindow(now, session); err != nil {
		t.Errorf("CheckWindow across timezones = %v, want nil", err)
	}

	// 01:00 Jakarta on the 19th is still the 18th in UTC; the session's day
	// must win, so this is a wrong-date rejection.
	now = time.Date(2024, 3, 18, 18, 0, 0, 0, time.UTC)
	if err := CheckWindow(now, session); err != ErrWrongDate {
		t.Errorf("CheckWindow past local midnight = %v, want ErrWrongDate", err)
	}
}
