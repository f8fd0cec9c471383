package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is a teacher-defined date/time window during which an exam may
// be attempted. One active session per exam per teacher; edits replace the
// record wholesale, producing a new session id.
type ExamSession struct {
	ID          uuid.UUID `json:"id"`
	TeacherID   int       `json:"teacher_id"`
	ExamID      uuid.UUID `json:"exam_id"`
	SessionDate time.Time `json:"session_date"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScheduleSessionRequest is the payload for scheduling (or re-scheduling) a
// session. Start and end timestamps are derived from the calendar date plus a
// time-of-day string.
type ScheduleSessionRequest struct {
	ExamID      uuid.UUID `json:"exam_id" binding:"required"`
	SessionDate string    `json:"session_date" binding:"required,datetime=2006-01-02"`
	StartTime   string    `json:"start_time" binding:"required,datetime=15:04"`
	EndTime     string    `json:"end_time" binding:"required,datetime=15:04"`
}
