package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the states of a student's attempt. All transition
// legality lives in the attempt package's table; nothing else compares these
// values ad hoc.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "NOT_STARTED"
	AttemptStatusStarted    AttemptStatus = "STARTED"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusBlocked    AttemptStatus = "BLOCKED"
)

// Valid reports whether s is one of the known attempt states.
func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptStatusNotStarted, AttemptStatusStarted, AttemptStatusCompleted, AttemptStatusBlocked:
		return true
	}
	return false
}

// AttemptKey is the four-field identity of one attempt. All four legs are
// required to disambiguate repeated exams and re-scheduled sessions.
type AttemptKey struct {
	StudentID int
	ExamID    uuid.UUID
	TeacherID int
	SessionID uuid.UUID
}

// Attempt tracks one student's engagement with one scheduled exam session.
type Attempt struct {
	ID        uuid.UUID     `json:"id"`
	StudentID int           `json:"student_id"`
	ExamID    uuid.UUID     `json:"exam_id"`
	TeacherID int           `json:"teacher_id"`
	SessionID uuid.UUID     `json:"session_id"`
	Status    AttemptStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SubmitTrigger records which path forced a submission.
type SubmitTrigger string

const (
	TriggerManual SubmitTrigger = "MANUAL"
	TriggerTimer  SubmitTrigger = "TIMER"
	TriggerWindow SubmitTrigger = "WINDOW"
)

// AttemptState is the page-reload recovery payload for an active attempt.
type AttemptState struct {
	SessionID        uuid.UUID           `json:"session_id"`
	StudentID        int                 `json:"student_id"`
	Status           AttemptStatus       `json:"status"`
	RemainingSeconds float64             `json:"remaining_seconds"`
	AutosavedAnswers map[string][]string `json:"autosaved_answers"`
}

// SubmitAttemptRequest carries the student's selections keyed by question id.
type SubmitAttemptRequest struct {
	Responses map[string][]string `json:"responses" binding:"required"`
}

// SetAttemptStatusRequest is the teacher's block/unblock payload.
type SetAttemptStatusRequest struct {
	Status AttemptStatus `json:"status" binding:"required,oneof=BLOCKED NOT_STARTED"`
}
