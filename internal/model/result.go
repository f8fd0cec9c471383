package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultEntry is the denormalized grading record of one question: full option
// content is copied in so later review does not depend on the live question
// bank.
type ResultEntry struct {
	QuestionID       string         `json:"question_id"`
	QuestionText     string         `json:"question_text"`
	QuestionImageURL string         `json:"question_image_url,omitempty"`
	Selected         []AnswerOption `json:"selected"`
	Correct          []AnswerOption `json:"correct"`
	IsCorrect        bool           `json:"is_correct"`
}

// AttemptResult is one graded submission. At most one per attempt; retakes go
// through a re-scheduled session, which yields a fresh attempt row and thus a
// fresh result row.
type AttemptResult struct {
	ID          uuid.UUID     `json:"id"`
	AttemptID   uuid.UUID     `json:"attempt_id"`
	StudentID   int           `json:"student_id"`
	ExamID      uuid.UUID     `json:"exam_id"`
	TeacherID   int           `json:"teacher_id"`
	SessionID   uuid.UUID     `json:"session_id"`
	Score       int           `json:"score"`
	Total       int           `json:"total"`
	Trigger     SubmitTrigger `json:"trigger"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Entries     []ResultEntry `json:"entries"`
}
