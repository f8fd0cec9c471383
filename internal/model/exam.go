package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a question bank owned by a teacher.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	TeacherID       int       `json:"teacher_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Name            string `json:"name" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Name            string `json:"name" binding:"omitempty,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// ExamPaper is the Redis-cached payload sent to students (no accepted answers).
type ExamPaper struct {
	ExamID    uuid.UUID            `json:"exam_id"`
	Name      string               `json:"name"`
	Duration  int                  `json:"duration_minutes"`
	Questions []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without the accepted answer set.
type QuestionForStudent struct {
	ID       uuid.UUID      `json:"id"`
	Text     string         `json:"text"`
	ImageURL string         `json:"image_url,omitempty"`
	Options  []AnswerOption `json:"options"`
	OrderNum int            `json:"order_num"`
}
