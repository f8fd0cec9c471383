package model

import (
	"github.com/google/uuid"
)

// AnswerOption is one selectable option of a multiple-choice question.
type AnswerOption struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// Question represents a single exam question. CorrectOptions holds the subset
// of option ids that forms the accepted answer set; more than one id makes the
// question multi-select.
type Question struct {
	ID             uuid.UUID      `json:"id"`
	ExamID         uuid.UUID      `json:"exam_id"`
	Text           string         `json:"text"`
	ImageURL       string         `json:"image_url,omitempty"`
	Options        []AnswerOption `json:"options"`
	CorrectOptions []string       `json:"correct_options"`
	OrderNum       int            `json:"order_num"`
}

// AddQuestionRequest is the payload for one question in a bulk replace.
type AddQuestionRequest struct {
	Text           string         `json:"text" binding:"required,min=1,max=2000"`
	ImageURL       string         `json:"image_url" binding:"omitempty,max=1024"`
	Options        []AnswerOption `json:"options" binding:"required,min=2,max=10,dive"`
	CorrectOptions []string       `json:"correct_options" binding:"required,min=1"`
	OrderNum       int            `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
