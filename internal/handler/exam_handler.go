package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	"github.com/quizhall/quizhall-backend/internal/validator"
)

// ExamHandler handles teacher exam and question management.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/teacher/exams?page=&per_page=
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListByTeacher(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/teacher/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failExamError(c, err)
		return
	}

	count, err := h.examService.CountQuestions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam, "question_count": count})
}

// CreateExam godoc
// POST /api/v1/teacher/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		TeacherID:       claims.UserID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.examService.Create(c.Request.Context(), exam); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/teacher/exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.examService.GetOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failExamError(c, err)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.DurationMinutes > 0 {
		existing.DurationMinutes = req.DurationMinutes
	}

	if err := h.examService.Update(c.Request.Context(), claims.UserID, existing); err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": existing})
}

// DeleteExam godoc
// DELETE /api/v1/teacher/exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/v1/teacher/exams/:id/questions
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.examService.ListQuestions(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failExamError(c, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/teacher/exams/:id/questions
// Replaces the exam's entire question list and re-warms the cache.
func (h *ExamHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		// Every accepted option id must exist among the options.
		known := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			known[opt.ID] = true
		}
		for _, id := range q.CorrectOptions {
			if !known[id] {
				response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
					map[string]string{"correct_options": "unknown option id " + id})
				return
			}
		}

		orderNum := q.OrderNum
		if orderNum == 0 {
			orderNum = i + 1
		}
		questions[i] = model.Question{
			Text:           q.Text,
			ImageURL:       q.ImageURL,
			Options:        q.Options,
			CorrectOptions: q.CorrectOptions,
			OrderNum:       orderNum,
		}
	}

	if err := h.examService.ReplaceQuestions(c.Request.Context(), claims.UserID, id, questions); err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}

func failExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotExamOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	}
}
