package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	"github.com/quizhall/quizhall-backend/internal/validator"
)

// StudentPortalHandler handles the student-facing exam flow: lobby, attempt
// resolution, start, state recovery, and submission.
type StudentPortalHandler struct {
	sessionService *service.SessionService
	attemptService *service.AttemptService
	examService    *service.ExamService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.SessionService,
	attemptService *service.AttemptService,
	examService *service.ExamService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService: sessionService,
		attemptService: attemptService,
		examService:    examService,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Lists today's sessions from the student's teacher with attempt status.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), claims.UserID, claims.TeacherID, time.Now())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": lobby})
}

// ResolveAttempt godoc
// POST /api/v1/student/sessions/:id/attempt
// Returns the student's attempt for the session, creating it on first contact.
func (h *StudentPortalHandler) ResolveAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	attempt, rej, err := h.attemptService.ResolveAttempt(c.Request.Context(), claims.UserID, claims.TeacherID, sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if rej != nil {
		failRejection(c, rej)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// StartAttempt godoc
// POST /api/v1/student/sessions/:id/start
// Enters the exam: transitions to STARTED and returns the paper + countdown.
func (h *StudentPortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	started, rej, err := h.attemptService.StartAttempt(c.Request.Context(), claims.UserID, claims.TeacherID, sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if rej != nil {
		failRejection(c, rej)
		return
	}

	response.Success(c, http.StatusOK, started)
}

// GetState godoc
// GET /api/v1/student/sessions/:id/state
// Page-reload recovery: status, remaining seconds, autosaved answers.
func (h *StudentPortalHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	state, rej, err := h.attemptService.GetState(c.Request.Context(), claims.UserID, claims.TeacherID, sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if rej != nil {
		failRejection(c, rej)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetPaper godoc
// GET /api/v1/student/sessions/:id/paper
// Re-serves the exam paper to a live attempt after a reload.
func (h *StudentPortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	state, rej, err := h.attemptService.GetState(c.Request.Context(), claims.UserID, claims.TeacherID, sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if rej != nil {
		failRejection(c, rej)
		return
	}
	if state.Status != model.AttemptStatusStarted {
		response.Fail(c, http.StatusConflict, response.ErrAttemptConflict)
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	paper, err := h.examService.GetExamPaper(c.Request.Context(), session.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// SubmitAttempt godoc
// POST /api/v1/student/sessions/:id/submit
// Grades the final selections and completes the attempt.
func (h *StudentPortalHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, rej, err := h.attemptService.SubmitAttempt(c.Request.Context(), claims.UserID, claims.TeacherID, sessionID, req.Responses)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if rej != nil {
		failRejection(c, rej)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"score":        result.Score,
		"total":        result.Total,
		"trigger":      result.Trigger,
		"submitted_at": result.SubmittedAt,
	})
}

// parseUUIDParam parses a UUID path parameter, failing the request on error.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
