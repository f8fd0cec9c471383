package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/repository"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	"github.com/quizhall/quizhall-backend/internal/validator"
)

// AttemptAdminHandler handles the teacher's view of attempts: the session
// monitor, block/unblock, and graded results.
type AttemptAdminHandler struct {
	attemptService *service.AttemptService
	sessionService *service.SessionService
	attemptRepo    *repository.AttemptRepository
	resultRepo     *repository.ResultRepository
}

// NewAttemptAdminHandler creates a new AttemptAdminHandler.
func NewAttemptAdminHandler(
	attemptService *service.AttemptService,
	sessionService *service.SessionService,
	attemptRepo *repository.AttemptRepository,
	resultRepo *repository.ResultRepository,
) *AttemptAdminHandler {
	return &AttemptAdminHandler{
		attemptService: attemptService,
		sessionService: sessionService,
		attemptRepo:    attemptRepo,
		resultRepo:     resultRepo,
	}
}

// ListAttempts godoc
// GET /api/v1/teacher/sessions/:id/attempts
// The live monitor: every roster member who has touched the session.
func (h *AttemptAdminHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.sessionService.GetOwned(c.Request.Context(), sessionID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	attempts, err := h.attemptRepo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if attempts == nil {
		attempts = []repository.AttemptOverview{}
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// SetAttemptStatus godoc
// PATCH /api/v1/teacher/attempts/:id/status
// Blocks an attempt or resets a blocked one back to NOT_STARTED.
func (h *AttemptAdminHandler) SetAttemptStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SetAttemptStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, rej, err := h.attemptService.TeacherSetStatus(c.Request.Context(), claims.UserID, attemptID, req.Status)
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

// ListResults godoc
// GET /api/v1/teacher/sessions/:id/results?page=&per_page=
func (h *AttemptAdminHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.sessionService.GetOwned(c.Request.Context(), sessionID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := h.resultRepo.ListBySession(c.Request.Context(), sessionID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []repository.SessionResult{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// GetAttemptResult godoc
// GET /api/v1/teacher/attempts/:id/result
// The full graded record with denormalized per-question entries.
func (h *AttemptAdminHandler) GetAttemptResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.resultRepo.GetByAttempt(c.Request.Context(), attemptID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if result.TeacherID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
