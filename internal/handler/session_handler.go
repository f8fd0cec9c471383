package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	"github.com/quizhall/quizhall-backend/internal/validator"
)

// SessionHandler handles teacher session scheduling.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ListSessions godoc
// GET /api/v1/teacher/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessions, err := h.sessionService.ListByTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// ScheduleSession godoc
// POST /api/v1/teacher/sessions
// Creates the exam's session, or replaces it wholesale when one exists.
func (h *SessionHandler) ScheduleSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.ScheduleSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Schedule(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotExamOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		case errors.Is(err, service.ErrSessionNotEnded):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"end_time": "end must be after start"})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// DeleteSession godoc
// DELETE /api/v1/teacher/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
