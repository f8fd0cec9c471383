package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	"github.com/quizhall/quizhall-backend/internal/validator"
)

// RosterHandler handles the teacher's student roster management.
type RosterHandler struct {
	studentService *service.StudentService
	authService    *service.AuthService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(studentService *service.StudentService, authService *service.AuthService) *RosterHandler {
	return &RosterHandler{studentService: studentService, authService: authService}
}

// ListStudents godoc
// GET /api/v1/teacher/students?page=&per_page=
func (h *RosterHandler) ListStudents(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	students, pagination, err := h.studentService.ListRoster(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// CreateStudent godoc
// POST /api/v1/teacher/students
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student := &model.Student{
		TeacherID:    claims.UserID,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: req.Password,
	}
	if err := h.studentService.Create(c.Request.Context(), student); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/teacher/students/:id
func (h *RosterHandler) UpdateStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil || student.TeacherID != claims.UserID {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Name != "" {
		student.Name = req.Name
	}
	student.PasswordHash = req.Password // Empty keeps the current one

	if err := h.studentService.Update(c.Request.Context(), student); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/teacher/students/:id
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ResetStudentLogin godoc
// POST /api/v1/teacher/students/:id/reset-login
// Clears the student's active login so a new device can sign in.
func (h *RosterHandler) ResetStudentLogin(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil || student.TeacherID != claims.UserID {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
