package service

import (
	"context"

	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/repository"
	"github.com/quizhall/quizhall-backend/internal/response"
)

// StudentService handles roster business logic. Every mutation is scoped to
// the owning teacher.
type StudentService struct {
	studentRepo *repository.StudentRepository
	authService *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, authService *AuthService) *StudentService {
	return &StudentService{studentRepo: studentRepo, authService: authService}
}

// GetByUsername retrieves a student by their login username.
func (s *StudentService) GetByUsername(ctx context.Context, username string) (*model.Student, error) {
	return s.studentRepo.GetByUsername(ctx, username)
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// ListRoster retrieves a teacher's students with pagination.
func (s *StudentService) ListRoster(ctx context.Context, teacherID, page, perPage int) ([]model.Student, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	students, total, err := s.studentRepo.ListByTeacher(ctx, teacherID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if students == nil {
		students = []model.Student{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return students, pagination, nil
}

// Create inserts a new student onto the teacher's roster with a hashed password.
func (s *StudentService) Create(ctx context.Context, student *model.Student) error {
	hashed, err := s.authService.HashPassword(student.PasswordHash)
	if err != nil {
		return err
	}
	student.PasswordHash = hashed
	return s.studentRepo.Create(ctx, student)
}

// Update modifies a student's details. The password only changes when one is provided.
func (s *StudentService) Update(ctx context.Context, student *model.Student) error {
	if student.PasswordHash != "" {
		hashed, err := s.authService.HashPassword(student.PasswordHash)
		if err != nil {
			return err
		}
		student.PasswordHash = hashed
	}
	return s.studentRepo.Update(ctx, student)
}

// Delete removes a student from the teacher's roster.
func (s *StudentService) Delete(ctx context.Context, id, teacherID int) error {
	return s.studentRepo.Delete(ctx, id, teacherID)
}
