package model

import "time"

// Student represents a member of a teacher's roster.
type Student struct {
	ID           int       `json:"id"`
	TeacherID    int       `json:"teacher_id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentLoginRequest is the payload for a student login.
type StudentLoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateStudentRequest is the payload for adding a student to the roster.
type CreateStudentRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateStudentRequest is the payload for updating a roster entry.
type UpdateStudentRequest struct {
	Name     string `json:"name" binding:"omitempty,min=1,max=255"`
	Password string `json:"password" binding:"omitempty,min=6"`
}
