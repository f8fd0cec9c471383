package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizhall/quizhall-backend/internal/model"
)

// StudentRepository handles roster data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by id.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, username, name, password_hash, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.TeacherID, &s.Username, &s.Name, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByUsername retrieves a student by username for login.
func (r *StudentRepository) GetByUsername(ctx context.Context, username string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, username, name, password_hash, created_at
		 FROM students WHERE username = $1`, username,
	).Scan(&s.ID, &s.TeacherID, &s.Username, &s.Name, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new roster entry.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (teacher_id, username, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.TeacherID, s.Username, s.Name, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
}

// Update modifies a roster entry's name and, when non-empty, password hash.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students
		 SET name = $1,
		     password_hash = CASE WHEN $2 = '' THEN password_hash ELSE $2 END
		 WHERE id = $3 AND teacher_id = $4`,
		s.Name, s.PasswordHash, s.ID, s.TeacherID)
	return err
}

// Delete removes a roster entry.
func (r *StudentRepository) Delete(ctx context.Context, id, teacherID int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM students WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	return err
}

// ListByTeacher retrieves a teacher's roster with pagination.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID, limit, offset int) ([]model.Student, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE teacher_id = $1`, teacherID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_id, username, name, password_hash, created_at
		 FROM students
		 WHERE teacher_id = $1
		 ORDER BY name ASC
		 LIMIT $2 OFFSET $3`, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.Username, &s.Name, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}
