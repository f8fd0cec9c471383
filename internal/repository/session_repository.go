package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizhall/quizhall-backend/internal/model"
)

// SessionRepository handles schedule data access for exam sessions.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, teacher_id, exam_id, session_date, start_at, end_at, created_at`

// GetByID retrieves a session by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.TeacherID, &s.ExamID, &s.SessionDate, &s.StartAt, &s.EndAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByTeacherAndExam retrieves the single active session of an exam.
func (r *SessionRepository) GetByTeacherAndExam(ctx context.Context, teacherID int, examID uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE teacher_id = $1 AND exam_id = $2`, teacherID, examID,
	).Scan(&s.ID, &s.TeacherID, &s.ExamID, &s.SessionDate, &s.StartAt, &s.EndAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (teacher_id, exam_id, session_date, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.TeacherID, s.ExamID, s.SessionDate, s.StartAt, s.EndAt,
	).Scan(&s.ID, &s.CreatedAt)
}

// Replace swaps an exam's session wholesale in one transaction: the old
// record (and its attempts, via cascade) is deleted and a fresh one with a
// new id is inserted. Result records have no cascade and survive.
func (r *SessionRepository) Replace(ctx context.Context, s *model.ExamSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM exam_sessions WHERE teacher_id = $1 AND exam_id = $2`,
		s.TeacherID, s.ExamID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO exam_sessions (teacher_id, exam_id, session_date, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.TeacherID, s.ExamID, s.SessionDate, s.StartAt, s.EndAt,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete removes a session. Attempts and their answers cascade; result
// records are retained for review.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID, teacherID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_sessions WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found for teacher %d", id, teacherID)
	}
	return nil
}

// ListByTeacher retrieves all sessions scheduled by a teacher.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE teacher_id = $1
		 ORDER BY start_at DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListByTeacherOnDate retrieves a teacher's sessions on a calendar day.
// Used for the student lobby.
func (r *SessionRepository) ListByTeacherOnDate(ctx context.Context, teacherID int, date time.Time) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE teacher_id = $1 AND session_date = $2::date
		 ORDER BY start_at ASC`, teacherID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListOnOrAfter retrieves sessions whose day is the given date or later.
// Used for cache prewarming on application startup.
func (r *SessionRepository) ListOnOrAfter(ctx context.Context, date time.Time) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE session_date >= $1::date
		 ORDER BY start_at ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

type sessionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSessions(rows sessionRows) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.ExamID, &s.SessionDate, &s.StartAt, &s.EndAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
