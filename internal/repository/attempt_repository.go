package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizhall/quizhall-backend/internal/model"
)

// AttemptOverview combines a roster entry with their attempt for the
// teacher's session monitor.
type AttemptOverview struct {
	AttemptID uuid.UUID           `json:"attempt_id"`
	StudentID int                 `json:"student_id"`
	Username  string              `json:"username"`
	Name      string              `json:"name"`
	Status    model.AttemptStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_id, exam_id, teacher_id, session_id, status, created_at, updated_at`

// Get retrieves an attempt by its four-field identity.
func (r *AttemptRepository) Get(ctx context.Context, key model.AttemptKey) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE student_id = $1 AND exam_id = $2 AND teacher_id = $3 AND session_id = $4`,
		key.StudentID, key.ExamID, key.TeacherID, key.SessionID,
	).Scan(&a.ID, &a.StudentID, &a.ExamID, &a.TeacherID, &a.SessionID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.StudentID, &a.ExamID, &a.TeacherID, &a.SessionID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindOrCreate returns the attempt for the identity tuple, inserting it in
// NOT_STARTED when absent. ON CONFLICT DO NOTHING keeps a concurrent resolve
// from duplicating the record; the loser simply re-fetches the winner's row.
func (r *AttemptRepository) FindOrCreate(ctx context.Context, key model.AttemptKey) (*model.Attempt, error) {
	a := &model.Attempt{
		StudentID: key.StudentID,
		ExamID:    key.ExamID,
		TeacherID: key.TeacherID,
		SessionID: key.SessionID,
		Status:    model.AttemptStatusNotStarted,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (student_id, exam_id, teacher_id, session_id, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, exam_id, teacher_id, session_id) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		key.StudentID, key.ExamID, key.TeacherID, key.SessionID, model.AttemptStatusNotStarted,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// The record already exists, possibly from a concurrent resolve.
		return r.Get(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return a, nil
}

// UpdateStatus conditionally transitions an attempt. The status expectation
// is folded into the WHERE clause so a lost race leaves the row (including
// updated_at) untouched; the caller gets matched=false instead.
func (r *AttemptRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.AttemptStatus, to model.AttemptStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = ANY($3)`,
		to, id, allowed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListBySession retrieves all attempts of a session joined with roster data.
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]AttemptOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.student_id, s.username, s.name, a.status, a.created_at, a.updated_at
		 FROM attempts a
		 JOIN students s ON a.student_id = s.id
		 WHERE a.session_id = $1
		 ORDER BY s.name ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []AttemptOverview
	for rows.Next() {
		var o AttemptOverview
		if err := rows.Scan(&o.AttemptID, &o.StudentID, &o.Username, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// ListByStudent retrieves all attempts of a student, newest first.
// Used for the lobby status overlay.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ExamID, &a.TeacherID, &a.SessionID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListExpired finds STARTED attempts whose deadline (duration timer or
// session window end, whichever is earlier) has passed. Consumed by the
// deadline worker.
func (r *AttemptRepository) ListExpired(ctx context.Context, now time.Time) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.student_id, a.exam_id, a.teacher_id, a.session_id, a.status, a.created_at, a.updated_at
		 FROM attempts a
		 JOIN exams e ON a.exam_id = e.id
		 JOIN exam_sessions es ON a.session_id = es.id
		 WHERE a.status = $1
		   AND LEAST(a.updated_at + make_interval(mins => e.duration_minutes), es.end_at) < $2`,
		model.AttemptStatusStarted, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ExamID, &a.TeacherID, &a.SessionID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListAnswers returns the durable autosaved selections of an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID uuid.UUID) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_options
		 FROM attempt_answers
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[string][]string)
	for rows.Next() {
		var questionID uuid.UUID
		var selected []string
		if err := rows.Scan(&questionID, &selected); err != nil {
			return nil, err
		}
		answers[questionID.String()] = selected
	}
	return answers, rows.Err()
}
