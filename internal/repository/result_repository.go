package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizhall/quizhall-backend/internal/model"
)

// SessionResult combines roster data with a graded submission for the
// teacher's results view.
type SessionResult struct {
	StudentID   int                 `json:"student_id"`
	Username    string              `json:"username"`
	Name        string              `json:"name"`
	Score       int                 `json:"score"`
	Total       int                 `json:"total"`
	Trigger     model.SubmitTrigger `json:"trigger"`
	SubmittedAt time.Time           `json:"submitted_at"`
}

// ResultRepository handles graded submission data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create persists a graded submission. The unique index on attempt_id makes
// racing auto-submit paths collapse to a single record; the loser gets
// inserted=false and no error.
func (r *ResultRepository) Create(ctx context.Context, res *model.AttemptResult) (bool, error) {
	entriesJSON, err := json.Marshal(res.Entries)
	if err != nil {
		return false, fmt.Errorf("marshal entries: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO attempt_results
		   (attempt_id, student_id, exam_id, teacher_id, session_id, score, total, trigger, entries, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (attempt_id) DO NOTHING
		 RETURNING id`,
		res.AttemptID, res.StudentID, res.ExamID, res.TeacherID, res.SessionID,
		res.Score, res.Total, res.Trigger, entriesJSON, res.SubmittedAt,
	).Scan(&res.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByAttempt retrieves the graded submission of an attempt.
func (r *ResultRepository) GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.AttemptResult, error) {
	res := &model.AttemptResult{}
	var entriesRaw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, attempt_id, student_id, exam_id, teacher_id, session_id, score, total, trigger, entries, submitted_at
		 FROM attempt_results
		 WHERE attempt_id = $1`, attemptID,
	).Scan(&res.ID, &res.AttemptID, &res.StudentID, &res.ExamID, &res.TeacherID, &res.SessionID,
		&res.Score, &res.Total, &res.Trigger, &entriesRaw, &res.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entriesRaw, &res.Entries); err != nil {
		return nil, fmt.Errorf("unmarshal entries: %w", err)
	}
	return res, nil
}

// ListBySession retrieves graded submissions of a session with pagination.
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, page, perPage int) ([]SessionResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempt_results WHERE session_id = $1`, sessionID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT r.student_id, s.username, s.name, r.score, r.total, r.trigger, r.submitted_at
		 FROM attempt_results r
		 JOIN students s ON r.student_id = s.id
		 WHERE r.session_id = $1
		 ORDER BY s.name ASC
		 LIMIT $2 OFFSET $3`, sessionID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.StudentID, &sr.Username, &sr.Name, &sr.Score, &sr.Total, &sr.Trigger, &sr.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
