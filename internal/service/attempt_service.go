package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/quizhall/quizhall-backend/internal/attempt"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
)

// Rejection is a refused attempt operation: the API error code plus the
// concrete user-facing reason. An empty message means the canned message for
// the code applies. Infrastructure failures travel as plain errors instead.
type Rejection struct {
	Code    response.ErrCode
	Message string
}

// StartedAttempt is the payload handed to a student who just entered the exam.
type StartedAttempt struct {
	Attempt          *model.Attempt   `json:"attempt"`
	Paper            *model.ExamPaper `json:"paper"`
	Deadline         time.Time        `json:"deadline"`
	RemainingSeconds float64          `json:"remaining_seconds"`
}

// Narrow store interfaces so tests can swap in-memory fakes for the pgx and
// Redis implementations.
type attemptStore interface {
	Get(ctx context.Context, key model.AttemptKey) (*model.Attempt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	FindOrCreate(ctx context.Context, key model.AttemptKey) (*model.Attempt, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.AttemptStatus, to model.AttemptStatus) (bool, error)
	ListAnswers(ctx context.Context, attemptID uuid.UUID) (map[string][]string, error)
}

type sessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
}

type resultStore interface {
	Create(ctx context.Context, res *model.AttemptResult) (bool, error)
}

type examSource interface {
	GetExamPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error)
	GetAnswerKey(ctx context.Context, examID uuid.UUID) (map[string][]string, error)
}

type attemptCache interface {
	SetStart(ctx context.Context, sessionID uuid.UUID, studentID int, startedAt time.Time) error
	GetStart(ctx context.Context, sessionID uuid.UUID, studentID int) (time.Time, bool, error)
	ClearStart(ctx context.Context, sessionID uuid.UUID, studentID int) error
	Answers(ctx context.Context, sessionID uuid.UUID, studentID int) (map[string][]string, error)
	ClearAnswers(ctx context.Context, sessionID uuid.UUID, studentID int) error
}

// AttemptService owns the attempt lifecycle: idempotent resolution, the
// guarded start, manual and automatic submission, and the teacher's
// block/unblock controls. All transition legality goes through the attempt
// package's table; this service adds persistence, caching, and grading.
type AttemptService struct {
	attempts attemptStore
	sessions sessionStore
	results  resultStore
	exams    examSource
	cache    attemptCache
	now      func() time.Time
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts attemptStore,
	sessions sessionStore,
	results resultStore,
	exams examSource,
	cache attemptCache,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		sessions: sessions,
		results:  results,
		exams:    exams,
		cache:    cache,
		now:      time.Now,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// ResolveAttempt validates the session window and returns the student's
// attempt for it, creating the record in NOT_STARTED on first contact.
// Calling it again always returns the same record.
func (s *AttemptService) ResolveAttempt(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID) (*model.Attempt, *Rejection, error) {
	_, a, rej, err := s.resolve(ctx, studentID, teacherID, sessionID)
	return a, rej, err
}

// StartAttempt transitions the attempt into STARTED and hands out the exam
// paper with the countdown seeded. A second start on a live attempt is
// rejected, which is how a second device or tab gets shut out.
func (s *AttemptService) StartAttempt(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID) (*StartedAttempt, *Rejection, error) {
	session, a, rej, err := s.resolve(ctx, studentID, teacherID, sessionID)
	if err != nil || rej != nil {
		return nil, rej, err
	}

	// Fetch the paper before touching state so a questionless exam never
	// leaves an attempt stuck in STARTED.
	paper, err := s.exams.GetExamPaper(ctx, a.ExamID)
	if err != nil {
		if errors.Is(err, ErrNoQuestions) {
			return nil, &Rejection{Code: response.ErrNoQuestions}, nil
		}
		return nil, nil, fmt.Errorf("get paper: %w", err)
	}

	decision, msg := attempt.Decide(a.Status, model.AttemptStatusStarted)
	if decision != attempt.Allow {
		return nil, rejectionFor(a.Status, msg), nil
	}

	matched, err := s.attempts.UpdateStatus(ctx, a.ID,
		[]model.AttemptStatus{model.AttemptStatusNotStarted}, model.AttemptStatusStarted)
	if err != nil {
		return nil, nil, fmt.Errorf("update status: %w", err)
	}
	if !matched {
		// Lost a race, explain using whatever state won.
		current, err := s.attempts.GetByID(ctx, a.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("refetch attempt: %w", err)
		}
		_, msg := attempt.Decide(current.Status, model.AttemptStatusStarted)
		return nil, rejectionFor(current.Status, msg), nil
	}

	startedAt := s.now()
	a.Status = model.AttemptStatusStarted
	a.UpdatedAt = startedAt

	if err := s.cache.SetStart(ctx, sessionID, studentID, startedAt); err != nil {
		// The database row carries the start time too, so only log.
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to cache start time")
	}

	deadline := attempt.Deadline(startedAt, paper.Duration, session.EndAt)

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Time("deadline", deadline).
		Msg("Attempt started")

	return &StartedAttempt{
		Attempt:          a,
		Paper:            paper,
		Deadline:         deadline,
		RemainingSeconds: attempt.RemainingSeconds(startedAt, deadline),
	}, nil, nil
}

// GetState is the page-reload recovery path: current status, remaining
// seconds, and the autosaved answers.
func (s *AttemptService) GetState(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID) (*model.AttemptState, *Rejection, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session.TeacherID != teacherID {
		return nil, &Rejection{Code: response.ErrNotFound}, nil
	}

	a, err := s.attempts.Get(ctx, model.AttemptKey{
		StudentID: studentID,
		ExamID:    session.ExamID,
		TeacherID: teacherID,
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}

	state := &model.AttemptState{
		SessionID:        sessionID,
		StudentID:        studentID,
		Status:           a.Status,
		AutosavedAnswers: map[string][]string{},
	}

	if a.Status == model.AttemptStatusStarted {
		startedAt, err := s.startedAt(ctx, a)
		if err != nil {
			return nil, nil, err
		}

		paper, err := s.exams.GetExamPaper(ctx, a.ExamID)
		if err != nil {
			return nil, nil, fmt.Errorf("get paper: %w", err)
		}

		deadline := attempt.Deadline(startedAt, paper.Duration, session.EndAt)
		state.RemainingSeconds = attempt.RemainingSeconds(s.now(), deadline)

		answers, err := s.answersFor(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		state.AutosavedAnswers = answers
	}

	return state, nil, nil
}

// SubmitAttempt grades the student's final selections and completes the
// attempt. The result record is persisted before the status transition, and
// its uniqueness per attempt makes racing submit paths collapse to one
// winner; the loser is told the exam is already completed.
func (s *AttemptService) SubmitAttempt(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID, responses map[string][]string) (*model.AttemptResult, *Rejection, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session.TeacherID != teacherID {
		return nil, &Rejection{Code: response.ErrNotFound}, nil
	}

	a, err := s.attempts.Get(ctx, model.AttemptKey{
		StudentID: studentID,
		ExamID:    session.ExamID,
		TeacherID: teacherID,
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}

	decision, msg := attempt.Decide(a.Status, model.AttemptStatusCompleted)
	if decision != attempt.Allow {
		return nil, rejectionFor(a.Status, msg), nil
	}

	res, rej, err := s.finalize(ctx, a, responses, model.TriggerManual)
	if rej != nil || err != nil {
		return nil, rej, err
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Int("score", res.Score).
		Int("total", res.Total).
		Msg("Attempt submitted")
	return res, nil, nil
}

// AutoSubmit completes an expired STARTED attempt using whatever answers were
// autosaved. Called by the deadline worker; safe to call multiple times for
// the same attempt.
func (s *AttemptService) AutoSubmit(ctx context.Context, a *model.Attempt, trigger model.SubmitTrigger) error {
	answers, err := s.answersFor(ctx, a)
	if err != nil {
		return err
	}

	res, rej, err := s.finalize(ctx, a, answers, trigger)
	if err != nil {
		return err
	}
	if rej != nil {
		// Someone submitted first; nothing left to do.
		return nil
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("trigger", string(trigger)).
		Int("score", res.Score).
		Msg("Attempt auto-submitted")
	return nil
}

// TeacherSetStatus applies the teacher's block or unblock to an attempt they
// own. Re-applying the current state is an idempotent success; anything the
// transition table forbids, like unblocking a completed attempt, is rejected.
func (s *AttemptService) TeacherSetStatus(ctx context.Context, teacherID int, attemptID uuid.UUID, target model.AttemptStatus) (*model.Attempt, *Rejection, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if a.TeacherID != teacherID {
		return nil, &Rejection{Code: response.ErrNotOwner}, nil
	}

	decision, msg := attempt.Decide(a.Status, target)
	switch decision {
	case attempt.NoopSuccess:
		return a, nil, nil
	case attempt.Reject:
		return nil, rejectionFor(a.Status, msg), nil
	}

	matched, err := s.attempts.UpdateStatus(ctx, a.ID, []model.AttemptStatus{a.Status}, target)
	if err != nil {
		return nil, nil, fmt.Errorf("update status: %w", err)
	}
	if !matched {
		return nil, &Rejection{Code: response.ErrAttemptConflict}, nil
	}

	// A reset back to NOT_STARTED wipes the hot state so the next start is a
	// clean one.
	if target == model.AttemptStatusNotStarted {
		if err := s.cache.ClearStart(ctx, a.SessionID, a.StudentID); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear start cache")
		}
		if err := s.cache.ClearAnswers(ctx, a.SessionID, a.StudentID); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear answer cache")
		}
	}

	a.Status = target
	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("status", string(target)).
		Int("teacher_id", teacherID).
		Msg("Attempt status set by teacher")
	return a, nil, nil
}

// GetAttempt fetches an existing attempt without window validation. Used by
// the stream endpoint, where GetState has already vouched for the attempt.
func (s *AttemptService) GetAttempt(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID) (*model.Attempt, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.attempts.Get(ctx, model.AttemptKey{
		StudentID: studentID,
		ExamID:    session.ExamID,
		TeacherID: teacherID,
		SessionID: sessionID,
	})
}

// resolve validates the window and returns the attempt, creating it if absent.
func (s *AttemptService) resolve(ctx context.Context, studentID, teacherID int, sessionID uuid.UUID) (*model.ExamSession, *model.Attempt, *Rejection, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &Rejection{Code: response.ErrNotFound}, nil
		}
		return nil, nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session.TeacherID != teacherID {
		// A session from another teacher's roster does not exist as far as
		// this student is concerned.
		return nil, nil, &Rejection{Code: response.ErrNotFound}, nil
	}

	if err := attempt.CheckWindow(s.now(), session); err != nil {
		return nil, nil, windowRejection(err), nil
	}

	a, err := s.attempts.FindOrCreate(ctx, model.AttemptKey{
		StudentID: studentID,
		ExamID:    session.ExamID,
		TeacherID: teacherID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve attempt: %w", err)
	}
	return session, a, nil, nil
}

// finalize grades and persists the submission, then completes the attempt.
// The result insert is the commit point: when it loses to a concurrent
// submission the caller gets an already-completed rejection, and when the
// status transition fails afterwards the deadline sweep reconciles it later.
func (s *AttemptService) finalize(ctx context.Context, a *model.Attempt, responses map[string][]string, trigger model.SubmitTrigger) (*model.AttemptResult, *Rejection, error) {
	paper, err := s.exams.GetExamPaper(ctx, a.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("get paper: %w", err)
	}
	answerKey, err := s.exams.GetAnswerKey(ctx, a.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("get answer key: %w", err)
	}

	questions := make([]model.Question, len(paper.Questions))
	for i, pq := range paper.Questions {
		questions[i] = model.Question{
			ID:             pq.ID,
			ExamID:         a.ExamID,
			Text:           pq.Text,
			ImageURL:       pq.ImageURL,
			Options:        pq.Options,
			CorrectOptions: answerKey[pq.ID.String()],
			OrderNum:       pq.OrderNum,
		}
	}

	score, entries := attempt.Grade(questions, responses)

	res := &model.AttemptResult{
		AttemptID:   a.ID,
		StudentID:   a.StudentID,
		ExamID:      a.ExamID,
		TeacherID:   a.TeacherID,
		SessionID:   a.SessionID,
		Score:       score,
		Total:       len(questions),
		Trigger:     trigger,
		SubmittedAt: s.now(),
		Entries:     entries,
	}

	inserted, err := s.results.Create(ctx, res)
	if err != nil {
		return nil, nil, fmt.Errorf("create result: %w", err)
	}
	if !inserted {
		return nil, &Rejection{Code: response.ErrAlreadyCompleted, Message: attempt.MsgAlreadyCompleted}, nil
	}

	matched, err := s.attempts.UpdateStatus(ctx, a.ID,
		[]model.AttemptStatus{model.AttemptStatusStarted}, model.AttemptStatusCompleted)
	if err != nil || !matched {
		s.log.Warn().
			Err(err).
			Bool("matched", matched).
			Str("attempt_id", a.ID.String()).
			Msg("Result persisted but completion transition did not apply")
	} else {
		a.Status = model.AttemptStatusCompleted
	}

	if err := s.cache.ClearStart(ctx, a.SessionID, a.StudentID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear start cache")
	}
	if err := s.cache.ClearAnswers(ctx, a.SessionID, a.StudentID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear answer cache")
	}

	return res, nil, nil
}

// startedAt returns when the attempt entered STARTED, preferring the cache
// and self-healing it from the row's transition timestamp.
func (s *AttemptService) startedAt(ctx context.Context, a *model.Attempt) (time.Time, error) {
	startedAt, ok, err := s.cache.GetStart(ctx, a.SessionID, a.StudentID)
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Redis unavailable, using database start time")
		return a.UpdatedAt, nil
	}
	if !ok {
		if err := s.cache.SetStart(ctx, a.SessionID, a.StudentID, a.UpdatedAt); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Start cache self-heal failed")
		}
		return a.UpdatedAt, nil
	}
	return startedAt, nil
}

// answersFor returns autosaved selections, preferring the cache hash with a
// fallback to the durable copy.
func (s *AttemptService) answersFor(ctx context.Context, a *model.Attempt) (map[string][]string, error) {
	answers, err := s.cache.Answers(ctx, a.SessionID, a.StudentID)
	if err == nil && len(answers) > 0 {
		return answers, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Redis unavailable, using durable answers")
	}

	durable, dbErr := s.attempts.ListAnswers(ctx, a.ID)
	if dbErr != nil {
		return nil, fmt.Errorf("list answers: %w", dbErr)
	}
	return durable, nil
}

// rejectionFor maps a rejecting attempt status onto the API error code.
func rejectionFor(status model.AttemptStatus, msg string) *Rejection {
	code := response.ErrAttemptConflict
	switch status {
	case model.AttemptStatusStarted:
		code = response.ErrAlreadyStarted
	case model.AttemptStatusCompleted:
		code = response.ErrAlreadyCompleted
	case model.AttemptStatusBlocked:
		code = response.ErrAttemptBlocked
	}
	return &Rejection{Code: code, Message: msg}
}

// windowRejection maps window validation errors onto API error codes.
func windowRejection(err error) *Rejection {
	switch {
	case errors.Is(err, attempt.ErrWrongDate):
		return &Rejection{Code: response.ErrWrongDate}
	case errors.Is(err, attempt.ErrWindowNotOpen):
		return &Rejection{Code: response.ErrSessionNotStarted}
	default:
		return &Rejection{Code: response.ErrSessionExpired}
	}
}
