package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/repository"
)

// Domain errors.
var (
	ErrSessionNotEnded = errors.New("session end must be after its start")
	ErrNotSessionOwner = errors.New("not the owner of this session")
)

// SessionService handles exam session scheduling.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	examRepo    *repository.ExamRepository
	attemptRepo *repository.AttemptRepository
	examService *ExamService
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.SessionRepository,
	examRepo *repository.ExamRepository,
	attemptRepo *repository.AttemptRepository,
	examService *ExamService,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		examService: examService,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// LobbySession is a session as shown in the student lobby, with the exam
// name and the student's own attempt status overlaid.
type LobbySession struct {
	SessionID       uuid.UUID           `json:"session_id"`
	ExamID          uuid.UUID           `json:"exam_id"`
	ExamName        string              `json:"exam_name"`
	DurationMinutes int                 `json:"duration_minutes"`
	StartAt         time.Time           `json:"start_at"`
	EndAt           time.Time           `json:"end_at"`
	AttemptStatus   model.AttemptStatus `json:"attempt_status"`
}

// Schedule creates or replaces the session of an exam. A replacement gets a
// fresh session id, so previous attempts are detached and the exam is
// effectively re-opened for the roster.
func (s *SessionService) Schedule(ctx context.Context, teacherID int, req *model.ScheduleSessionRequest) (*model.ExamSession, error) {
	exam, err := s.examRepo.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}

	session, err := buildSession(teacherID, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.sessionRepo.GetByTeacherAndExam(ctx, teacherID, req.ExamID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	if existing != nil {
		if err := s.sessionRepo.Replace(ctx, session); err != nil {
			return nil, fmt.Errorf("replace session: %w", err)
		}
		s.log.Info().
			Str("exam_id", req.ExamID.String()).
			Str("old_session_id", existing.ID.String()).
			Str("session_id", session.ID.String()).
			Msg("Session re-scheduled")
	} else {
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		s.log.Info().
			Str("exam_id", req.ExamID.String()).
			Str("session_id", session.ID.String()).
			Msg("Session scheduled")
	}

	// Warm the exam cache now so the first student in does not stampede the
	// database. A questionless exam can still be scheduled; it warms later.
	if err := s.examService.WarmExamCache(ctx, exam); err != nil && !errors.Is(err, ErrNoQuestions) {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Cache warm failed on schedule")
	}

	return session, nil
}

// GetOwned retrieves a session and verifies the teacher owns it.
func (s *SessionService) GetOwned(ctx context.Context, id uuid.UUID, teacherID int) (*model.ExamSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.TeacherID != teacherID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// GetByID retrieves a session by its UUID.
func (s *SessionService) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

// ListByTeacher retrieves all sessions scheduled by a teacher.
func (s *SessionService) ListByTeacher(ctx context.Context, teacherID int) ([]model.ExamSession, error) {
	sessions, err := s.sessionRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []model.ExamSession{}
	}
	return sessions, nil
}

// Delete removes a session. Attempts cascade; results are retained.
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID, teacherID int) error {
	return s.sessionRepo.Delete(ctx, id, teacherID)
}

// GetLobby returns the sessions a student can see today, with their own
// attempt status overlaid. Sessions without an attempt read NOT_STARTED.
func (s *SessionService) GetLobby(ctx context.Context, studentID, teacherID int, now time.Time) ([]LobbySession, error) {
	sessions, err := s.sessionRepo.ListByTeacherOnDate(ctx, teacherID, now)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attemptBySession := make(map[uuid.UUID]model.AttemptStatus, len(attempts))
	for _, a := range attempts {
		attemptBySession[a.SessionID] = a.Status
	}

	lobby := make([]LobbySession, 0, len(sessions))
	for _, sess := range sessions {
		exam, err := s.examRepo.GetByID(ctx, sess.ExamID)
		if err != nil {
			continue // Skip if the exam was deleted
		}

		status, ok := attemptBySession[sess.ID]
		if !ok {
			status = model.AttemptStatusNotStarted
		}

		lobby = append(lobby, LobbySession{
			SessionID:       sess.ID,
			ExamID:          sess.ExamID,
			ExamName:        exam.Name,
			DurationMinutes: exam.DurationMinutes,
			StartAt:         sess.StartAt,
			EndAt:           sess.EndAt,
			AttemptStatus:   status,
		})
	}

	return lobby, nil
}

// buildSession derives concrete start and end timestamps from the calendar
// date plus time-of-day strings, in the server's timezone.
func buildSession(teacherID int, req *model.ScheduleSessionRequest) (*model.ExamSession, error) {
	date, err := time.ParseInLocation("2006-01-02", req.SessionDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse session date: %w", err)
	}
	startClock, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	endClock, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}

	startAt := time.Date(date.Year(), date.Month(), date.Day(),
		startClock.Hour(), startClock.Minute(), 0, 0, time.Local)
	endAt := time.Date(date.Year(), date.Month(), date.Day(),
		endClock.Hour(), endClock.Minute(), 0, 0, time.Local)

	if !endAt.After(startAt) {
		return nil, ErrSessionNotEnded
	}

	return &model.ExamSession{
		TeacherID:   teacherID,
		ExamID:      req.ExamID,
		SessionDate: date,
		StartAt:     startAt,
		EndAt:       endAt,
	}, nil
}
