package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/quizhall/quizhall-backend/internal/config"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/repository"
	"github.com/quizhall/quizhall-backend/internal/response"
)

// Domain errors.
var (
	ErrNotExamOwner = errors.New("not the owner of this exam")
	ErrNoQuestions  = errors.New("exam has no questions")
)

// ExamService handles exam business logic and Redis caching of the
// student-facing paper, the answer key, and the duration.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	sessionRepo  *repository.SessionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		sessionRepo:  sessionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// GetOwned retrieves an exam and verifies the teacher owns it.
func (s *ExamService) GetOwned(ctx context.Context, id uuid.UUID, teacherID int) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

// ListByTeacher retrieves a teacher's exams with pagination.
func (s *ExamService) ListByTeacher(ctx context.Context, teacherID, page, perPage int) ([]model.Exam, *response.Pagination, error) {
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

	exams, total, err := s.examRepo.ListByTeacherPaginated(ctx, teacherID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return exams, pagination, nil
}

// Create inserts a new exam.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	return s.examRepo.Create(ctx, exam)
}

// Update modifies an existing exam and refreshes its cache.
func (s *ExamService) Update(ctx context.Context, teacherID int, exam *model.Exam) error {
	existing, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return err
	}
	if existing.TeacherID != teacherID {
		return ErrNotExamOwner
	}
	if err := s.examRepo.Update(ctx, exam); err != nil {
		return err
	}

	exam.TeacherID = existing.TeacherID
	if err := s.WarmExamCache(ctx, exam); err != nil && !errors.Is(err, ErrNoQuestions) {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Cache refresh failed after update")
	}
	return nil
}

// Delete removes an exam. Questions, sessions, and attempts cascade.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, teacherID int) error {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.TeacherID != teacherID {
		return ErrNotExamOwner
	}
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamPaperKey(id.String()))
	pipe.Del(ctx, config.CacheKey.ExamAnswerKeyKey(id.String()))
	pipe.Del(ctx, config.CacheKey.ExamDurationKey(id.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Cache eviction failed after delete")
	}
	return nil
}

// ReplaceQuestions swaps an exam's question list wholesale and re-warms the cache.
func (s *ExamService) ReplaceQuestions(ctx context.Context, teacherID int, examID uuid.UUID, questions []model.Question) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if exam.TeacherID != teacherID {
		return ErrNotExamOwner
	}

	for i := range questions {
		if questions[i].ID == uuid.Nil {
			questions[i].ID = uuid.New()
		}
		questions[i].ExamID = examID
	}

	if err := s.questionRepo.ReplaceAll(ctx, examID, questions); err != nil {
		return err
	}
	return s.WarmExamCache(ctx, exam)
}

// ListQuestions retrieves an exam's full question list, answer sets included.
func (s *ExamService) ListQuestions(ctx context.Context, teacherID int, examID uuid.UUID) ([]model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}
	return s.questionRepo.ListByExam(ctx, examID)
}

// CountQuestions returns how many questions an exam currently has.
func (s *ExamService) CountQuestions(ctx context.Context, examID uuid.UUID) (int, error) {
	return s.questionRepo.CountByExam(ctx, examID)
}

// WarmExamCache loads an exam's paper, answer key, and duration from
// PostgreSQL into Redis. Used on question edits, scheduling, and startup
// prewarming so the exam-start stampede never touches the database.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	paper := buildPaper(exam, questions)
	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	// Answer key hash: question id -> JSON array of accepted option ids.
	answerKey := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		setJSON, err := json.Marshal(q.CorrectOptions)
		if err != nil {
			return fmt.Errorf("marshal answer set: %w", err)
		}
		answerKey[q.ID.String()] = string(setJSON)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), paperJSON, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKeyKey(exam.ID.String()))
	pipe.HSet(ctx, config.CacheKey.ExamAnswerKeyKey(exam.ID.String()), answerKey)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(exam.ID.String()), exam.DurationMinutes, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every exam with an upcoming session into Redis on
// application startup, so a restart never leaves a scheduled exam cold.
func (s *ExamService) PrewarmAllCaches(ctx context.Context, from time.Time) error {
	sessions, err := s.sessionRepo.ListOnOrAfter(ctx, from)
	if err != nil {
		return fmt.Errorf("list upcoming sessions: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	warmed := 0
	for _, sess := range sessions {
		if seen[sess.ExamID] {
			continue
		}
		seen[sess.ExamID] = true

		exam, err := s.examRepo.GetByID(ctx, sess.ExamID)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", sess.ExamID.String()).Msg("Failed to load exam, skipping")
			continue
		}
		if err := s.WarmExamCache(ctx, exam); err != nil {
			s.log.Warn().Err(err).Str("exam_id", sess.ExamID.String()).Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("sessions", len(sessions)).
		Msg("Prewarming complete")
	return nil
}

// GetExamPaper retrieves the student-facing paper, preferring Redis and
// falling back to PostgreSQL with a cache self-heal.
func (s *ExamService) GetExamPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal(data, &paper); err == nil {
			return &paper, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt cached paper, rebuilding from database")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Redis unavailable, serving paper from database")
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache self-heal failed")
	}

	paper := buildPaper(exam, questions)
	return &paper, nil
}

// GetAnswerKey retrieves the accepted answer sets, preferring Redis and
// falling back to PostgreSQL.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) (map[string][]string, error) {
	cached, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKeyKey(examID.String())).Result()
	if err == nil && len(cached) > 0 {
		key := make(map[string][]string, len(cached))
		ok := true
		for qid, setJSON := range cached {
			var set []string
			if err := json.Unmarshal([]byte(setJSON), &set); err != nil {
				ok = false
				break
			}
			key[qid] = set
		}
		if ok {
			return key, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt cached answer key, rebuilding from database")
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	key := make(map[string][]string, len(questions))
	for _, q := range questions {
		key[q.ID.String()] = q.CorrectOptions
	}
	return key, nil
}

func buildPaper(exam *model.Exam, questions []model.Question) model.ExamPaper {
	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			ImageURL: q.ImageURL,
			Options:  q.Options,
			OrderNum: q.OrderNum,
		}
	}
	return model.ExamPaper{
		ExamID:    exam.ID,
		Name:      exam.Name,
		Duration:  exam.DurationMinutes,
		Questions: studentQuestions,
	}
}
