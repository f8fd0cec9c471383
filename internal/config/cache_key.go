package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key for a student's login session (JTI).
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// AttemptStartKey returns the cache key for an attempt's start time.
func (r *CacheKeyStruct) AttemptStartKey(sessionID string, studentID int) string {
	return fmt.Sprintf("student:%d:session:%s:started_at", studentID, sessionID)
}

// AttemptAnswersKey returns the cache key for a student's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(sessionID string, studentID int) string {
	return fmt.Sprintf("student:%d:session:%s:answers", studentID, sessionID)
}

// ExamPaperKey returns the cache key for an exam's student-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamAnswerKeyKey returns the cache key for an exam's accepted answer sets.
func (r *CacheKeyStruct) ExamAnswerKeyKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// ExamDurationKey returns the cache key for an exam's duration in minutes.
func (r *CacheKeyStruct) ExamDurationKey(examID string) string {
	return fmt.Sprintf("exam:%s:duration", examID)
}

var CacheKey = NewCacheKeyStruct()
