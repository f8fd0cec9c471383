package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/quizhall/quizhall-backend/internal/config"
)

// AttemptCache is the Redis adapter for hot attempt state: the start
// timestamp that seeds the countdown and the autosaved answer hash. Redis is
// an accelerator here; PostgreSQL stays the source of truth and every read
// path has a database fallback.
type AttemptCache struct {
	rdb *redis.Client
}

// NewAttemptCache creates a new AttemptCache.
func NewAttemptCache(rdb *redis.Client) *AttemptCache {
	return &AttemptCache{rdb: rdb}
}

// SetStart records when an attempt entered STARTED, as a Unix timestamp.
func (c *AttemptCache) SetStart(ctx context.Context, sessionID uuid.UUID, studentID int, startedAt time.Time) error {
	key := config.CacheKey.AttemptStartKey(sessionID.String(), studentID)
	return c.rdb.Set(ctx, key, startedAt.Unix(), 0).Err()
}

// GetStart returns the cached start time. The second return is false on a
// cache miss; a real Redis failure comes back as an error.
func (c *AttemptCache) GetStart(ctx context.Context, sessionID uuid.UUID, studentID int) (time.Time, bool, error) {
	key := config.CacheKey.AttemptStartKey(sessionID.String(), studentID)
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, nil // Corrupt value, treat as a miss
	}
	return time.Unix(unix, 0), true, nil
}

// ClearStart drops the cached start time.
func (c *AttemptCache) ClearStart(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	return c.rdb.Del(ctx, config.CacheKey.AttemptStartKey(sessionID.String(), studentID)).Err()
}

// SaveAnswer autosaves one question's selections into the answer hash.
func (c *AttemptCache) SaveAnswer(ctx context.Context, sessionID uuid.UUID, studentID int, questionID string, selected []string) error {
	selectedJSON, err := json.Marshal(selected)
	if err != nil {
		return err
	}
	key := config.CacheKey.AttemptAnswersKey(sessionID.String(), studentID)
	return c.rdb.HSet(ctx, key, questionID, string(selectedJSON)).Err()
}

// Answers returns all autosaved selections, keyed by question id.
func (c *AttemptCache) Answers(ctx context.Context, sessionID uuid.UUID, studentID int) (map[string][]string, error) {
	key := config.CacheKey.AttemptAnswersKey(sessionID.String(), studentID)
	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	answers := make(map[string][]string, len(raw))
	for questionID, selectedJSON := range raw {
		var selected []string
		if err := json.Unmarshal([]byte(selectedJSON), &selected); err != nil {
			continue // Skip corrupt entries, the durable copy still has them
		}
		answers[questionID] = selected
	}
	return answers, nil
}

// ClearAnswers drops the autosaved answer hash.
func (c *AttemptCache) ClearAnswers(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	return c.rdb.Del(ctx, config.CacheKey.AttemptAnswersKey(sessionID.String(), studentID)).Err()
}
