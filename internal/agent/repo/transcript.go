package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hydrochat-core/server/internal/agent/model"
	errx "github.com/hydrochat-core/server/internal/core/error"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// RedisTranscriptRepository mirrors session records into a Redis list so
// external renderers can follow a session. It is never read back at startup.
type RedisTranscriptRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTranscriptRepository(rdb redis.Cmdable, ttl time.Duration) *RedisTranscriptRepository {
	return &RedisTranscriptRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisTranscriptRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:records", sessionID)
}

func (r *RedisTranscriptRepository) AppendRecord(ctx context.Context, sessionID string, record model.SessionRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal record")
		return fmt.Errorf("marshal record: %w", err)
	}
	key := r.sessionKey(sessionID)

	// append and extend TTL on touch in one round trip
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	var expire *redis.BoolCmd
	if r.ttl > 0 {
		expire = pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push record to redis")
		return errx.WrapRedis(err)
	}
	if expire != nil && !expire.Val() {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
	}
	return nil
}

func (r *RedisTranscriptRepository) LoadRecords(ctx context.Context, sessionID string) ([]model.SessionRecord, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.SessionRecord{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session records from redis")
		return nil, errx.WrapRedis(err)
	}

	records := make([]model.SessionRecord, 0, len(rows))
	for i, s := range rows {
		var rec model.SessionRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal record")
			return nil, fmt.Errorf("unmarshal record at index %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *RedisTranscriptRepository) ClearRecords(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session records from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTranscriptRepository) RecordCount(ctx context.Context, sessionID string) (int, error) {
	key := r.sessionKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get record count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.TranscriptRepository = (*RedisTranscriptRepository)(nil)

// TranscriptSink publishes session log records of one session to a repository.
type TranscriptSink struct {
	repo      model.TranscriptRepository
	sessionID string
}

func NewTranscriptSink(repo model.TranscriptRepository, sessionID string) *TranscriptSink {
	return &TranscriptSink{repo: repo, sessionID: sessionID}
}

func (s *TranscriptSink) Publish(ctx context.Context, record model.SessionRecord) error {
	return s.repo.AppendRecord(ctx, s.sessionID, record)
}
