package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

const (
	redisLatestKey  = "marketscout:runs:latest"
	redisHistoryKey = "marketscout:runs:history"
)

// RedisStore persists runs in Redis: the latest run under a single
// key and history in a trimmed list, newest first.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	maxHist int64
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL, maxHist: defaultHistorySize}, nil
}

func (s *RedisStore) SaveLatest(ctx context.Context, run core.ResearchRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshalling run: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisLatestKey, raw, s.ttl)
	pipe.LPush(ctx, redisHistoryKey, raw)
	pipe.LTrim(ctx, redisHistoryKey, 0, s.maxHist-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, redisHistoryKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context) (core.ResearchRun, bool, error) {
	raw, err := s.client.Get(ctx, redisLatestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.ResearchRun{}, false, nil
	}
	if err != nil {
		return core.ResearchRun{}, false, fmt.Errorf("reading latest run: %w", err)
	}
	var run core.ResearchRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return core.ResearchRun{}, false, fmt.Errorf("unmarshalling run: %w", err)
	}
	return run, true, nil
}

func (s *RedisStore) History(ctx context.Context, limit int) ([]core.ResearchRun, error) {
	if limit <= 0 || int64(limit) > s.maxHist {
		limit = int(s.maxHist)
	}
	raws, err := s.client.LRange(ctx, redisHistoryKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	runs := make([]core.ResearchRun, 0, len(raws))
	for _, raw := range raws {
		var run core.ResearchRun
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return nil, fmt.Errorf("unmarshalling run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Client exposes the underlying connection for callers that need
// auxiliary redis features, like distributed locks.
func (s *RedisStore) Client() *redis.Client { return s.client }

func (s *RedisStore) Close() error { return s.client.Close() }
