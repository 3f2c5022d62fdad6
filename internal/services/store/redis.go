package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/models"
)

// RedisStore implements Store using Redis. Every mutation is a single
// atomic command (or a short pipeline on one key), so concurrent requests
// need no coordination.
type RedisStore struct {
	client          *redis.Client
	cacheTTL        time.Duration
	transcriptLimit int
	transcriptTTL   time.Duration
	logger          *logrus.Logger
}

func NewRedisStore(cfg *config.Config, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithField("addr", cfg.Storage.Redis.Addr).Info("Connected to Redis")

	return &RedisStore{
		client:          client,
		cacheTTL:        cfg.Cache.TTL,
		transcriptLimit: cfg.Session.TranscriptLimit,
		transcriptTTL:   cfg.Session.TranscriptTTL,
		logger:          logger,
	}, nil
}

func (r *RedisStore) GetCached(ctx context.Context, query string) (string, bool, error) {
	value, err := r.client.Get(ctx, cacheKey(query)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStore) PutCached(ctx context.Context, query, response string) error {
	return r.client.Set(ctx, cacheKey(query), response, r.cacheTTL).Err()
}

func (r *RedisStore) AppendTranscript(ctx context.Context, sessionID string, entry models.TranscriptEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := transcriptKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.transcriptLimit-1))
	pipe.Expire(ctx, key, r.transcriptTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	items, err := r.client.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.TranscriptEntry, 0, len(items))
	for _, item := range items {
		var entry models.TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// A corrupt record should not hide the rest of the transcript
			r.logger.WithError(err).WithField("session_id", sessionID).Warn("Skipping malformed transcript entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *RedisStore) IncrCounter(ctx context.Context, name string) error {
	return r.client.Incr(ctx, name).Err()
}

func (r *RedisStore) CounterValue(ctx context.Context, name string) (int64, error) {
	value, err := r.client.Get(ctx, name).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return value, err
}

func (r *RedisStore) IncrDaily(ctx context.Context, prefix, date string) error {
	key := dailyKey(prefix, date)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, dailyKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) DailySeries(ctx context.Context, prefix string, days int) ([]models.DailyCount, error) {
	dates := lastDates(days)
	keys := make([]string, len(dates))
	for i, date := range dates {
		keys[i] = dailyKey(prefix, date)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	series := make([]models.DailyCount, len(dates))
	for i, date := range dates {
		series[i] = models.DailyCount{Date: date}
		if raw, ok := values[i].(string); ok {
			var count int64
			fmt.Sscanf(raw, "%d", &count)
			series[i].Count = count
		}
	}
	return series, nil
}

func (r *RedisStore) RecordPopular(ctx context.Context, query string) error {
	return r.client.ZIncrBy(ctx, popularQueriesKey, 1, strings.ToLower(query)).Err()
}

func (r *RedisStore) TopQueries(ctx context.Context, n int) ([]models.PopularQuery, error) {
	items, err := r.client.ZRevRangeWithScores(ctx, popularQueriesKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	queries := make([]models.PopularQuery, 0, len(items))
	for _, item := range items {
		text, ok := item.Member.(string)
		if !ok {
			continue
		}
		queries = append(queries, models.PopularQuery{
			Query: text,
			Count: int64(item.Score),
		})
	}
	return queries, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
