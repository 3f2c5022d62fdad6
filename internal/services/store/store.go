package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/models"
)

// Key layout. Cache keys hash the raw query text and are shared across
// sessions: identical questions from different users hit the same entry.
const (
	cacheKeyPrefix      = "chat_cache:"
	transcriptKeyPrefix = "transcript:"
	popularQueriesKey   = "popular_queries"

	CounterTotalChats  = "total_chats"
	CounterCacheHits   = "cache_hits"
	CounterCacheMisses = "cache_misses"

	DailyChatsPrefix = "daily_chats"
	DailyPingsPrefix = "daily_pings"
)

// DateFormat is the day bucket format for daily counters.
const DateFormat = "2006-01-02"

// dailyKeyTTL bounds how long daily counter keys live; the analytics
// series only looks back seven days.
const dailyKeyTTL = 7 * 24 * time.Hour

// Store is the raw key-value capability. Implementations return errors;
// the Manager turns them into best-effort no-ops so the chat path never
// depends on store health.
type Store interface {
	GetCached(ctx context.Context, query string) (string, bool, error)
	PutCached(ctx context.Context, query, response string) error
	AppendTranscript(ctx context.Context, sessionID string, entry models.TranscriptEntry) error
	GetTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error)
	IncrCounter(ctx context.Context, name string) error
	CounterValue(ctx context.Context, name string) (int64, error)
	IncrDaily(ctx context.Context, prefix, date string) error
	DailySeries(ctx context.Context, prefix string, days int) ([]models.DailyCount, error)
	RecordPopular(ctx context.Context, query string) error
	TopQueries(ctx context.Context, n int) ([]models.PopularQuery, error)
	Ping(ctx context.Context) error
}

// Manager wraps a Store backend with best-effort semantics: every mutation
// failure is logged and swallowed, every read failure degrades to "absent".
// A nil backend means the store is unavailable and everything is a no-op.
type Manager struct {
	store  Store
	logger *logrus.Logger
}

// NewManager creates a storage manager for the configured backend. A Redis
// connection failure does not fail the process; it degrades to a disabled
// manager so the service keeps answering without cache or metrics.
func NewManager(cfg *config.Config, logger *logrus.Logger) *Manager {
	switch cfg.Storage.Type {
	case "redis":
		redisStore, err := NewRedisStore(cfg, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, running without cache and metrics")
			return &Manager{logger: logger}
		}
		return &Manager{store: redisStore, logger: logger}
	case "memory":
		return &Manager{store: NewMemoryStore(cfg, logger), logger: logger}
	default:
		logger.WithField("type", cfg.Storage.Type).Info("Storage disabled")
		return &Manager{logger: logger}
	}
}

// NewManagerWithStore wraps an existing backend; used by tests.
func NewManagerWithStore(s Store, logger *logrus.Logger) *Manager {
	return &Manager{store: s, logger: logger}
}

// Available reports whether a backend is connected.
func (m *Manager) Available() bool {
	return m.store != nil
}

// GetCached looks up a previously generated response for the query.
// Absence of a key means "never happened", not an error.
func (m *Manager) GetCached(ctx context.Context, query string) (string, bool) {
	if m.store == nil {
		return "", false
	}
	response, found, err := m.store.GetCached(ctx, query)
	if err != nil {
		m.logger.WithError(err).Debug("Cache lookup failed")
		return "", false
	}
	return response, found
}

// PutCached stores a generated response under the query's hash.
func (m *Manager) PutCached(ctx context.Context, query, response string) {
	if m.store == nil {
		return
	}
	if err := m.store.PutCached(ctx, query, response); err != nil {
		m.logger.WithError(err).Debug("Cache write failed")
	}
}

// AppendTranscript pushes an exchange to the front of the session list,
// trims it to the configured bound, and refreshes the expiry.
func (m *Manager) AppendTranscript(ctx context.Context, sessionID string, entry models.TranscriptEntry) {
	if m.store == nil {
		return
	}
	if err := m.store.AppendTranscript(ctx, sessionID, entry); err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Debug("Transcript append failed")
	}
}

// GetTranscript returns the stored session transcript, most-recent-first.
// An expired or unknown session yields an empty slice.
func (m *Manager) GetTranscript(ctx context.Context, sessionID string) []models.TranscriptEntry {
	if m.store == nil {
		return []models.TranscriptEntry{}
	}
	entries, err := m.store.GetTranscript(ctx, sessionID)
	if err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Debug("Transcript read failed")
		return []models.TranscriptEntry{}
	}
	return entries
}

// IncrCounter bumps a named counter.
func (m *Manager) IncrCounter(ctx context.Context, name string) {
	if m.store == nil {
		return
	}
	if err := m.store.IncrCounter(ctx, name); err != nil {
		m.logger.WithError(err).WithField("counter", name).Debug("Counter bump failed")
	}
}

// CounterValue reads a named counter; missing counters read as zero.
func (m *Manager) CounterValue(ctx context.Context, name string) int64 {
	if m.store == nil {
		return 0
	}
	value, err := m.store.CounterValue(ctx, name)
	if err != nil {
		m.logger.WithError(err).WithField("counter", name).Debug("Counter read failed")
		return 0
	}
	return value
}

// IncrDaily bumps today's bucket of a daily counter series.
func (m *Manager) IncrDaily(ctx context.Context, prefix, date string) {
	if m.store == nil {
		return
	}
	if err := m.store.IncrDaily(ctx, prefix, date); err != nil {
		m.logger.WithError(err).WithField("prefix", prefix).Debug("Daily counter bump failed")
	}
}

// DailySeries reads the last days of a daily counter series, oldest first.
// Missing days read as zero.
func (m *Manager) DailySeries(ctx context.Context, prefix string, days int) []models.DailyCount {
	if m.store == nil {
		return emptySeries(prefix, days)
	}
	series, err := m.store.DailySeries(ctx, prefix, days)
	if err != nil {
		m.logger.WithError(err).WithField("prefix", prefix).Debug("Daily series read failed")
		return emptySeries(prefix, days)
	}
	return series
}

// RecordPopular bumps the popularity score of the lowercased query.
func (m *Manager) RecordPopular(ctx context.Context, query string) {
	if m.store == nil {
		return
	}
	if err := m.store.RecordPopular(ctx, query); err != nil {
		m.logger.WithError(err).Debug("Popularity bump failed")
	}
}

// TopQueries returns the n most popular queries, highest first.
func (m *Manager) TopQueries(ctx context.Context, n int) []models.PopularQuery {
	if m.store == nil {
		return []models.PopularQuery{}
	}
	queries, err := m.store.TopQueries(ctx, n)
	if err != nil {
		m.logger.WithError(err).Debug("Top queries read failed")
		return []models.PopularQuery{}
	}
	return queries
}

// Ping probes backend connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	if m.store == nil {
		return fmt.Errorf("storage disabled")
	}
	return m.store.Ping(ctx)
}

// HitRate computes the cache hit rate from the stored counters; zero when
// nothing has been counted yet.
func (m *Manager) HitRate(ctx context.Context) float64 {
	hits := m.CounterValue(ctx, CounterCacheHits)
	misses := m.CounterValue(ctx, CounterCacheMisses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// cacheKey derives the shared cache key from the raw query text.
func cacheKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(hash[:])
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func dailyKey(prefix, date string) string {
	return fmt.Sprintf("%s:%s", prefix, date)
}

// lastDates returns the date strings for the past days including today,
// oldest first.
func lastDates(days int) []string {
	dates := make([]string, 0, days)
	now := time.Now().UTC()
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(DateFormat))
	}
	return dates
}

func emptySeries(prefix string, days int) []models.DailyCount {
	series := make([]models.DailyCount, 0, days)
	for _, date := range lastDates(days) {
		series = append(series, models.DailyCount{Date: date})
	}
	return series
}
