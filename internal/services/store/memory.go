package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/models"
)

// MemoryStore implements Store in-process for single-instance deployments
// and tests. TTL handling for cache entries and transcripts is delegated to
// go-cache; counters and the popularity table never expire.
type MemoryStore struct {
	cache       *gocache.Cache
	transcripts *gocache.Cache

	mu       sync.Mutex
	counters map[string]int64
	popular  map[string]int64

	cacheTTL        time.Duration
	transcriptLimit int
	transcriptTTL   time.Duration
	logger          *logrus.Logger
}

func NewMemoryStore(cfg *config.Config, logger *logrus.Logger) *MemoryStore {
	cleanup := cfg.Storage.Memory.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}

	return &MemoryStore{
		cache:           gocache.New(cfg.Cache.TTL, cleanup),
		transcripts:     gocache.New(cfg.Session.TranscriptTTL, cleanup),
		counters:        make(map[string]int64),
		popular:         make(map[string]int64),
		cacheTTL:        cfg.Cache.TTL,
		transcriptLimit: cfg.Session.TranscriptLimit,
		transcriptTTL:   cfg.Session.TranscriptTTL,
		logger:          logger,
	}
}

func (m *MemoryStore) GetCached(ctx context.Context, query string) (string, bool, error) {
	if val, found := m.cache.Get(cacheKey(query)); found {
		return val.(string), true, nil
	}
	return "", false, nil
}

func (m *MemoryStore) PutCached(ctx context.Context, query, response string) error {
	m.cache.Set(cacheKey(query), response, m.cacheTTL)
	return nil
}

func (m *MemoryStore) AppendTranscript(ctx context.Context, sessionID string, entry models.TranscriptEntry) error {
	// go-cache has no list type, so the prepend-and-trim is a guarded
	// read-modify-write; fine in-process
	m.mu.Lock()
	defer m.mu.Unlock()

	key := transcriptKey(sessionID)
	entries := []models.TranscriptEntry{entry}
	if val, found := m.transcripts.Get(key); found {
		entries = append(entries, val.([]models.TranscriptEntry)...)
	}
	if len(entries) > m.transcriptLimit {
		entries = entries[:m.transcriptLimit]
	}

	// Set refreshes the TTL, matching the Redis EXPIRE behavior
	m.transcripts.Set(key, entries, m.transcriptTTL)
	return nil
}

func (m *MemoryStore) GetTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	if val, found := m.transcripts.Get(transcriptKey(sessionID)); found {
		stored := val.([]models.TranscriptEntry)
		entries := make([]models.TranscriptEntry, len(stored))
		copy(entries, stored)
		return entries, nil
	}
	return []models.TranscriptEntry{}, nil
}

func (m *MemoryStore) IncrCounter(ctx context.Context, name string) error {
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) CounterValue(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name], nil
}

func (m *MemoryStore) IncrDaily(ctx context.Context, prefix, date string) error {
	m.mu.Lock()
	m.counters[dailyKey(prefix, date)]++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DailySeries(ctx context.Context, prefix string, days int) ([]models.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dates := lastDates(days)
	series := make([]models.DailyCount, len(dates))
	for i, date := range dates {
		series[i] = models.DailyCount{Date: date, Count: m.counters[dailyKey(prefix, date)]}
	}
	return series, nil
}

func (m *MemoryStore) RecordPopular(ctx context.Context, query string) error {
	m.mu.Lock()
	m.popular[strings.ToLower(query)]++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) TopQueries(ctx context.Context, n int) ([]models.PopularQuery, error) {
	m.mu.Lock()
	queries := make([]models.PopularQuery, 0, len(m.popular))
	for query, count := range m.popular {
		queries = append(queries, models.PopularQuery{Query: query, Count: count})
	}
	m.mu.Unlock()

	sort.Slice(queries, func(i, j int) bool {
		if queries[i].Count != queries[j].Count {
			return queries[i].Count > queries[j].Count
		}
		return queries[i].Query < queries[j].Query
	})

	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
