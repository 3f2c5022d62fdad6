package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/i18n"
	"github.com/terraria-chatbot-go/internal/middleware"
	"github.com/terraria-chatbot-go/internal/models"
	"github.com/terraria-chatbot-go/internal/services/ai"
	"github.com/terraria-chatbot-go/internal/services/fallback"
	"github.com/terraria-chatbot-go/internal/services/knowledge"
	"github.com/terraria-chatbot-go/internal/services/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000},
		LLM: config.LLMConfig{
			BaseURL:   "http://unused.invalid",
			Model:     "test-model",
			MaxTokens: 256,
			Timeout:   5 * time.Second,
		},
		Storage: config.StorageConfig{
			Type:   "memory",
			Memory: config.MemoryConfig{CleanupInterval: time.Minute},
		},
		Cache:   config.CacheConfig{TTL: time.Hour},
		Session: config.SessionConfig{TranscriptLimit: 50, TranscriptTTL: 7 * 24 * time.Hour},
	}
}

// newTestRouter wires the full handler stack with the memory store and no
// LLM credential, so chat answers come from the fallback responder.
func newTestRouter(t *testing.T, cfg *config.Config) (*mux.Router, *store.Manager) {
	t.Helper()
	log := testLogger()

	storeManager := store.NewManager(cfg, log)
	fb := fallback.NewResponder()
	aiService := ai.NewClient(&cfg.LLM, fb, log)
	knowledgeService := knowledge.NewTableService(log)
	rateLimiter := middleware.NewRateLimiter(cfg, log)
	localizer, err := i18n.NewLocalizer("en", []string{"en"})
	require.NoError(t, err)

	handler := NewHandler(cfg, aiService, knowledgeService, storeManager, rateLimiter, middleware.NewMetrics(), localizer, log)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, storeManager
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatWithoutCredential(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "tell me about the Terra Blade"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Contains(t, resp.Response, "Terra Blade")
	assert.Contains(t, resp.Response, "True Excalibur")
	assert.NotEmpty(t, resp.SessionID)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

func TestChatEchoesSessionID(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/chat", models.ChatRequest{
		Content:   "how do I beat skeletron",
		SessionID: "my-session",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "my-session", resp.SessionID)
}

func TestChatEmptyContent(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatCacheHitPath(t *testing.T) {
	router, storeManager := newTestRouter(t, testConfig())
	ctx := context.Background()

	first := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "terra blade recipe", SessionID: "s1"})
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "terra blade recipe", SessionID: "s2"})
	require.Equal(t, http.StatusOK, second.Code)

	var a, b models.ChatResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Response, b.Response)

	// One miss, then one hit; the cache key is shared across sessions
	assert.EqualValues(t, 1, storeManager.CounterValue(ctx, store.CounterCacheMisses))
	assert.EqualValues(t, 1, storeManager.CounterValue(ctx, store.CounterCacheHits))

	// Both sessions got a transcript entry; the second is marked cached
	s2 := storeManager.GetTranscript(ctx, "s2")
	require.Len(t, s2, 1)
	assert.True(t, s2[0].Cached)
}

func TestChatHTMLFormat(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/chat", models.ChatRequest{
		Content: "tell me about the Terra Blade",
		Format:  "html",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Canned answers are plain text; html format must still carry the content
	assert.Contains(t, resp.Response, "True Excalibur")
	assert.NotContains(t, resp.Response, "<script")
}

func TestConcurrentChatsForUncachedQuery(t *testing.T) {
	router, storeManager := newTestRouter(t, testConfig())
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "who is the dryad"})
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	misses := storeManager.CounterValue(ctx, store.CounterCacheMisses)
	hits := storeManager.CounterValue(ctx, store.CounterCacheHits)
	assert.GreaterOrEqual(t, misses, int64(1))
	assert.EqualValues(t, workers, misses+hits)

	cached, found := storeManager.GetCached(ctx, "who is the dryad")
	require.True(t, found)
	assert.NotEmpty(t, cached)
}

func TestSearchMerchant(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/search", models.SearchRequest{Query: "merchant"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "merchant", resp.Query)

	found := false
	for _, result := range resp.Results {
		if strings.HasPrefix(result, "Merchant (npcs):") {
			found = true
		}
	}
	assert.True(t, found, "expected a Merchant (npcs) result, got %v", resp.Results)
}

func TestSearchEmptyQuery(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "POST", "/search", models.SearchRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
}

func TestPingWithStore(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "GET", "/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["store"])
}

func TestPingDegradedWithoutStore(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Type = "disabled"
	router, _ := newTestRouter(t, cfg)

	rec := doJSON(t, router, "GET", "/ping", nil)
	// Store unreachability is a degraded body, never a 5xx
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestStoreHealth(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "king slime tips"})

	rec := doJSON(t, router, "GET", "/redis-health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["available"])
	require.Contains(t, body, "counters")
	require.Contains(t, body, "recent_activity")
}

func TestSessionTranscript(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "first question", SessionID: "abc"})
	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "second question", SessionID: "abc"})

	rec := doJSON(t, router, "GET", "/session/abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SessionID)
	require.Len(t, resp.Transcript, 2)
	assert.Equal(t, "second question", resp.Transcript[0].Query)
}

func TestSessionUnknownIsEmptyNotMissing(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "GET", "/session/never-seen", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Transcript)
}

func TestAnalytics(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "How do I beat Skeletron?"})
	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "How do I beat Skeletron?"})
	doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "terra blade recipe"})

	rec := doJSON(t, router, "GET", "/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotEmpty(t, resp.PopularQueries)
	assert.Len(t, resp.DailyChats, 7)
	// Second identical question was a cache hit
	assert.InDelta(t, 1.0/3.0, resp.CacheHitRate, 1e-9)

	// Popularity is recorded on the miss path only, lowercased
	assert.Equal(t, "how do i beat skeletron?", resp.PopularQueries[0].Query)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2}
	router, _ := newTestRouter(t, cfg)

	first := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "hi"})
	second := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "hi"})
	third := doJSON(t, router, "POST", "/chat", models.ChatRequest{Content: "hi"})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}

func TestRootBanner(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	rec := doJSON(t, router, "GET", "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Terraria Chatbot API is running")
}
