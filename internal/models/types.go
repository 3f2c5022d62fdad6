package models

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
	// Format selects how the response text is rendered. Empty or "text"
	// returns the model output as-is; "html" renders its markdown.
	Format string `json:"format,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	Results []string `json:"results"`
	Query   string   `json:"query"`
}

// TranscriptEntry is one stored exchange in a session transcript,
// most-recent-first in the stored list.
type TranscriptEntry struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Cached    bool   `json:"cached"`
}

// SessionResponse is the body returned by GET /session/{id}. An expired or
// unknown session returns an empty transcript, not an error.
type SessionResponse struct {
	SessionID  string            `json:"session_id"`
	Transcript []TranscriptEntry `json:"transcript"`
}

// PopularQuery is one entry of the popularity leaderboard.
type PopularQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// DailyCount is one day of a counter series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsResponse is the body returned by GET /analytics.
type AnalyticsResponse struct {
	PopularQueries []PopularQuery `json:"popular_queries"`
	DailyChats     []DailyCount   `json:"daily_chats"`
	CacheHitRate   float64        `json:"cache_hit_rate"`
}

// ErrorResponse is the generic JSON error envelope for endpoints that
// report real error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
