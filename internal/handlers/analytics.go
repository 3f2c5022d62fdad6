package handlers

import (
	"net/http"

	"github.com/terraria-chatbot-go/internal/models"
	"github.com/terraria-chatbot-go/internal/services/store"
)

const topQueriesLimit = 10

// handleAnalytics reports usage: popular queries, the 7-day chat series,
// and the cache hit rate.
func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.writeJSON(w, http.StatusOK, models.AnalyticsResponse{
		PopularQueries: h.store.TopQueries(ctx, topQueriesLimit),
		DailyChats:     h.store.DailySeries(ctx, store.DailyChatsPrefix, 7),
		CacheHitRate:   h.store.HitRate(ctx),
	})
}
