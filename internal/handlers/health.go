package handlers

import (
	"net/http"
	"time"

	"github.com/terraria-chatbot-go/internal/services/store"
)

// handleHealth is the process liveness probe.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": timestamp(),
	})
}

// handlePing probes store connectivity and returns a counter snapshot.
// Store unreachability is reported as a degraded body, never a 5xx: the
// chat path works without the store.
func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Store ping failed")
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "degraded",
			"store":     "unreachable",
			"timestamp": timestamp(),
		})
		return
	}

	h.store.IncrDaily(ctx, store.DailyPingsPrefix, time.Now().UTC().Format(store.DateFormat))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"store":        "connected",
		"total_chats":  h.store.CounterValue(ctx, store.CounterTotalChats),
		"cache_hits":   h.store.CounterValue(ctx, store.CounterCacheHits),
		"cache_misses": h.store.CounterValue(ctx, store.CounterCacheMisses),
		"timestamp":    timestamp(),
	})
}

// handleStoreHealth returns extended store diagnostics.
func (h *Handler) handleStoreHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	available := h.store.Available() && h.store.Ping(ctx) == nil
	body := map[string]interface{}{
		"available": available,
		"timestamp": timestamp(),
	}

	if available {
		body["counters"] = map[string]int64{
			"total_chats":  h.store.CounterValue(ctx, store.CounterTotalChats),
			"cache_hits":   h.store.CounterValue(ctx, store.CounterCacheHits),
			"cache_misses": h.store.CounterValue(ctx, store.CounterCacheMisses),
		}
		body["cache_hit_rate"] = h.store.HitRate(ctx)
		body["recent_activity"] = map[string]interface{}{
			"daily_chats": h.store.DailySeries(ctx, store.DailyChatsPrefix, 7),
			"daily_pings": h.store.DailySeries(ctx, store.DailyPingsPrefix, 7),
		}
	}

	h.writeJSON(w, http.StatusOK, body)
}
