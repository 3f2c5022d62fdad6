package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/i18n"
	"github.com/terraria-chatbot-go/internal/middleware"
	"github.com/terraria-chatbot-go/internal/models"
	"github.com/terraria-chatbot-go/internal/services/store"
	"github.com/terraria-chatbot-go/pkg/markdown"
)

// handleChat runs the chat pipeline: resolve session, cache lookup,
// knowledge lookup, model call, cache write, bookkeeping, respond.
//
// An unexpected fault still answers with a 200 envelope carrying an
// apologetic message: the web client treats non-2xx as a hard error and
// would break the conversation flow.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.WithField("panic", rec).Error("Chat handler panicked")
			h.metrics.RecordChat("error")
			h.writeJSON(w, http.StatusOK, models.ChatResponse{
				Response:  h.localizer.Default(i18n.MsgApology),
				SessionID: resolveSessionID(""),
				Timestamp: timestamp(),
			})
		}
	}()

	if !h.rateLimiter.Allow(middleware.ClientID(r)) {
		h.metrics.RecordRateLimitExceeded()
		h.writeError(w, http.StatusTooManyRequests, h.localizer.Default(i18n.MsgRateLimitExceeded))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, h.localizer.Default(i18n.MsgInvalidRequest))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.writeError(w, http.StatusBadRequest, h.localizer.Default(i18n.MsgEmptyContent))
		return
	}

	ctx := r.Context()
	sessionID := resolveSessionID(req.SessionID)
	now := timestamp()

	log := h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"content":    req.Content,
	})

	// Cache first: identical questions share one entry across sessions
	if cached, found := h.store.GetCached(ctx, req.Content); found {
		log.Debug("Cache hit")
		h.metrics.RecordCacheHit()
		h.metrics.RecordChat("cached")
		h.store.IncrCounter(ctx, store.CounterCacheHits)
		h.store.AppendTranscript(ctx, sessionID, models.TranscriptEntry{
			Query:     req.Content,
			Response:  cached,
			Timestamp: now,
			Cached:    true,
		})

		h.writeJSON(w, http.StatusOK, models.ChatResponse{
			Response:  renderResponse(cached, req.Format),
			SessionID: sessionID,
			Timestamp: now,
		})
		return
	}

	contextLines := h.knowledgeService.Search(req.Content, searchResultLimit)
	log.WithField("context_lines", len(contextLines)).Debug("Cache miss, generating answer")

	start := time.Now()
	response := h.aiService.Generate(ctx, req.Content, contextLines)
	h.metrics.RecordModelRequest("ok", time.Since(start))
	h.metrics.RecordCacheMiss()
	h.metrics.RecordChat("generated")

	h.store.PutCached(ctx, req.Content, response)
	h.store.IncrCounter(ctx, store.CounterCacheMisses)
	h.store.AppendTranscript(ctx, sessionID, models.TranscriptEntry{
		Query:     req.Content,
		Response:  response,
		Timestamp: now,
	})
	h.store.IncrCounter(ctx, store.CounterTotalChats)
	h.store.IncrDaily(ctx, store.DailyChatsPrefix, time.Now().UTC().Format(store.DateFormat))
	h.store.RecordPopular(ctx, req.Content)

	h.writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:  renderResponse(response, req.Format),
		SessionID: sessionID,
		Timestamp: now,
	})
}

// resolveSessionID uses the caller-supplied id verbatim when present,
// otherwise synthesizes a time-based one. Collisions are not prevented;
// session ids only bucket transcript history.
func resolveSessionID(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return fmt.Sprintf("session_%d", time.Now().UnixNano())
}

// renderResponse applies the requested output format. Raw text is stored
// and cached; rendering happens at the edge only.
func renderResponse(text, format string) string {
	if format == "html" {
		return markdown.ToWebHTML(text)
	}
	return text
}
