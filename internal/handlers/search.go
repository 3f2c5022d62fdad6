package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/terraria-chatbot-go/internal/i18n"
	"github.com/terraria-chatbot-go/internal/models"
)

// handleSearch exposes the knowledge lookup directly.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, h.localizer.Default(i18n.MsgInvalidRequest))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, http.StatusBadRequest, h.localizer.Default(i18n.MsgEmptyQuery))
		return
	}

	results := h.knowledgeService.Search(req.Query, searchResultLimit)

	h.writeJSON(w, http.StatusOK, models.SearchResponse{
		Results: results,
		Query:   req.Query,
	})
}
