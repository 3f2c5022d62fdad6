package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/terraria-chatbot-go/internal/models"
)

// handleSession returns the stored transcript for a session. An unknown or
// expired session answers with an empty transcript: store expiry is a
// normal outcome, not a 404.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	h.writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionID:  sessionID,
		Transcript: h.store.GetTranscript(r.Context(), sessionID),
	})
}
