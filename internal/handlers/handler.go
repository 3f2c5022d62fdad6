package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/i18n"
	"github.com/terraria-chatbot-go/internal/middleware"
	"github.com/terraria-chatbot-go/internal/models"
	"github.com/terraria-chatbot-go/internal/services/ai"
	"github.com/terraria-chatbot-go/internal/services/knowledge"
	"github.com/terraria-chatbot-go/internal/services/store"
)

const searchResultLimit = 5

// Handler serves the HTTP API. All dependencies are constructed once in
// main and injected; handlers hold no per-request state.
type Handler struct {
	config           *config.Config
	aiService        ai.Service
	knowledgeService knowledge.Service
	store            *store.Manager
	rateLimiter      middleware.RateLimiter
	metrics          *middleware.Metrics
	localizer        *i18n.Localizer
	logger           *logrus.Logger
}

// NewHandler creates the API handler
func NewHandler(
	cfg *config.Config,
	aiService ai.Service,
	knowledgeService knowledge.Service,
	storeManager *store.Manager,
	rateLimiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		config:           cfg,
		aiService:        aiService,
		knowledgeService: knowledgeService,
		store:            storeManager,
		rateLimiter:      rateLimiter,
		metrics:          metrics,
		localizer:        localizer,
		logger:           logger,
	}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.handleRoot).Methods("GET")
	router.HandleFunc("/chat", h.handleChat).Methods("POST")
	router.HandleFunc("/search", h.handleSearch).Methods("POST")
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
	router.HandleFunc("/ping", h.handlePing).Methods("GET")
	router.HandleFunc("/redis-health", h.handleStoreHealth).Methods("GET")
	router.HandleFunc("/session/{id}", h.handleSession).Methods("GET")
	router.HandleFunc("/analytics", h.handleAnalytics).Methods("GET")
	router.Handle("/metrics", h.metrics.Handler()).Methods("GET")
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": h.localizer.Default(i18n.MsgBanner),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: message})
}

// timestamp formats the current time the way the API reports it.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
