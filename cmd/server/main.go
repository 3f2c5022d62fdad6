package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/handlers"
	"github.com/terraria-chatbot-go/internal/i18n"
	"github.com/terraria-chatbot-go/internal/middleware"
	"github.com/terraria-chatbot-go/internal/services/ai"
	"github.com/terraria-chatbot-go/internal/services/fallback"
	"github.com/terraria-chatbot-go/internal/services/knowledge"
	"github.com/terraria-chatbot-go/internal/services/store"
	"github.com/terraria-chatbot-go/pkg/logger"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting Terraria chatbot API...")

	// Initialize storage; a missing store degrades to no cache, no metrics
	storeManager := store.NewManager(cfg, log)

	// Initialize services
	knowledgeService := knowledge.NewTableService(log)
	fallbackResponder := fallback.NewResponder()
	aiService := ai.NewClient(&cfg.LLM, fallbackResponder, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	// Initialize i18n
	localizer, err := i18n.NewLocalizer("en", []string{"en"})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Initialize router
	router := mux.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(metrics.Instrument)

	handler := handlers.NewHandler(
		cfg,
		aiService,
		knowledgeService,
		storeManager,
		rateLimiter,
		metrics,
		localizer,
		log,
	)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.CORS(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	log.Info("Server stopped")
}
