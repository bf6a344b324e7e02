package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/analysis"
	"github.com/sqryxz/bonk-sentiment-bot/internal/classifier"
	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
	"github.com/sqryxz/bonk-sentiment-bot/internal/notifications"
	"github.com/sqryxz/bonk-sentiment-bot/internal/scheduler"
	"github.com/sqryxz/bonk-sentiment-bot/internal/sources"
	"github.com/sqryxz/bonk-sentiment-bot/internal/storage"
	"github.com/sqryxz/bonk-sentiment-bot/internal/tracker"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Bonk Sentiment Bot")

	summaries, cleanup, err := buildSummaryRepository(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer cleanup()

	itemClassifier, err := buildClassifier(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize classifier: %v", err)
	}

	notificationService := notifications.NewService(cfg)

	analyzer := analysis.NewAnalyzer(itemClassifier, cfg.Workers, nil)
	aggregator := analysis.NewAggregator(
		analysis.NewKeywordRelevance(cfg.TopicKeywords),
		themeDefs(cfg.Themes),
		cfg.TopItems,
		cfg.MaxBatches,
	)

	srcs := []sources.Source{
		sources.NewRedditSource(cfg.Subreddits, cfg.TopicKeywords),
		sources.NewTwitterSource(cfg.TwitterBearerToken),
	}

	trackerService := tracker.NewService(cfg, summaries, notificationService, analyzer, aggregator, srcs, clockwork.NewRealClock())

	schedulerService := scheduler.NewService(cfg, trackerService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks and the summary API
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(trackerService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(trackerService)).Methods("POST")
	router.HandleFunc("/api/latest-summary", latestSummaryHandler(trackerService)).Methods("GET")
	router.HandleFunc("/api/historical-summaries/{days}", historicalSummariesHandler(cfg, summaries)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// buildSummaryRepository picks the storage backend from configuration:
// Postgres when DATABASE_URL is set, Azure blob when a storage account is
// configured, local disk otherwise.
func buildSummaryRepository(cfg *config.Config) (storage.SummaryRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		repo, err := storage.NewPostgresSummaryRepository(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logrus.Info("Using Postgres summary storage")
		return repo, repo.Close, nil
	}

	if cfg.StorageAccount != "" {
		blob, err := storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, nil, err
		}
		logrus.Infof("Using Azure blob summary storage (account %s)", cfg.StorageAccount)
		return storage.NewBlobSummaryRepository(blob), func() {}, nil
	}

	local, err := storage.NewLocalStorage(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("Using local summary storage in %s", cfg.DataDir)
	return storage.NewBlobSummaryRepository(local), func() {}, nil
}

// buildClassifier prefers the OpenAI classifier when an API key is present and
// falls back to the built-in lexicon model.
func buildClassifier(cfg *config.Config) (classifier.Classifier, error) {
	if cfg.OpenAIKey != "" {
		logrus.Info("Using OpenAI classifier")
		return classifier.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIModel)
	}
	logrus.Info("Using lexicon classifier")
	return classifier.NewLexiconClassifier(), nil
}

func themeDefs(themes []config.Theme) []analysis.ThemeDef {
	defs := make([]analysis.ThemeDef, 0, len(themes))
	for _, t := range themes {
		defs = append(defs, analysis.ThemeDef{Name: t.Name, Keywords: t.Keywords})
	}
	return defs
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(trackerService *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(trackerService.GetMetrics()))
	}
}

func triggerHandler(trackerService *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := trackerService.RunCollection(context.Background()); err != nil {
				logrus.Errorf("Manual collection trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Collection triggered successfully"}`))
	}
}

func latestSummaryHandler(trackerService *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := trackerService.BuildDailyReport(r.Context())
		if err != nil && !errors.Is(err, analysis.ErrEmptyWindow) {
			http.Error(w, `{"error":"failed to build report"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"report":    report,
			"formatted": analysis.FormatReport(report),
		})
	}
}

func historicalSummariesHandler(cfg *config.Config, summaries storage.SummaryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(mux.Vars(r)["days"])
		if err != nil || days <= 0 || days > 90 {
			http.Error(w, `{"error":"days must be between 1 and 90"}`, http.StatusBadRequest)
			return
		}

		end := time.Now().UTC()
		start := end.AddDate(0, 0, -days)
		batches, err := summaries.ListSummaries(r.Context(), start, end)
		if err != nil {
			http.Error(w, `{"error":"failed to load summaries"}`, http.StatusInternalServerError)
			return
		}
		if batches == nil {
			batches = []models.BatchSummary{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"start":     start,
			"end":       end,
			"count":     len(batches),
			"summaries": batches,
		})
	}
}
