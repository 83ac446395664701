package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/palma21/hotel-rating-fetcher/internal/api"
	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/palma21/hotel-rating-fetcher/internal/notifications"
	"github.com/palma21/hotel-rating-fetcher/internal/rating"
	"github.com/palma21/hotel-rating-fetcher/internal/scheduler"
	"github.com/palma21/hotel-rating-fetcher/internal/settings"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
	"github.com/sirupsen/logrus"
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

	logrus.Info("Starting Hotel Rating Fetcher")

	storageClient, err := storage.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	logrus.Infof("Using %s storage backend", cfg.StorageBackend)

	settingsStore := settings.NewStore(storageClient)

	completionClient, err := completion.NewClient(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize completion client: %v", err)
	}

	ratingService := rating.NewService(cfg, storageClient, completionClient, normalize.New())

	notificationService := notifications.NewService(cfg)

	schedulerService := scheduler.NewService(cfg, ratingService, settingsStore, notificationService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	handler := api.NewHandler(cfg, ratingService, settingsStore)

	// Lookups can walk the whole candidate list, so the write timeout
	// has to cover every attempt.
	writeTimeout := time.Duration(len(completionClient.Candidates())+1) * cfg.GeminiAttemptTimeout

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
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
