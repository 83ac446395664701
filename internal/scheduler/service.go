package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/notifications"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const keyCheckTimeout = 5 * time.Minute

// KeyValidator probes an API key against the completion backend
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, apiKey string) error
}

// SettingsReader returns the currently saved settings
type SettingsReader interface {
	Get() (models.Settings, error)
}

// Service runs the periodic API key health check
type Service struct {
	config    *config.Config
	validator KeyValidator
	settings  SettingsReader
	notifier  notifications.NotificationInterface
	cron      *cron.Cron

	mu         sync.Mutex
	keyFailing bool
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, validator KeyValidator, settings SettingsReader, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:    cfg,
		validator: validator,
		settings:  settings,
		notifier:  notifier,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start registers the key check and starts the cron runner
func (s *Service) Start() error {
	if s.config.KeyCheckSchedule == "" {
		logrus.Info("API key health check disabled (KEY_CHECK_SCHEDULE is empty)")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.KeyCheckSchedule, func() {
		logrus.Info("Starting scheduled API key health check")
		if err := s.RunKeyCheck(); err != nil {
			logrus.Errorf("Scheduled API key health check failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid KEY_CHECK_SCHEDULE %q: %w", s.config.KeyCheckSchedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with key check schedule %q", s.config.KeyCheckSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

// RunKeyCheck probes the saved key. An alert is sent when the key starts
// failing and again when it recovers, not on every failed run.
func (s *Service) RunKeyCheck() error {
	settings, err := s.settings.Get()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	apiKey := settings.APIKey
	if apiKey == "" {
		apiKey = s.config.GeminiAPIKey
	}
	if apiKey == "" {
		logrus.Info("No API key configured, skipping health check")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), keyCheckTimeout)
	defer cancel()

	checkErr := s.validator.ValidateAPIKey(ctx, apiKey)

	s.mu.Lock()
	wasFailing := s.keyFailing
	s.keyFailing = checkErr != nil
	s.mu.Unlock()

	switch {
	case checkErr != nil && !wasFailing:
		s.alert("critical", "Gemini API key rejected", fmt.Sprintf("Rating lookups will fail until the key is fixed. %v", checkErr))
	case checkErr == nil && wasFailing:
		s.alert("info", "Gemini API key working again", "The saved API key is accepted again.")
	}

	if checkErr != nil {
		return fmt.Errorf("API key check failed: %w", checkErr)
	}

	logrus.Info("API key health check passed")
	return nil
}

func (s *Service) alert(severity, title, message string) {
	alert := &models.Alert{
		ID:        uuid.New().String(),
		Type:      severity,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifier.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send %s alert: %v", severity, err)
	}
}
