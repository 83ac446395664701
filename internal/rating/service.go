package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/palma21/hotel-rating-fetcher/internal/prompt"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrInvalidRequest wraps caller mistakes such as a missing hotel name
var ErrInvalidRequest = errors.New("invalid rating request")

// Completer is the part of the completion client the pipeline needs
type Completer interface {
	Generate(ctx context.Context, prompt, apiKey string) (*completion.Completion, error)
	Probe(ctx context.Context, apiKey string) (*completion.Completion, error)
}

// Service runs the rating pipeline: prompt, completion, normalization.
// Lookups share nothing but the metrics counters.
type Service struct {
	config     *config.Config
	storage    storage.StorageInterface
	prompts    *prompt.Builder
	completer  Completer
	normalizer *normalize.Normalizer
	metrics    *Metrics
	mu         sync.RWMutex
}

// Metrics holds lookup counters
type Metrics struct {
	TotalLookups       int            `json:"total_lookups"`
	SuccessfulLookups  int            `json:"successful_lookups"`
	EmptyResults       int            `json:"empty_results"`
	AuthFailures       int            `json:"auth_failures"`
	UpstreamFailures   int            `json:"upstream_failures"`
	ModelUsage         map[string]int `json:"model_usage"`
	LastLookup         time.Time      `json:"last_lookup"`
	LastLookupDuration string         `json:"last_lookup_duration"`
}

// lookupRecord is what the optional lookup log stores per request
type lookupRecord struct {
	ID        string                   `json:"id"`
	Request   models.RequestSpec       `json:"request"`
	Model     string                   `json:"model"`
	Attempts  int                      `json:"attempts"`
	Result    models.HotelRatingResult `json:"result"`
	CreatedAt time.Time                `json:"created_at"`
}

// NewService creates a new rating service
func NewService(cfg *config.Config, storage storage.StorageInterface, completer Completer, normalizer *normalize.Normalizer) *Service {
	return &Service{
		config:     cfg,
		storage:    storage,
		prompts:    prompt.NewBuilder(cfg.SecondarySources),
		completer:  completer,
		normalizer: normalizer,
		metrics: &Metrics{
			ModelUsage: make(map[string]int),
		},
	}
}

// FetchHotelRating looks up ratings for one hotel. Only a missing API key
// (*completion.AuthError) and candidate exhaustion (*completion.UpstreamError)
// come back as upstream failures; unusable model output becomes an empty result.
func (s *Service) FetchHotelRating(ctx context.Context, req models.RequestSpec, apiKey string) (*models.HotelRatingResult, error) {
	start := time.Now()

	if strings.TrimSpace(apiKey) == "" {
		s.recordFailure(&completion.AuthError{})
		return nil, &completion.AuthError{}
	}

	text, err := s.prompts.Build(req.HotelName, req.Location, req.ExcludeSources)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	logrus.Infof("Fetching rating for %q (location=%s, excluded=%v)", req.HotelName, describeLocation(req.Location), req.ExcludeSources)
	logrus.Debugf("Prompt built, length=%d", len(text))

	generated, err := s.completer.Generate(ctx, text, apiKey)
	if err != nil {
		s.recordFailure(err)
		logrus.Errorf("Rating lookup for %q failed: %v", req.HotelName, err)
		return nil, err
	}

	logrus.Debugf("Received generated text from %s, length=%d", generated.Candidate, len(generated.Text))

	result := s.normalizer.Normalize(req.HotelName, generated.Text)
	duration := time.Since(start)

	s.recordSuccess(generated.Candidate, result, duration)
	logrus.Infof("Rating lookup for %q completed in %v: %s", req.HotelName, duration, normalize.Describe(result))

	if s.config.StoreLookups {
		if err := s.storeLookup(req, generated, result); err != nil {
			logrus.Errorf("Failed to store lookup for %q: %v", req.HotelName, err)
		}
	}

	return &result, nil
}

// ValidateAPIKey checks that at least one candidate accepts apiKey
func (s *Service) ValidateAPIKey(ctx context.Context, apiKey string) error {
	probe, err := s.completer.Probe(ctx, apiKey)
	if err != nil {
		return err
	}
	logrus.Infof("API key accepted by %s", probe.Candidate)
	return nil
}

func (s *Service) storeLookup(req models.RequestSpec, generated *completion.Completion, result models.HotelRatingResult) error {
	record := lookupRecord{
		ID:        uuid.New().String(),
		Request:   req,
		Model:     generated.Candidate.String(),
		Attempts:  generated.Attempts,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup: %w", err)
	}

	filename := fmt.Sprintf("lookups/%s/%s.json", record.CreatedAt.Format("2006-01-02"), record.ID)
	return s.storage.Store(filename, data)
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalLookups++
	var authErr *completion.AuthError
	switch {
	case errors.As(err, &authErr):
		s.metrics.AuthFailures++
	case errors.Is(err, completion.ErrAllCandidatesExhausted):
		s.metrics.UpstreamFailures++
	}
}

func (s *Service) recordSuccess(candidate completion.Candidate, result models.HotelRatingResult, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalLookups++
	s.metrics.SuccessfulLookups++
	if len(result.Sources) == 0 {
		s.metrics.EmptyResults++
	}
	s.metrics.ModelUsage[candidate.String()]++
	s.metrics.LastLookup = time.Now()
	s.metrics.LastLookupDuration = duration.String()
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func describeLocation(location *models.Location) string {
	if location == nil {
		return "none"
	}
	return fmt.Sprintf("%s, %s", location.City, location.Country)
}
