package rating

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompleter is a mock implementation of the completion client
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Generate(ctx context.Context, prompt, apiKey string) (*completion.Completion, error) {
	args := m.Called(ctx, prompt, apiKey)
	result, _ := args.Get(0).(*completion.Completion)
	return result, args.Error(1)
}

func (m *MockCompleter) Probe(ctx context.Context, apiKey string) (*completion.Completion, error) {
	args := m.Called(ctx, apiKey)
	result, _ := args.Get(0).(*completion.Completion)
	return result, args.Error(1)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
}

func newTestService(cfg *config.Config, store storage.StorageInterface, completer Completer) *Service {
	return NewService(cfg, store, completer, normalize.NewWithClock(fixedClock))
}

var flash = completion.Candidate{Version: "v1beta", Model: "gemini-2.0-flash"}

func TestService_FetchHotelRating_BlankKey(t *testing.T) {
	completer := &MockCompleter{}
	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	for _, key := range []string{"", "   "} {
		_, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "Grand Hotel"}, key)

		var authErr *completion.AuthError
		assert.ErrorAs(t, err, &authErr)
	}

	completer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	assert.Contains(t, service.GetMetrics(), `"auth_failures": 2`)
}

func TestService_FetchHotelRating_InvalidRequest(t *testing.T) {
	completer := &MockCompleter{}
	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	_, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: " "}, "key")

	assert.ErrorIs(t, err, ErrInvalidRequest)
	completer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_FetchHotelRating_Success(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `"Hotel Lutetia" located in Paris, France`)
	}), "key").Return(&completion.Completion{
		Text:      `Sure! {"hotelName":"Hotel Lutetia","sources":[{"source":"Google Listing","rating":4.7,"totalReviews":900}]}`,
		Candidate: flash,
		Attempts:  1,
	}, nil)

	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	result, err := service.FetchHotelRating(context.Background(), models.RequestSpec{
		HotelName: "Hotel Lutetia",
		Location:  &models.Location{City: "Paris", Country: "France"},
	}, "key")
	require.NoError(t, err)

	assert.Equal(t, "Hotel Lutetia", result.HotelName)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, 4.7, result.Sources[0].Rating)
	completer.AssertExpectations(t)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, 1, metrics.SuccessfulLookups)
	assert.Equal(t, 1, metrics.ModelUsage["v1beta/gemini-2.0-flash"])
}

func TestService_FetchHotelRating_MalformedOutputIsAbsorbed(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.Anything, "key").
		Return(&completion.Completion{Text: "I could not find this hotel.", Candidate: flash, Attempts: 1}, nil)

	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	result, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "Grand Hotel"}, "key")
	require.NoError(t, err)

	assert.Equal(t, normalize.Fallback("Grand Hotel"), *result)
	assert.Contains(t, service.GetMetrics(), `"empty_results": 1`)
}

func TestService_FetchHotelRating_UpstreamError(t *testing.T) {
	upstreamErr := &completion.UpstreamError{
		Attempts: 4,
		Last:     &completion.CandidateAttemptError{Candidate: flash, Reason: "quota exceeded"},
	}
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.Anything, "key").Return(nil, upstreamErr)

	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	result, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "Grand Hotel"}, "key")

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, completion.ErrAllCandidatesExhausted))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, service.GetMetrics(), `"upstream_failures": 1`)
}

func TestService_FetchHotelRating_StoresLookups(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.Anything, "key").
		Return(&completion.Completion{Text: `{"hotelName":"X","rating":4}`, Candidate: flash, Attempts: 2}, nil)

	store := storage.NewMemoryStorage()
	service := newTestService(&config.Config{StoreLookups: true}, store, completer)

	_, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "X"}, "key")
	require.NoError(t, err)

	names, err := store.List("lookups/")
	require.NoError(t, err)
	require.Len(t, names, 1)

	data, err := store.Retrieve(names[0])
	require.NoError(t, err)

	var record lookupRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "X", record.Request.HotelName)
	assert.Equal(t, "v1beta/gemini-2.0-flash", record.Model)
	assert.Equal(t, 2, record.Attempts)
	assert.Equal(t, "Google", record.Result.Sources[0].Source)
}

func TestService_FetchHotelRating_StoreFailureIsLogged(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.Anything, "key").
		Return(&completion.Completion{Text: `{"hotelName":"X","rating":4}`, Candidate: flash, Attempts: 1}, nil)

	service := newTestService(&config.Config{StoreLookups: true}, failingStorage{}, completer)

	result, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "X"}, "key")
	require.NoError(t, err)
	assert.Len(t, result.Sources, 1)
}

func TestService_ValidateAPIKey(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Probe", mock.Anything, "good").Return(&completion.Completion{Text: "OK", Candidate: flash, Attempts: 1}, nil)
	completer.On("Probe", mock.Anything, "bad").Return(nil, &completion.UpstreamError{Attempts: 4})

	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	assert.NoError(t, service.ValidateAPIKey(context.Background(), "good"))
	assert.ErrorIs(t, service.ValidateAPIKey(context.Background(), "bad"), completion.ErrAllCandidatesExhausted)
}

type failingStorage struct{}

func (failingStorage) Store(string, []byte) error      { return errors.New("storage offline") }
func (failingStorage) Retrieve(string) ([]byte, error) { return nil, storage.ErrNotFound }
func (failingStorage) List(string) ([]string, error)   { return nil, nil }
func (failingStorage) Delete(string) error             { return nil }

// Pipeline wired to a real completion client against a fake Gemini endpoint.

func geminiText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []interface{}{map[string]interface{}{
			"content": map[string]interface{}{"parts": []interface{}{map[string]interface{}{"text": text}}},
		}},
	})
}

func TestService_EndToEnd_FallbackMatchesDirectCall(t *testing.T) {
	const answer = `{"hotelName":"Grand Hotel","sources":[{"source":"Google Listing","rating":4.3,"totalReviews":77,"recentReviews":[{"author":"Ann","rating":4,"date":"2026-08-01","text":"Nice"}]}],"summary":{"pros":["Views"],"cons":[]}}`

	var mu sync.Mutex
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()

		switch r.URL.Path {
		case "/v1beta/models/gemini-1.5-pro:generateContent":
			geminiText(w, answer)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
		}
	}))
	defer server.Close()

	newService := func(candidates []string) *Service {
		cfg := &config.Config{
			GeminiBaseURL:         server.URL,
			GeminiCandidates:      candidates,
			GeminiAttemptTimeout:  time.Second,
			GeminiTemperature:     0.1,
			GeminiMaxOutputTokens: 4096,
		}
		client, err := completion.NewClient(cfg)
		require.NoError(t, err)
		return newTestService(cfg, storage.NewMemoryStorage(), client)
	}

	req := models.RequestSpec{HotelName: "Grand Hotel"}

	viaFallback, err := newService(config.DefaultCandidates).FetchHotelRating(context.Background(), req, "key")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/v1beta/models/gemini-2.0-flash:generateContent",
		"/v1/models/gemini-pro:generateContent",
		"/v1beta/models/gemini-1.5-pro:generateContent",
	}, calls)

	direct, err := newService([]string{"v1beta/gemini-1.5-pro"}).FetchHotelRating(context.Background(), req, "key")
	require.NoError(t, err)

	assert.Equal(t, direct, viaFallback)
	assert.Equal(t, 4.3, viaFallback.Sources[0].Rating)
}

func TestService_EndToEnd_AllCandidatesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid. Please pass a valid API key."}}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		GeminiBaseURL:         server.URL,
		GeminiCandidates:      config.DefaultCandidates,
		GeminiAttemptTimeout:  time.Second,
		GeminiMaxOutputTokens: 4096,
	}
	client, err := completion.NewClient(cfg)
	require.NoError(t, err)

	_, err = newTestService(cfg, storage.NewMemoryStorage(), client).
		FetchHotelRating(context.Background(), models.RequestSpec{HotelName: "Grand Hotel"}, "key")

	var upstreamErr *completion.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "gemini-1.5-flash", upstreamErr.Last.Candidate.Model)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestService_ConcurrentLookups(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool { return strings.Contains(p, `"Hotel A"`) }), "key").
		Return(&completion.Completion{Text: `{"hotelName":"Hotel A","rating":4}`, Candidate: flash, Attempts: 1}, nil)
	completer.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool { return strings.Contains(p, `"Hotel B"`) }), "key").
		Return(&completion.Completion{Text: `{"hotelName":"Hotel B","rating":2}`, Candidate: flash, Attempts: 1}, nil)

	service := newTestService(&config.Config{}, storage.NewMemoryStorage(), completer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		name := "Hotel A"
		want := 4.0
		if i%2 == 1 {
			name, want = "Hotel B", 2.0
		}
		wg.Add(1)
		go func(name string, want float64) {
			defer wg.Done()
			result, err := service.FetchHotelRating(context.Background(), models.RequestSpec{HotelName: name}, "key")
			if assert.NoError(t, err) {
				assert.Equal(t, name, result.HotelName)
				assert.Equal(t, want, result.Sources[0].Rating)
			}
		}(name, want)
	}
	wg.Wait()

	assert.Contains(t, service.GetMetrics(), `"successful_lookups": 20`)
}
