package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/sirupsen/logrus"
)

const probePrompt = `Say "OK" if you can read this.`

// Candidate is one (endpoint version, model) pair
type Candidate struct {
	Version string `json:"version"`
	Model   string `json:"model"`
}

func (c Candidate) String() string {
	return c.Version + "/" + c.Model
}

// ParseCandidates turns "version/model" entries into candidates, keeping order
func ParseCandidates(entries []string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid candidate %q, expected version/model", entry)
		}
		candidates = append(candidates, Candidate{Version: parts[0], Model: parts[1]})
	}
	return candidates, nil
}

// Completion is the text produced by the first candidate that succeeded
type Completion struct {
	Text      string
	Candidate Candidate
	Attempts  int
}

// Client calls the Gemini generateContent endpoint, falling back through its
// candidates in order. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	client          *resty.Client
	baseURL         string
	candidates      []Candidate
	temperature     float64
	maxOutputTokens int
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopK            int      `json:"topK,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a completion client from configuration
func NewClient(cfg *config.Config) (*Client, error) {
	candidates, err := ParseCandidates(cfg.GeminiCandidates)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: resty.New().
			SetTimeout(cfg.GeminiAttemptTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "Hotel-Rating-Fetcher/1.0"),
		baseURL:         strings.TrimRight(cfg.GeminiBaseURL, "/"),
		candidates:      candidates,
		temperature:     cfg.GeminiTemperature,
		maxOutputTokens: cfg.GeminiMaxOutputTokens,
	}, nil
}

// Candidates returns a copy of the configured candidate order
func (c *Client) Candidates() []Candidate {
	return append([]Candidate(nil), c.candidates...)
}

// Complete returns the raw text of the first successful candidate
func (c *Client) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	completion, err := c.Generate(ctx, prompt, apiKey)
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

// Generate tries every candidate once, in order, and stops at the first
// success.
func (c *Client) Generate(ctx context.Context, prompt, apiKey string) (*Completion, error) {
	temperature := c.temperature
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     &temperature,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}
	return c.run(ctx, body, apiKey)
}

// Probe checks that apiKey is accepted by at least one candidate, using a
// tiny prompt.
func (c *Client) Probe(ctx context.Context, apiKey string) (*Completion, error) {
	body := generateRequest{
		Contents:         []content{{Parts: []part{{Text: probePrompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: 10},
	}
	return c.run(ctx, body, apiKey)
}

// ProbeCandidate checks a single candidate without falling back
func (c *Client) ProbeCandidate(ctx context.Context, candidate Candidate, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", &AuthError{}
	}
	body := generateRequest{
		Contents:         []content{{Parts: []part{{Text: probePrompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: 10},
	}
	text, attemptErr := c.attempt(ctx, candidate, body, strings.TrimSpace(apiKey))
	if attemptErr != nil {
		return "", attemptErr
	}
	return text, nil
}

func (c *Client) run(ctx context.Context, body generateRequest, apiKey string) (*Completion, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &AuthError{}
	}

	var lastErr *CandidateAttemptError
	for i, candidate := range c.candidates {
		logrus.Debugf("Calling Gemini model %s (%s)", candidate.Model, candidate.Version)

		text, attemptErr := c.attempt(ctx, candidate, body, apiKey)
		if attemptErr != nil {
			logrus.Infof("Model %s (%s) failed: %s", candidate.Model, candidate.Version, attemptErr.Reason)
			lastErr = attemptErr
			continue
		}

		logrus.Infof("Successfully using model: %s (%s)", candidate.Model, candidate.Version)
		return &Completion{Text: text, Candidate: candidate, Attempts: i + 1}, nil
	}

	return nil, &UpstreamError{Attempts: len(c.candidates), Last: lastErr}
}

func (c *Client) attempt(ctx context.Context, candidate Candidate, body generateRequest, apiKey string) (string, *CandidateAttemptError) {
	start := time.Now()
	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, candidate.Version, candidate.Model)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", apiKey).
		SetBody(body).
		Post(url)

	if err != nil {
		return "", &CandidateAttemptError{Candidate: candidate, Reason: redact(err.Error(), apiKey), Err: err}
	}

	logrus.Debugf("Model %s (%s) answered %d in %v", candidate.Model, candidate.Version, resp.StatusCode(), time.Since(start))

	if !resp.IsSuccess() {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode())
		var errBody errorResponse
		if json.Unmarshal(resp.Body(), &errBody) == nil && errBody.Error.Message != "" {
			reason = errBody.Error.Message
		}
		return "", &CandidateAttemptError{Candidate: candidate, Reason: reason}
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", &CandidateAttemptError{Candidate: candidate, Reason: fmt.Sprintf("malformed response body: %v", err), Err: err}
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", &CandidateAttemptError{Candidate: candidate, Reason: "No response from Gemini API"}
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}

// redact keeps the API key out of transport errors, which quote the URL
func redact(message, apiKey string) string {
	return strings.ReplaceAll(message, apiKey, "REDACTED")
}
