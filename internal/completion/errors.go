package completion

import (
	"errors"
	"fmt"
)

// ErrAllCandidatesExhausted is matched by every UpstreamError
var ErrAllCandidatesExhausted = errors.New("all completion candidates failed")

// AuthError means no usable API key was supplied
type AuthError struct{}

func (e *AuthError) Error() string {
	return "Gemini API key not configured. Please open the extension popup and enter your API key in the settings."
}

// CandidateAttemptError records why a single candidate failed. The client
// moves on to the next candidate instead of returning it.
type CandidateAttemptError struct {
	Candidate Candidate
	Reason    string
	Err       error
}

func (e *CandidateAttemptError) Error() string {
	return fmt.Sprintf("model %s (%s) failed: %s", e.Candidate.Model, e.Candidate.Version, e.Reason)
}

func (e *CandidateAttemptError) Unwrap() error {
	return e.Err
}

// UpstreamError is returned once every candidate has failed
type UpstreamError struct {
	Attempts int
	Last     *CandidateAttemptError
}

func (e *UpstreamError) Error() string {
	reason := "no candidates configured"
	if e.Last != nil {
		reason = e.Last.Reason
	}
	return fmt.Sprintf("API Error: All models failed. Last error: %s. Please check your API key and available models at https://ai.google.dev/api/rest", reason)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrAllCandidatesExhausted}
	}
	return []error{ErrAllCandidatesExhausted, e.Last}
}
