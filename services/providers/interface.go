package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CompletionProvider represents an external text-completion backend
type CompletionProvider interface {
	// Name returns the provider name (e.g., "vllm")
	Name() string

	// Complete sends a completion request and returns the backend's response
	// body unmodified.
	Complete(ctx context.Context, req *CompletionRequest) (json.RawMessage, error)

	// Endpoint returns the fully resolved completion URL
	Endpoint() string
}

// CompletionRequest is the body sent to an OpenAI-compatible /v1/completions endpoint
type CompletionRequest struct {
	// Model identifier (e.g., "facebook/opt-6.7b")
	Model string `json:"model"`

	// Prompt is forwarded verbatim
	Prompt string `json:"prompt"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens"`

	// Temperature controls randomness
	Temperature float64 `json:"temperature"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication (optional for self-hosted backends)
	APIKey string

	// BaseURL for the API
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// Additional headers
	Headers map[string]string
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Body is the raw upstream response body (if any)
	Body string

	// Timeout is set when the request exceeded the client deadline
	Timeout bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// IsTimeout checks if an error is a provider timeout
func IsTimeout(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Timeout
	}
	return false
}
