package vllm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/upb/rag-service/services/providers"
)

const (
	defaultTimeout = 60 * time.Second

	// maxErrorBody caps how much of an upstream error body is carried in errors
	maxErrorBody = 2048
)

// Adapter forwards completion requests to a vLLM (OpenAI-compatible) server.
// It never retries: a failed call is reported to the caller immediately.
type Adapter struct {
	endpoint string
	client   *resty.Client
}

// NewAdapter creates an adapter for the given completion URL,
// e.g. http://10.233.91.39:2345/v1/completions.
func NewAdapter(endpoint string, config providers.ProviderConfig) *Adapter {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	c := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if config.APIKey != "" {
		c.SetAuthToken(config.APIKey)
	}
	for k, v := range config.Headers {
		c.SetHeader(k, v)
	}

	return &Adapter{
		endpoint: endpoint,
		client:   c,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "vllm"
}

// Endpoint returns the completion URL this adapter posts to
func (a *Adapter) Endpoint() string {
	return a.endpoint
}

// Complete posts req to the completion endpoint and returns the response body as-is.
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (json.RawMessage, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(a.endpoint)
	if err != nil {
		provErr := providers.NewProviderError(a.Name(), "HTTP_ERROR", "completion request failed", 0, err)
		provErr.Timeout = isTimeout(err)
		if provErr.Timeout {
			provErr.Code = "TIMEOUT"
			provErr.Message = "completion request timed out"
		}
		return nil, provErr
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		provErr := providers.NewProviderError(a.Name(), "UPSTREAM_STATUS", "completion backend returned an error", resp.StatusCode(), nil)
		provErr.Body = truncate(string(body), maxErrorBody)
		return nil, provErr
	}

	if !json.Valid(body) {
		provErr := providers.NewProviderError(a.Name(), "INVALID_RESPONSE", "completion backend returned invalid JSON", resp.StatusCode(), nil)
		provErr.Body = truncate(string(body), maxErrorBody)
		return nil, provErr
	}

	return json.RawMessage(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
