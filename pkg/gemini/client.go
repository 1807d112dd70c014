// Package gemini wraps the Gemini API for single-prompt JSON generation.
package gemini

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jobtrail/jobtrail-cli/internal/resilience"
)

const defaultModel = "gemini-2.0-flash"

// ErrQuotaExhausted signals that the API key's quota is spent. It is not
// retryable within a run; callers stop cleanly and resume later.
var ErrQuotaExhausted = eris.New("gemini: quota exhausted")

// Config controls the Gemini client.
type Config struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Model  string `yaml:"model" mapstructure:"model"`

	// BaseURL overrides the API base URL. Useful for proxies/testing.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// RequestsPerMinute throttles calls client-side. 0 disables throttling.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// MaxAttempts bounds retries on transient API failures.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Client calls the Gemini API with rate limiting and retry on transient
// failures. Quota exhaustion is surfaced as ErrQuotaExhausted and never
// retried.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.Policy
}

// New creates a Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		client:  client,
		model:   model,
		limiter: limiter,
		retry: resilience.Policy{
			Attempts: attempts,
			OnRetry:  resilience.RetryLogger("gemini", "generate"),
		},
	}, nil
}

// GenerateJSON sends the prompt and returns the model's text output. The
// response is requested as JSON but returned raw; parsing is the caller's
// concern.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	return resilience.RetryVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		resp, err := c.client.Models.GenerateContent(
			ctx,
			c.model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				CandidateCount:   1,
				ResponseMIMEType: "application/json",
			},
		)
		if err != nil {
			return "", classifyErr(err)
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", eris.New("gemini: empty response")
		}
		return text, nil
	})
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return eris.Wrap(ErrQuotaExhausted, apiErr.Message)
		case apiErr.Code/100 == 5:
			return resilience.NewTransientError(err, apiErr.Code)
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return resilience.NewTransientError(err, 0)
	}
	return err
}
