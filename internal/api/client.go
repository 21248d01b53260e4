// Package api provides the chat completion client.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/config"
	apierrors "github.com/diogo/cellchat/internal/errors"
	"github.com/diogo/cellchat/internal/models"
)

// HTTPDoer is the transport used by Client. tls_client.HttpClient
// satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Completer sends one user turn, with the prior conversation, and returns
// the interpreted reply
type Completer interface {
	Complete(ctx context.Context, history []models.Message, message string) (*models.Completion, error)
}

// Client talks to an OpenAI-compatible chat completion endpoint
type Client struct {
	httpClient  HTTPDoer
	apiKey      string
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

var _ Completer = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithEndpoint sets the completion URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithModel sets the model name sent with every request
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxTokens sets max_tokens
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithConfig applies endpoint, model, token limit, temperature and
// timeout from the user configuration
func WithConfig(cfg config.Config) ClientOption {
	return func(c *Client) {
		for _, opt := range []ClientOption{
			WithEndpoint(cfg.Endpoint),
			WithModel(cfg.Model),
			WithMaxTokens(cfg.MaxTokens),
			WithTemperature(cfg.Temperature),
			WithTimeout(cfg.Timeout()),
		} {
			opt(c)
		}
	}
}

// NewClient creates a Client for the given credentials
func NewClient(creds *config.Credentials, opts ...ClientOption) (*Client, error) {
	if err := config.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	client := &Client{
		apiKey:      creds.APIKey,
		endpoint:    models.EndpointGroqChat,
		model:       models.DefaultModel,
		maxTokens:   models.DefaultMaxTokens,
		temperature: models.DefaultTemperature,
		timeout:     120 * time.Second,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// The per-request context carries the real deadline; the
		// transport timeout only has to outlast it.
		seconds := int(client.timeout/time.Second) + 5
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
			tls_client.WithTimeoutSeconds(seconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Endpoint returns the completion URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Model returns the model name sent with requests
func (c *Client) Model() string {
	return c.model
}

// Timeout returns the per-request bound
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Close releases idle connections held by the transport
func (c *Client) Close() {
	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

// Complete sends the system prompt, history and message as one chat
// completion request and parses the returned cells document. It does not
// retry.
func (c *Client) Complete(ctx context.Context, history []models.Message, message string) (*models.Completion, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := c.buildRequest(history, message)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", c.model).
		Int("history", len(history)).
		Msg("sending chat completion")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	raw, err := readBody(resp, maxResponseBytes)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(started)).
		Msg("chat completion returned")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apierrors.NewAuthError(fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, errorMessage(raw)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, c.endpoint, errorMessage(raw), string(raw))
	}

	completion, err := parseCompletion(raw)
	if err != nil {
		return nil, err
	}
	if completion.Model == "" {
		completion.Model = c.model
	}
	return completion, nil
}

// transportError classifies a failure that happened before a full reply
// was read
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return apierrors.NewTimeoutError(fmt.Sprintf("no reply from %s within %s", c.endpoint, c.timeout))
	}
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("chat completion cancelled: %w", context.Canceled)
	}
	return apierrors.NewNetworkErrorWithEndpoint("chat completion", c.endpoint, err)
}
