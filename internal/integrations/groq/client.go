package groq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/integrations/paramstore"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	keyParameter = "groq-api-key"
	keyField     = "token"
)

// HTTPStatusError carries the status of a failed upstream call.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("groq: unexpected status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) Unwrap() error { return e.Err }

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Groq chat completions endpoint through its
// OpenAI-compatible API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	apiKey      string
	getter      paramstore.Getter
	paramPrefix string
	logger      *slog.Logger

	initOnce sync.Once
	api      *goopenai.Client
	initErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey sets the key directly, skipping the parameter store.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithParamStore reads the key from <prefix>/groq-api-key, a JSON value of
// the form {"token":"..."}, on first use.
func WithParamStore(getter paramstore.Getter, prefix string) Option {
	return func(c *Client) {
		c.getter = getter
		c.paramPrefix = strings.TrimSpace(prefix)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.apiKey == "" && (c.getter == nil || c.paramPrefix == "") {
		return nil, errors.New("groq: either an API key or a parameter store with prefix is required")
	}
	c.logger = c.logger.With(slog.String("module", "groq"))
	return c, nil
}

// resolveAPI builds the underlying client on first use. A key read from the
// parameter store is fetched once per process.
func (c *Client) resolveAPI(ctx context.Context) (*goopenai.Client, error) {
	c.initOnce.Do(func() {
		key := c.apiKey
		if key == "" {
			key, c.initErr = paramstore.SecretField(ctx, c.getter, paramstore.Name(c.paramPrefix, keyParameter), keyField)
			if c.initErr != nil {
				c.initErr = fmt.Errorf("groq: resolve api key: %w", c.initErr)
				return
			}
		}
		config := goopenai.DefaultConfig(key)
		config.BaseURL = c.baseURL
		if c.httpClient != nil {
			config.HTTPClient = c.httpClient
		}
		c.api = goopenai.NewClientWithConfig(config)
	})
	return c.api, c.initErr
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("groq: model must not be empty")
	}
	api, err := c.resolveAPI(ctx)
	if err != nil {
		return "", err
	}

	messages := make([]goopenai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	// go-openai omits a zero temperature from the request body.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("groq: no choices in response")
	}

	c.logger.Debug("completion received",
		slog.String("model", req.Model),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

func wrapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return fmt.Errorf("groq: request failed: %w", err)
}
