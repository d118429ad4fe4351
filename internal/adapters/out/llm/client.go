// Package llm generates short customer messages through an OpenAI-compatible
// Chat Completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

var ErrEmptyCompletion = errors.New("llm: completion has no text")

// DefaultMaxRetries applies when Config.MaxRetries is zero.
const DefaultMaxRetries = 2

// ProviderError is returned when the API responds with a non-200 status.
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed when repeated.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	MaxTokens  int
	MaxRetries uint64
	Backoff    time.Duration
}

// Client implements ports.TextGenerator.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{httpClient: httpClient, cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends prompt as a single user message. Transport errors, 429 and
// 5xx responses are retried with exponential backoff up to MaxRetries times;
// ctx bounds the whole attempt sequence.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	wireRequest := chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.cfg.MaxTokens,
	}

	backoff := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(c.cfg.Backoff))

	var text string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		text, err = c.complete(ctx, wireRequest)
		var providerErr *ProviderError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &providerErr) && !providerErr.Retryable():
			return err
		case errors.Is(err, ErrEmptyCompletion):
			return err
		default:
			return retry.RetryableError(err)
		}
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, wireRequest chatRequest) (string, error) {
	body, err := json.Marshal(wireRequest)
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return "", fmt.Errorf("llm: sending request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return "", readProviderError(httpResponse)
	}

	var wireResponse chatResponse
	if err = json.NewDecoder(httpResponse.Body).Decode(&wireResponse); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}
	if len(wireResponse.Choices) == 0 || strings.TrimSpace(wireResponse.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return wireResponse.Choices[0].Message.Content, nil
}

// readProviderError parses {"error":{"type":"...","message":"..."}} and
// falls back to the raw body.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	providerErr := &ProviderError{StatusCode: httpResponse.StatusCode}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		providerErr.Type = wireError.Error.Type
		providerErr.Message = wireError.Error.Message
	} else {
		providerErr.Message = strings.TrimSpace(string(body))
	}
	return providerErr
}
