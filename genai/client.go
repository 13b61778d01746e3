// Package genai speaks to an OpenAI-compatible chat-completions endpoint.
// The model is treated as an untrusted collaborator: callers validate
// everything it returns.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	maxRetries   = 3
	initialDelay = 1 * time.Second
)

// ErrEmptyResponse indicates the endpoint returned no usable content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Roles for chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged block of prompt text.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Invoker is the generative-model invocation interface consumed by the
// decomposition pipeline.
type Invoker interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// Client calls a chat-completions API over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a chat client. Empty baseURL and model fall back to the
// OpenAI defaults.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if model == "" {
		model = defaultModel
	}

	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Invoke sends the messages and returns the first choice's content. Rate
// limits and server errors are retried with exponential backoff; client
// errors are not.
func (c *Client) Invoke(
	ctx context.Context,
	messages []Message,
) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/chat/completions",
			bytes.NewReader(body),
		)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var ae apiError
			if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
				lastErr = fmt.Errorf(
					"model API error (%d): %s",
					resp.StatusCode,
					ae.Error.Message,
				)
			} else {
				lastErr = fmt.Errorf(
					"model API error (%d): %s",
					resp.StatusCode,
					string(respBody),
				)
			}

			if resp.StatusCode == http.StatusTooManyRequests ||
				resp.StatusCode >= 500 {
				continue
			}

			return "", lastErr
		}

		var cr chatResponse

		err = json.Unmarshal(respBody, &cr)
		if err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}

		if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
			return "", ErrEmptyResponse
		}

		return cr.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}
