package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a chat-completions client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *Message `json:"message,omitempty"`
		Delta   *Message `json:"delta,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate performs a single blocking completion request.
func (c *Client) Generate(ctx context.Context, system string, msgs []Message) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("llm.Client.Generate: %w", ErrNotConfigured)
	}

	// Bound the call when the caller did not set a deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    append([]Message{{Role: "system", Content: system}}, msgs...),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm.Client.Generate: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm.Client.Generate: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm.Client.Generate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm.Client.Generate: read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm.Client.Generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err = json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm.Client.Generate: parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm.Client.Generate: upstream: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return "", fmt.Errorf("llm.Client.Generate: empty completion")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// GenerateStream performs a streaming completion request. Content deltas are
// sent on the first channel; at most one error is sent on the second. Both
// channels are closed when the stream finishes.
func (c *Client) GenerateStream(ctx context.Context, system string, msgs []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string, 64)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		if c.apiKey == "" {
			errChan <- fmt.Errorf("llm.Client.GenerateStream: %w", ErrNotConfigured)
			return
		}

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
			defer cancel()
		}

		body, err := json.Marshal(chatRequest{
			Model:       c.model,
			Messages:    append([]Message{{Role: "system", Content: system}}, msgs...),
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Stream:      true,
		})
		if err != nil {
			errChan <- fmt.Errorf("llm.Client.GenerateStream: marshal: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			errChan <- fmt.Errorf("llm.Client.GenerateStream: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errChan <- fmt.Errorf("llm.Client.GenerateStream: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			errChan <- fmt.Errorf("llm.Client.GenerateStream: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}
			if data == "[DONE]" {
				return
			}

			var chunk chatResponse
			if unmarshalErr := json.Unmarshal([]byte(data), &chunk); unmarshalErr != nil {
				log.Debug().Err(unmarshalErr).Msg("llm: skipping malformed stream chunk")
				continue
			}
			if chunk.Error != nil {
				errChan <- fmt.Errorf("llm.Client.GenerateStream: upstream: %s", chunk.Error.Message)
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			select {
			case contentChan <- delta:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
		if err = scanner.Err(); err != nil {
			errChan <- fmt.Errorf("llm.Client.GenerateStream: scan: %w", err)
		}
	}()

	return contentChan, errChan
}
