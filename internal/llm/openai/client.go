// Package openai implements llm.Client over the OpenAI Chat Completions API
// in JSON mode.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/shared/telemetry"
)

const (
	apiURL          = "https://api.openai.com/v1/chat/completions"
	defaultTimeout  = 120 * time.Second
	maxResponseBody = 4 << 20
)

// Client implements llm.Client.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client for model. OPENAI_TIMEOUT_SECONDS overrides
// the two minute request timeout.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	timeout := defaultTimeout
	if secs, err := strconv.Atoi(strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS"))); err == nil && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithEndpoint points the client at a different chat completions URL.
func (c *Client) WithEndpoint(url string) *Client {
	c.endpoint = url
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompts and returns the trimmed message content.
// Non-2xx answers come back as *llm.ProviderError.
func (c *Client) Complete(ctx context.Context, in llm.Request) (string, error) {
	payload, err := json.Marshal(c.buildRequest(in))
	if err != nil {
		return "", fmt.Errorf("encode openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= http.StatusBadRequest || parsed.Error != nil {
		return "", providerError(resp, body, parsed)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai response parse: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response missing choices")
	}
	logUsage(c.model, in.Purpose, parsed, time.Since(start))

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content (finish_reason=%s)", parsed.Choices[0].FinishReason)
	}
	return content, nil
}

func (c *Client) buildRequest(in llm.Request) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(in.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: in.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: in.User})

	req := chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	// gpt-5 models only accept the default temperature
	if !isGPT5(c.model) {
		zero := float32(0)
		req.Temperature = &zero
	}
	return req
}

func providerError(resp *http.Response, body []byte, parsed chatResponse) *llm.ProviderError {
	perr := &llm.ProviderError{
		Provider: "openai",
		Status:   resp.StatusCode,
		Message:  strings.TrimSpace(string(body)),
	}
	if parsed.Error != nil {
		perr.Message = parsed.Error.Message
		perr.Type = parsed.Error.Type
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		perr.RetryAfter = time.Duration(secs) * time.Second
	}
	return perr
}

func logUsage(model, purpose string, resp chatResponse, took time.Duration) {
	fields := map[string]any{
		"model":       model,
		"purpose":     purpose,
		"duration_ms": took.Milliseconds(),
	}
	if resp.Usage != nil {
		fields["prompt_tokens"] = resp.Usage.PromptTokens
		fields["completion_tokens"] = resp.Usage.CompletionTokens
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
