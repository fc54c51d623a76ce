// File: internal/llmclient/openai_client.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/internal/config"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint. Like
// GeminiClient it performs a single request per call.
type OpenAIClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.ProviderConfig
}

// -- Chat-completions request/response structures --

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponsePayload struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.ProviderConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}

	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		logger:     logger.Named("llm_client.openai"),
	}, nil
}

func (c *OpenAIClient) Name() string { return string(config.ProviderOpenAI) }

// Analyze sends the prompt and returns the raw generated text.
func (c *OpenAIClient) Analyze(ctx context.Context, prompt string) (string, error) {
	payload := chatRequestPayload{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   c.config.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var responsePayload chatResponsePayload
	if err := json.Unmarshal(respBody, &responsePayload); err != nil {
		return "", fmt.Errorf("failed to decode response payload: %w", err)
	}

	if len(responsePayload.Choices) == 0 {
		return "", &ProviderError{Provider: c.Name(), Message: "API returned no choices"}
	}

	c.logger.Info("LLM generation complete",
		zap.Int("total_tokens", responsePayload.Usage.TotalTokens))

	return responsePayload.Choices[0].Message.Content, nil
}
