// File: internal/llmclient/gemini_client.go
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

// GeminiClient talks to the Google Gemini generateContent API. It performs
// exactly one request per Analyze call; the gateway owns retries.
type GeminiClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.ProviderConfig
}

// -- Gemini API request/response structures (internal to this file) --

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequestPayload struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponsePayload struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiClient initializes the client.
func NewGeminiClient(cfg config.ProviderConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", cfg.Model)
	}

	return &GeminiClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		logger:     logger.Named("llm_client.gemini"),
	}, nil
}

func (c *GeminiClient) Name() string { return string(config.ProviderGemini) }

// Analyze sends the prompt and returns the raw generated text.
func (c *GeminiClient) Analyze(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequestPayload{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
			MaxOutputTokens:  c.config.MaxTokens,
		},
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
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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

	var responsePayload geminiResponsePayload
	if err := json.Unmarshal(respBody, &responsePayload); err != nil {
		return "", fmt.Errorf("failed to decode response payload: %w", err)
	}

	if len(responsePayload.Candidates) == 0 {
		return "", &ProviderError{Provider: c.Name(), Message: "API returned no candidates"}
	}
	candidate := responsePayload.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{
			Provider: c.Name(),
			Message:  fmt.Sprintf("API returned empty content parts (reason: %s)", candidate.FinishReason),
		}
	}

	c.logger.Info("LLM generation complete",
		zap.Int("total_tokens", responsePayload.UsageMetadata.TotalTokenCount))

	return candidate.Content.Parts[0].Text, nil
}
