// Package aiprovider implements the text generation port against OpenAI-compatible
// chat completion APIs.
package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/infra/httpclient"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

const (
	service = "openai"

	defaultModel       = "gpt-4"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// OpenAIAdapter completes prompts with the chat completions endpoint.
type OpenAIAdapter struct {
	cfg     config.OpenAIConfig
	client  httpclient.Doer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ outbound.TextGeneratorPort = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter creates a new OpenAI adapter. The client is expected to carry the
// bearer token (see httpclient.NewBearer).
func NewOpenAIAdapter(cfg config.OpenAIConfig, client httpclient.Doer, m *metrics.Metrics, logger *zap.Logger) *OpenAIAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &OpenAIAdapter{
		cfg:     cfg,
		client:  client,
		metrics: m,
		logger:  logger.Named("openai"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends prompt as a single user message and returns the trimmed reply.
func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string, opts outbound.CompletionOptions) (string, error) {
	if err := a.cfg.Validate(); err != nil {
		return "", err
	}

	body := a.buildChatRequest(prompt, opts)
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.RecordUpstream(service, "chat", 0, time.Since(start))
		return "", apperrors.Transport("chat completion", 0, "").Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	a.metrics.RecordUpstream(service, "chat", resp.StatusCode, time.Since(start))
	if err != nil {
		return "", apperrors.Transport("chat completion", resp.StatusCode, "").Wrap(err)
	}
	if resp.StatusCode >= 400 {
		a.logger.Error("Chat completion failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return "", apperrors.Transport("chat completion", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", apperrors.Malformed("decode chat completion").Wrap(err)
	}
	if len(out.Choices) == 0 {
		return "", apperrors.Malformed("no choices in chat completion %q", out.ID)
	}

	if out.Usage != nil {
		a.logger.Debug("Chat completion",
			zap.String("model", out.Model),
			zap.Int("prompt_tokens", out.Usage.PromptTokens),
			zap.Int("completion_tokens", out.Usage.CompletionTokens),
			zap.String("finish_reason", out.Choices[0].FinishReason),
		)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (a *OpenAIAdapter) buildChatRequest(prompt string, opts outbound.CompletionOptions) chatRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := a.cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	return chatRequest{
		Model:       a.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
