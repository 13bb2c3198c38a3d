//go:generate mockery --name Client --output ./mocks --outpkg mocks --case=underscore
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lesson_progress_keep/internal/config"
	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
)

// Client はテキスト生成サービスのインターフェースです。
// サービスはバージョン保証のない不安定な外部依存として扱い、
// 呼び出し側が必ず失敗時のフォールバックを持ちます。
type Client interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type httpClient struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	client      *http.Client
}

// NewClient はOpenAI互換のチャット補完APIを叩くクライアントを作ります。
// APIキー未設定でもクライアント自体は作れます (呼び出し時に ErrExternalService)。
func NewClient(cfg *config.Config) Client {
	return &httpClient{
		apiKey:      cfg.OpenAI.APIKey,
		apiURL:      cfg.OpenAI.APIURL,
		model:       cfg.OpenAI.Model,
		temperature: 0.2,
		client: &http.Client{
			Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		},
	}
}

func (c *httpClient) Generate(ctx context.Context, system, user string) (string, error) {
	logger := middleware.GetLogger(ctx)

	if c.apiKey == "" {
		return "", fmt.Errorf("ai.Generate: api key not configured: %w", model.ErrExternalService)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	requestData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ai.Generate: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("ai.Generate: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Text generation request failed", "error", err)
		return "", fmt.Errorf("ai.Generate: request failed: %w", model.ErrExternalService)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		logger.Warn("Failed to decode text generation response", "error", err, "status", resp.StatusCode)
		return "", fmt.Errorf("ai.Generate: failed to decode response: %w", model.ErrExternalService)
	}
	if response.Error != nil {
		logger.Warn("Text generation API returned error", "message", response.Error.Message, "status", resp.StatusCode)
		return "", fmt.Errorf("ai.Generate: api error: %s: %w", response.Error.Message, model.ErrExternalService)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("ai.Generate: no response choices returned: %w", model.ErrExternalService)
	}

	return response.Choices[0].Message.Content, nil
}
