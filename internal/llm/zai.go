package llm

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/automenta/mcr/internal/config"
	"github.com/automenta/mcr/internal/logging"
)

var zaiRequestCounter uint64

func nextRequestID(prefix string) string {
	count := atomic.AddUint64(&zaiRequestCounter, 1)
	randBytes := make([]byte, 4)
	_, _ = rand.Read(randBytes)
	return fmt.Sprintf("%s-%d-%s", prefix, count, hex.EncodeToString(randBytes))
}

// ZAIAdapter implements Adapter over a Z.AI-compatible chat completions
// endpoint. Most of MCR's supported providers (zai, openai, xai,
// openrouter) speak this same OpenAI-shaped wire format, so one HTTP
// client covers them — only the default model/base URL differ per
// provider config.
type ZAIAdapter struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewZAIAdapter builds an adapter bound to cfg.
func NewZAIAdapter(cfg config.LLMConfig) *ZAIAdapter {
	return &ZAIAdapter{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Duration()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (a *ZAIAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string, options map[string]any) (*Response, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "ZAIAdapter.Generate")
	defer timer.Stop()

	reqID := nextRequestID("mcr-llm")
	logging.LLMDebug("[%s] generate request: model=%s system_len=%d user_len=%d", reqID, a.model, len(systemPrompt), len(userPrompt))

	body := chatCompletionRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		logging.Get(logging.CategoryLLM).Error("[%s] request failed: %v", reqID, err)
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		logging.Get(logging.CategoryLLM).Error("[%s] non-2xx response %d: %s", reqID, resp.StatusCode, string(raw))
		return nil, fmt.Errorf("llm: provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("llm: failed to parse response: %w", err)
	}

	var text *string
	if len(parsed.Choices) > 0 {
		content := parsed.Choices[0].Message.Content
		text = &content
	}

	cost := map[string]any{
		"input_tokens":  parsed.Usage.PromptTokens,
		"output_tokens": parsed.Usage.CompletionTokens,
	}
	logging.LLM("[%s] response received: text_len=%d input_tokens=%d output_tokens=%d",
		reqID, lenOrZero(text), parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)

	return &Response{Text: text, Cost: cost}, nil
}

func lenOrZero(s *string) int {
	if s == nil {
		return 0
	}
	return len(*s)
}
